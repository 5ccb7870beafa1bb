package backend

import "errors"

// ErrMalformedResponse indicates the backend call succeeded at the HTTP
// level but the payload carried no usable content.
var ErrMalformedResponse = errors.New("backend returned a malformed or empty response")
