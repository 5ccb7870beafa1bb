package database

import "time"

// Message roles. Every conversational turn produces exactly one row of each.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// User is an identity record keyed by the platform-supplied ID. It is
// created once on first contact and never mutated afterwards.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	CreatedAt time.Time `db:"created_at"`
}

// Message is a single turn unit in a user's conversation. The ID is assigned
// by the store at insertion and is used only for ordering. For bot-authored
// image results, Content holds the image URL or a failure marker.
type Message struct {
	ID        uint      `db:"id"`
	UserID    int64     `db:"user_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}
