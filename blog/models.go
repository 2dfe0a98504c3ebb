// blog/models.go
package blog

import (
	"time"
)

// User carries identity only. A user's posts are held as references in the
// user_posts table and resolved on demand; they are never embedded on the
// user record itself.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Snapshot returns the author snapshot for this user as of now.
func (u *User) Snapshot() AuthorSnapshot {
	return AuthorSnapshot{ID: u.ID, Name: u.Name}
}

// AuthorSnapshot is a reduced copy of a User (id + name) taken at write time.
// It is a value owned by the containing post or comment: if the user later
// renames, the snapshot keeps the old name. Identity is the ID; the name is
// a cached display value that may diverge from the live user.
type AuthorSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comment lives only inside its parent post's comments array. It has no
// identity of its own and is append-only.
type Comment struct {
	Text   string         `json:"text"`
	Date   time.Time      `json:"date"`
	Author AuthorSnapshot `json:"author"`
}

// Post is a self-contained document: the author snapshot and the comment
// sequence are stored with the post row, so no lookup is ever needed to
// evaluate a text predicate against it.
type Post struct {
	ID       string         `json:"id"`
	Date     time.Time      `json:"date"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Author   AuthorSnapshot `json:"author"`
	Comments []Comment      `json:"comments"`
}
