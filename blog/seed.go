// blog/seed.go
package blog

import (
	"context"
	"fmt"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed wipes the store and loads a small fixture set: three users, two posts
// with embedded comments, and the matching post references. Idempotent; only
// runs when the seed config flag is on.
func Seed(ctx context.Context, db *Database) error {
	_, err := db.pool.Exec(ctx, `TRUNCATE user_posts, posts, users`)
	if err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}

	maria := User{Name: "Maria Brown", Email: "maria@example.com"}
	alex := User{Name: "Alex Green", Email: "alex@example.com"}
	bob := User{Name: "Bob Grey", Email: "bob@example.com"}
	for _, u := range []*User{&maria, &alex, &bob} {
		if err := db.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Name, err)
		}
	}

	trip := Post{
		Date:   day(2021, time.March, 21),
		Title:  "Off on a trip",
		Body:   "Heading out to see the world, back next month.",
		Author: maria.Snapshot(),
		Comments: []Comment{
			{Text: "Have a great trip!", Date: day(2021, time.March, 21), Author: alex.Snapshot()},
			{Text: "Enjoy it", Date: day(2021, time.March, 22), Author: bob.Snapshot()},
		},
	}
	morning := Post{
		Date:   day(2021, time.March, 23),
		Title:  "Good morning",
		Body:   "Another day of parallel deploys ahead.",
		Author: maria.Snapshot(),
		Comments: []Comment{
			{Text: "Good luck with the release", Date: day(2021, time.March, 23), Author: alex.Snapshot()},
		},
	}
	for _, p := range []*Post{&trip, &morning} {
		if err := db.CreatePost(ctx, p); err != nil {
			return fmt.Errorf("seeding post %q: %w", p.Title, err)
		}
		if err := db.AddPostRef(ctx, maria.ID, p.ID); err != nil {
			return fmt.Errorf("seeding post reference for %q: %w", p.Title, err)
		}
	}
	return nil
}
