// blog/search.go
package blog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const dayFormat = "2006-01-02"

// Sentinel bounds used when a date filter is absent or unparseable. Epoch on
// the low side, year 9999 on the high side: the window clause is always
// present but spans everything.
var (
	noLowerBound = time.Unix(0, 0).UTC()
	noUpperBound = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// DayStart parses a YYYY-MM-DD string into the start of that calendar day in
// UTC. All date boundaries in this service are UTC midnight, whatever time
// zone the client is in. A malformed or empty string returns fallback
// unchanged: a bad optional date filter degrades to "no bound", never an
// error.
func DayStart(text string, fallback time.Time) time.Time {
	t, err := time.Parse(dayFormat, text)
	if err != nil {
		return fallback
	}
	return t
}

// DayBound is a query-ready exclusive upper bound. The instant is unexported
// so the only way to obtain one is ExclusiveUpperBound, which applies the
// one-day advance; nothing else in the codebase can shift a bound a second
// time without a visible second constructor call.
type DayBound struct {
	t time.Time
}

// ExclusiveUpperBound advances the parsed day start by exactly one calendar
// day, so that "date < bound" includes the whole requested day. This is the
// only place the advance happens.
func ExclusiveUpperBound(dayStart time.Time) DayBound {
	return DayBound{t: dayStart.AddDate(0, 0, 1)}
}

// Predicate is a conjunction of SQL clauses with positional arguments,
// assembled incrementally and rendered once by SQL. Predicates are pure
// values built fresh per call; they never touch the store.
type Predicate struct {
	conds []string
	args  []any
}

func (p *Predicate) and(cond string, vals ...any) {
	p.conds = append(p.conds, cond)
	p.args = append(p.args, vals...)
}

// next returns the placeholder number the next appended argument will get.
func (p *Predicate) next() int {
	return len(p.args) + 1
}

// SQL renders the predicate as a WHERE body plus its arguments. An empty
// predicate matches everything.
func (p Predicate) SQL() (string, []any) {
	if len(p.conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(p.conds, " AND "), p.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring ILIKE pattern with the user's text treated
// as a literal: %, _ and \ are escaped so they cannot change the matching
// semantics. Both search operations go through this one helper.
func likePattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

// TitlePredicate matches text against the title only, case-insensitively.
// Empty text matches every post.
func TitlePredicate(text string) Predicate {
	var p Predicate
	if text != "" {
		p.and(fmt.Sprintf("title ILIKE $%d", p.next()), likePattern(text))
	}
	return p
}

// FullSearchPredicate matches text case-insensitively against the title, the
// body, or any comment's text (the post document is self-contained, so the
// comment surface is right there in the comments column), and restricts the
// post date to [min, max). Empty text drops the text clause.
func FullSearchPredicate(text string, min time.Time, max DayBound) Predicate {
	var p Predicate
	if text != "" {
		pat := likePattern(text)
		n := p.next()
		p.and(fmt.Sprintf(
			"(title ILIKE $%d OR body ILIKE $%d OR EXISTS (SELECT 1 FROM jsonb_array_elements(comments) AS c WHERE c.value ->> 'text' ILIKE $%d))",
			n, n+1, n+2), pat, pat, pat)
	}
	d := p.next()
	p.and(fmt.Sprintf("date >= $%d AND date < $%d", d, d+1), min, max.t)
	return p
}

// PostFinder is the slice of the store the search service needs.
type PostFinder interface {
	FindPosts(ctx context.Context, p Predicate) ([]Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
}

// Search exposes the read operations external callers use. It is stateless:
// every call is an idempotent read against the store's current contents, and
// store failures propagate verbatim with no retry.
type Search struct {
	store PostFinder
}

func NewSearch(store PostFinder) *Search {
	return &Search{store: store}
}

// TitleSearch returns the posts whose title contains text, ignoring case.
func (s *Search) TitleSearch(ctx context.Context, text string) ([]Post, error) {
	return s.store.FindPosts(ctx, TitlePredicate(text))
}

// FullSearch returns the posts matching text on title, body or comment text,
// dated within the inclusive calendar-day window [minDate, maxDate]. Either
// date may be absent or malformed, in which case that side is unbounded.
func (s *Search) FullSearch(ctx context.Context, text, minDate, maxDate string) ([]Post, error) {
	min := DayStart(minDate, noLowerBound)
	max := ExclusiveUpperBound(DayStart(maxDate, noUpperBound))
	return s.store.FindPosts(ctx, FullSearchPredicate(text, min, max))
}

// PostByID fetches one post; ErrNotFound when the id does not exist.
func (s *Search) PostByID(ctx context.Context, id string) (*Post, error) {
	return s.store.GetPost(ctx, id)
}
