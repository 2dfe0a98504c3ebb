package blog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeStore is an in-memory Store and PostFinder for boundary tests.
type fakeStore struct {
	users    map[string]User
	posts    map[string]Post
	refs     map[string][]string
	findRes  []Post
	lastPred Predicate
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]User),
		posts: make(map[string]Post),
		refs:  make(map[string][]string),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = f.id("user")
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return &u, nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, user *User) error {
	if _, ok := f.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	delete(f.users, id)
	delete(f.refs, id)
	return nil
}

func (f *fakeStore) CreatePost(ctx context.Context, post *Post) error {
	if post.ID == "" {
		post.ID = f.id("post")
	}
	if post.Comments == nil {
		post.Comments = make([]Comment, 0)
	}
	f.posts[post.ID] = *post
	return nil
}

func (f *fakeStore) AddComment(ctx context.Context, postID string, comment Comment) error {
	p, ok := f.posts[postID]
	if !ok {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	p.Comments = append(p.Comments, comment)
	f.posts[postID] = p
	return nil
}

func (f *fakeStore) AddPostRef(ctx context.Context, userID, postID string) error {
	f.refs[userID] = append(f.refs[userID], postID)
	return nil
}

func (f *fakeStore) PostsOf(ctx context.Context, userID string) ([]Post, error) {
	posts := make([]Post, 0)
	for _, id := range f.refs[userID] {
		posts = append(posts, f.posts[id])
	}
	return posts, nil
}

func (f *fakeStore) FindPosts(ctx context.Context, p Predicate) ([]Post, error) {
	f.lastPred = p
	return f.findRes, nil
}

func (f *fakeStore) GetPost(ctx context.Context, id string) (*Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

func newTestServer(store *fakeStore) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandlers(store, NewSearch(store)).RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGetUserNotFound(t *testing.T) {
	mux := newTestServer(newFakeStore())
	rec := doRequest(t, mux, http.MethodGet, "/users/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateAndGetUser(t *testing.T) {
	mux := newTestServer(newFakeStore())

	rec := doRequest(t, mux, http.MethodPost, "/users", `{"name":"Maria Brown","email":"maria@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected an assigned id")
	}

	rec = doRequest(t, mux, http.MethodGet, "/users/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Name != "Maria Brown" || got.Email != "maria@example.com" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestCreateUserValidation(t *testing.T) {
	mux := newTestServer(newFakeStore())

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"a@example.com"}`},
		{"missing email", `{"name":"A"}`},
		{"invalid json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, mux, http.MethodPost, "/users", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestUserPostsEmptyIsNotAnError(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = User{ID: "u1", Name: "Bob Grey", Email: "bob@example.com"}
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodGet, "/users/u1/posts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var posts []Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no posts, got %d", len(posts))
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected an empty JSON array, got %q", rec.Body.String())
	}
}

func TestCreatePostEmbedsAuthorSnapshot(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = User{ID: "u1", Name: "Maria Brown", Email: "maria@example.com"}
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodPost, "/posts",
		`{"title":"Conquering Java EE","body":"notes","authorId":"u1","date":"2020-01-15T00:00:00Z"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var post Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if post.Author.ID != "u1" || post.Author.Name != "Maria Brown" {
		t.Errorf("unexpected author snapshot: %+v", post.Author)
	}
	if !post.Date.Equal(time.Date(2020, time.January, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date: %v", post.Date)
	}
	if got := store.refs["u1"]; len(got) != 1 || got[0] != post.ID {
		t.Errorf("expected a post reference recorded for u1, got %v", got)
	}
}

func TestAuthorSnapshotSurvivesRename(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = User{ID: "u1", Name: "Maria Brown", Email: "maria@example.com"}
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodPost, "/posts", `{"title":"First","authorId":"u1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var post Post
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	rec = doRequest(t, mux, http.MethodPut, "/users/u1", `{"name":"Maria Green","email":"maria@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/posts/"+post.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got Post
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Author.Name != "Maria Brown" {
		t.Errorf("snapshot should keep the name at post-creation time, got %q", got.Author.Name)
	}
}

func TestAddComment(t *testing.T) {
	store := newFakeStore()
	store.users["u2"] = User{ID: "u2", Name: "Alex Green", Email: "alex@example.com"}
	store.posts["p1"] = Post{ID: "p1", Title: "Trip", Comments: []Comment{}}
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodPost, "/posts/p1/comments", `{"text":"parallel worlds","authorId":"u2"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got := store.posts["p1"].Comments
	if len(got) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(got))
	}
	if got[0].Text != "parallel worlds" || got[0].Author.Name != "Alex Green" {
		t.Errorf("unexpected comment: %+v", got[0])
	}

	rec = doRequest(t, mux, http.MethodPost, "/posts/missing/comments", `{"text":"x","authorId":"u2"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown post, got %d", rec.Code)
	}
}

func TestGetPostNotFound(t *testing.T) {
	mux := newTestServer(newFakeStore())
	rec := doRequest(t, mux, http.MethodGet, "/posts/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestTitleSearchEndpoint(t *testing.T) {
	store := newFakeStore()
	store.findRes = []Post{{ID: "p1", Title: "Conquering Java EE"}}
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodGet, "/posts/titlesearch?text=Conquering", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var posts []Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Conquering Java EE" {
		t.Errorf("unexpected posts: %+v", posts)
	}

	where, args := store.lastPred.SQL()
	if where != "title ILIKE $1" {
		t.Errorf("expected a title-only predicate, got %q", where)
	}
	if len(args) != 1 || args[0] != "%Conquering%" {
		t.Errorf("unexpected predicate args: %v", args)
	}
}

func TestFullSearchEndpointPassesWindow(t *testing.T) {
	store := newFakeStore()
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodGet, "/posts/fullsearch?text=parallel&minDate=2020-01-01&maxDate=2020-01-30", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	_, args := store.lastPred.SQL()
	if len(args) != 5 {
		t.Fatalf("expected 5 predicate args, got %d", len(args))
	}
	max := args[4].(time.Time)
	want := time.Date(2020, time.January, 31, 0, 0, 0, 0, time.UTC)
	if !max.Equal(want) {
		t.Errorf("upper bound advanced more or less than one day: expected %v, got %v", want, max)
	}
}

func TestDeleteUserLeavesPostsAlone(t *testing.T) {
	store := newFakeStore()
	store.users["u1"] = User{ID: "u1", Name: "Maria Brown", Email: "maria@example.com"}
	store.posts["p1"] = Post{ID: "p1", Title: "Trip", Author: AuthorSnapshot{ID: "u1", Name: "Maria Brown"}}
	store.refs["u1"] = []string{"p1"}
	mux := newTestServer(store)

	rec := doRequest(t, mux, http.MethodDelete, "/users/u1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doRequest(t, mux, http.MethodGet, "/posts/p1", "")
	if rec.Code != http.StatusOK {
		t.Errorf("post should survive its author's deletion, got %d", rec.Code)
	}
}
