// blog/handlers.go
package blog

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

// Store is everything the HTTP layer needs from the database. *Database
// satisfies it; tests swap in a fake.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, user *User) error
	DeleteUser(ctx context.Context, id string) error
	CreatePost(ctx context.Context, post *Post) error
	AddComment(ctx context.Context, postID string, comment Comment) error
	AddPostRef(ctx context.Context, userID, postID string) error
	PostsOf(ctx context.Context, userID string) ([]Post, error)
}

// Handlers is the JSON boundary. It owns protocol translation — decoding
// requests, mapping ErrNotFound to 404 — and nothing else; in particular no
// date-bound arithmetic happens here.
type Handlers struct {
	store  Store
	search *Search
}

func NewHandlers(store Store, search *Search) *Handlers {
	return &Handlers{store: store, search: search}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("POST /users", h.createUser)
	mux.HandleFunc("GET /users/{id}", h.getUser)
	mux.HandleFunc("PUT /users/{id}", h.updateUser)
	mux.HandleFunc("DELETE /users/{id}", h.deleteUser)
	mux.HandleFunc("GET /users/{id}/posts", h.userPosts)
	mux.HandleFunc("GET /posts/titlesearch", h.titleSearch)
	mux.HandleFunc("GET /posts/fullsearch", h.fullSearch)
	mux.HandleFunc("GET /posts/{id}", h.getPost)
	mux.HandleFunc("POST /posts", h.createPost)
	mux.HandleFunc("POST /posts/{id}/comments", h.addComment)
}

// --- Users ---

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.serverError(w, "Failed to list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	user := User{Name: req.Name, Email: req.Email}
	if err := h.store.CreateUser(r.Context(), &user); err != nil {
		h.serverError(w, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		h.lookupError(w, "User not found", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	user := User{ID: r.PathValue("id"), Name: req.Name, Email: req.Email}
	if err := h.store.UpdateUser(r.Context(), &user); err != nil {
		h.lookupError(w, "User not found", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		h.lookupError(w, "User not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) userPosts(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if _, err := h.store.GetUser(r.Context(), userID); err != nil {
		h.lookupError(w, "User not found", err)
		return
	}
	posts, err := h.store.PostsOf(r.Context(), userID)
	if err != nil {
		h.serverError(w, "Failed to resolve posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// --- Posts ---

func (h *Handlers) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.search.PostByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.lookupError(w, "Post not found", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type postRequest struct {
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	Date     *time.Time `json:"date"`
	AuthorID string     `json:"authorId"`
}

func (h *Handlers) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" || req.AuthorID == "" {
		writeError(w, http.StatusBadRequest, "Title and authorId are required")
		return
	}
	author, err := h.store.GetUser(r.Context(), req.AuthorID)
	if err != nil {
		h.lookupError(w, "Author not found", err)
		return
	}
	post := Post{
		Date:   time.Now().UTC(),
		Title:  req.Title,
		Body:   req.Body,
		Author: author.Snapshot(),
	}
	if req.Date != nil {
		post.Date = *req.Date
	}
	if err := h.store.CreatePost(r.Context(), &post); err != nil {
		h.serverError(w, "Failed to create post", err)
		return
	}
	if err := h.store.AddPostRef(r.Context(), author.ID, post.ID); err != nil {
		h.serverError(w, "Failed to record post reference", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

type commentRequest struct {
	Text     string     `json:"text"`
	Date     *time.Time `json:"date"`
	AuthorID string     `json:"authorId"`
}

func (h *Handlers) addComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" || req.AuthorID == "" {
		writeError(w, http.StatusBadRequest, "Text and authorId are required")
		return
	}
	author, err := h.store.GetUser(r.Context(), req.AuthorID)
	if err != nil {
		h.lookupError(w, "Author not found", err)
		return
	}
	comment := Comment{
		Text:   req.Text,
		Date:   time.Now().UTC(),
		Author: author.Snapshot(),
	}
	if req.Date != nil {
		comment.Date = *req.Date
	}
	if err := h.store.AddComment(r.Context(), r.PathValue("id"), comment); err != nil {
		h.lookupError(w, "Post not found", err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// --- Search ---

func (h *Handlers) titleSearch(w http.ResponseWriter, r *http.Request) {
	posts, err := h.search.TitleSearch(r.Context(), r.URL.Query().Get("text"))
	if err != nil {
		h.serverError(w, "Search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *Handlers) fullSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := h.search.FullSearch(r.Context(), q.Get("text"), q.Get("minDate"), q.Get("maxDate"))
	if err != nil {
		h.serverError(w, "Search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// --- Helpers ---

// lookupError maps ErrNotFound to 404 and everything else to 500.
func (h *Handlers) lookupError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, msg)
		return
	}
	h.serverError(w, msg, err)
}

func (h *Handlers) serverError(w http.ResponseWriter, msg string, err error) {
	log.Printf("%s: %v", msg, err)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
