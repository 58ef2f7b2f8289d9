package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Routes registers every endpoint. auth guards the feed routes; subscribers
// serves the event stream and may be nil.
func (h *Handlers) Routes(auth mux.MiddlewareFunc, subscribers http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/signup", h.Signup).Methods(http.MethodPut)
	authRouter.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	feed := r.PathPrefix("/feed").Subrouter()
	feed.Use(auth)
	feed.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)
	feed.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	feed.HandleFunc("/posts/{postId}", h.GetPost).Methods(http.MethodGet)
	feed.HandleFunc("/posts/{postId}", h.UpdatePost).Methods(http.MethodPut)
	feed.HandleFunc("/posts/{postId}", h.DeletePost).Methods(http.MethodDelete)

	if subscribers != nil {
		r.Handle("/ws", subscribers).Methods(http.MethodGet)
	}

	return r
}
