package models

import (
	"time"

	"github.com/lib/pq"
)

// User is the author document. Posts holds ids of posts the user created;
// the posts themselves live in the posts table.
type User struct {
	UserID       string         `json:"userId" db:"user_id"`
	Email        string         `json:"email" db:"email"`
	Name         string         `json:"name" db:"name"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Status       string         `json:"status" db:"status"`
	Posts        pq.StringArray `json:"posts" db:"posts"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

// HasPost reports whether postID is among the user's post references.
func (u *User) HasPost(postID string) bool {
	for _, id := range u.Posts {
		if id == postID {
			return true
		}
	}
	return false
}

// AddPost appends postID unless it is already referenced.
func (u *User) AddPost(postID string) {
	if u.HasPost(postID) {
		return
	}
	u.Posts = append(u.Posts, postID)
}

// RemovePost drops every reference to postID.
func (u *User) RemovePost(postID string) {
	posts := make(pq.StringArray, 0, len(u.Posts))
	for _, id := range u.Posts {
		if id != postID {
			posts = append(posts, id)
		}
	}
	u.Posts = posts
}

type Creator struct {
	UserID string `json:"userId" db:"user_id"`
	Name   string `json:"name" db:"name"`
	Email  string `json:"email" db:"email"`
}

type Post struct {
	PostID    string    `json:"postId" db:"post_id"`
	CreatorID string    `json:"creatorId" db:"creator_id"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Creator   *Creator  `json:"creator,omitempty" db:"-"`
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// MutationEvent is broadcast to subscribers after a post mutation is stored.
// Post carries the full *Post for create and update, and the post id string
// for delete.
type MutationEvent struct {
	Action string `json:"action"`
	Post   any    `json:"post"`
}

func NewCreateEvent(post *Post) MutationEvent {
	return MutationEvent{Action: ActionCreate, Post: post}
}

func NewUpdateEvent(post *Post) MutationEvent {
	return MutationEvent{Action: ActionUpdate, Post: post}
}

func NewDeleteEvent(postID string) MutationEvent {
	return MutationEvent{Action: ActionDelete, Post: postID}
}
