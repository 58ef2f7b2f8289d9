package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"postfeed/internal/models"
	"postfeed/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetAll(ctx context.Context) ([]models.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, postID string) error {
	args := m.Called(ctx, postID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) SavePosts(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.MutationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// memPostRepository is an in-memory PostRepository for scenario tests.
type memPostRepository struct {
	mu    sync.Mutex
	seq   int
	posts map[string]models.Post
}

func newMemPostRepository() *memPostRepository {
	return &memPostRepository{posts: make(map[string]models.Post)}
}

func (r *memPostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	post.PostID = fmt.Sprintf("post-%d", r.seq)
	post.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	post.UpdatedAt = post.CreatedAt
	r.posts[post.PostID] = *post
	return nil
}

func (r *memPostRepository) GetByID(_ context.Context, postID string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[postID]
	if !ok {
		return nil, fmt.Errorf("пост %s: %w", postID, repository.ErrNotFound)
	}
	return &post, nil
}

func (r *memPostRepository) GetAll(_ context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts := make([]models.Post, 0, len(r.posts))
	for _, post := range r.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (r *memPostRepository) Update(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[post.PostID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.ImageURL = post.ImageURL
	stored.UpdatedAt = time.Now()
	r.posts[post.PostID] = stored
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memPostRepository) Delete(_ context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[postID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, postID)
	return nil
}

// memUserRepository keeps users keyed by id. Only the methods the post
// lifecycle touches are meaningful.
type memUserRepository struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserRepository(ids ...string) *memUserRepository {
	r := &memUserRepository{users: make(map[string]models.User)}
	for _, id := range ids {
		r.users[id] = models.User{UserID: id, Name: id, Email: id + "@example.com", Posts: []string{}}
	}
	return r
}

func (r *memUserRepository) CreateUser(_ context.Context, user *models.User, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.UserID] = *user
	return nil
}

func (r *memUserRepository) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user.Posts = append([]string{}, user.Posts...)
	return &user, nil
}

func (r *memUserRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepository) VerifyPassword(_ context.Context, _, _ string) (*models.User, error) {
	return nil, repository.ErrInvalidCredentials
}

func (r *memUserRepository) SavePosts(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Posts = append([]string{}, user.Posts...)
	r.users[user.UserID] = stored
	return nil
}

func (r *memUserRepository) posts(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.users[userID].Posts...)
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.MutationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event models.MutationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) recorded() []models.MutationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]models.MutationEvent{}, p.events...)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) ObjectName(imageURL string) (string, bool) {
	args := m.Called(imageURL)
	return args.String(0), args.Bool(1)
}

func (m *MockImageStore) DeleteImage(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// memImageStore treats every URL under its base as a stored object.
type memImageStore struct {
	mu      sync.Mutex
	base    string
	deleted []string
}

func (s *memImageStore) ObjectName(imageURL string) (string, bool) {
	if !strings.HasPrefix(imageURL, s.base) {
		return "", false
	}
	return strings.TrimPrefix(imageURL, s.base), true
}

func (s *memImageStore) DeleteImage(_ context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, objectName)
	return nil
}

func (s *memImageStore) removed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, s.deleted...)
}
