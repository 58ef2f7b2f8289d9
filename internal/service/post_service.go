package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"postfeed/internal/models"
	"postfeed/internal/notify"
	"postfeed/internal/repository"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// PostInput is the client-supplied part of a create or update.
type PostInput struct {
	Title     string `validate:"required,min=3"`
	Content   string `validate:"required,min=3"`
	ImagePath string
	// Uploaded marks ImagePath as stored by the current request.
	Uploaded bool
}

// ImageStore removes image objects that no post references any more.
type ImageStore interface {
	ObjectName(imageURL string) (string, bool)
	DeleteImage(ctx context.Context, objectName string) error
}

type PostService interface {
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	CreatePost(ctx context.Context, actorID string, input PostInput) (*models.Post, *models.User, error)
	UpdatePost(ctx context.Context, actorID, postID string, input PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, actorID, postID string) error
}

type postService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	images   ImageStore
	validate *validator.Validate
	logger   *zap.Logger

	create *pipeline
	update *pipeline
	remove *pipeline
}

// NewPostService builds the post lifecycle manager. images may be nil, in
// which case replaced and deleted images are left in place.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository, images ImageStore, publisher notify.Publisher, logger *zap.Logger) PostService {
	s := &postService{
		postRepo: postRepo,
		userRepo: userRepo,
		images:   images,
		validate: validator.New(),
		logger:   logger,
	}

	s.create = newPipeline("create", publisher, logger,
		check("validate input", s.validateCreate),
		commit("save post", s.savePost),
		commit("load author", s.loadAuthor),
		commit("link author", s.linkAuthor),
		announce(func(m *mutation) models.MutationEvent { return models.NewCreateEvent(m.post) }),
	)

	s.update = newPipeline("update", publisher, logger,
		check("validate input", s.validateUpdate),
		check("load post", s.loadPost),
		check("authorize", s.authorize("not authorized to edit")),
		check("resolve image", s.resolveImage),
		commit("save post", s.applyUpdate),
		announce(func(m *mutation) models.MutationEvent { return models.NewUpdateEvent(m.post) }),
		followUp("clear image", s.clearImage),
	)

	s.remove = newPipeline("delete", publisher, logger,
		check("load post", s.loadPost),
		check("authorize", s.authorize("not authorized to delete")),
		commit("delete post", s.deletePost),
		announce(func(m *mutation) models.MutationEvent { return models.NewDeleteEvent(m.postID) }),
		followUp("clear image", s.clearImage),
		followUp("load author", s.loadAuthor),
		followUp("unlink author", s.unlinkAuthor),
	)

	return s
}

func (s *postService) ListPosts(ctx context.Context) ([]models.Post, error) {
	posts, err := s.postRepo.GetAll(ctx)
	if err != nil {
		s.logger.Sugar().Errorf("failed to list posts: %s", err.Error())
		return nil, storageError("failed to fetch posts", err)
	}

	if posts == nil {
		posts = []models.Post{}
	}

	return posts, nil
}

func (s *postService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, s.lookupError(postID, err)
	}

	return post, nil
}

// Mutations run detached from the request context: once started they finish
// and publish even if the client goes away.

func (s *postService) CreatePost(ctx context.Context, actorID string, input PostInput) (*models.Post, *models.User, error) {
	m := &mutation{actorID: actorID, input: input}
	if err := s.create.run(context.WithoutCancel(ctx), m); err != nil {
		return nil, nil, err
	}

	return m.post, m.author, nil
}

func (s *postService) UpdatePost(ctx context.Context, actorID, postID string, input PostInput) (*models.Post, error) {
	m := &mutation{actorID: actorID, postID: postID, input: input}
	if err := s.update.run(context.WithoutCancel(ctx), m); err != nil {
		return nil, err
	}

	return m.post, nil
}

func (s *postService) DeletePost(ctx context.Context, actorID, postID string) error {
	m := &mutation{actorID: actorID, postID: postID}
	return s.remove.run(context.WithoutCancel(ctx), m)
}

func (s *postService) validateCreate(_ context.Context, m *mutation) error {
	if err := s.validateInput(m); err != nil {
		return err
	}
	if m.input.ImagePath == "" {
		return validationError("image is required")
	}
	return s.claimImage(m, "")
}

func (s *postService) validateUpdate(_ context.Context, m *mutation) error {
	return s.validateInput(m)
}

func (s *postService) validateInput(m *mutation) error {
	m.input.Title = strings.TrimSpace(m.input.Title)
	m.input.Content = strings.TrimSpace(m.input.Content)
	m.input.ImagePath = strings.TrimSpace(m.input.ImagePath)

	if err := s.validate.Struct(m.input); err != nil {
		return validationError(describeValidation(err))
	}
	return nil
}

func (s *postService) savePost(ctx context.Context, m *mutation) error {
	post := &models.Post{
		CreatorID: m.actorID,
		Title:     m.input.Title,
		Content:   m.input.Content,
		ImageURL:  m.input.ImagePath,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s) post: %s", m.actorID, err.Error())
		return storageError("failed to create post", err)
	}

	m.post = post
	m.postID = post.PostID
	return nil
}

func (s *postService) loadAuthor(ctx context.Context, m *mutation) error {
	author, err := s.userRepo.GetUserByID(ctx, m.actorID)
	if err != nil {
		return storageError("failed to load author", err)
	}

	m.author = author
	return nil
}

func (s *postService) linkAuthor(ctx context.Context, m *mutation) error {
	m.author.AddPost(m.postID)
	if err := s.userRepo.SavePosts(ctx, m.author); err != nil {
		return storageError("failed to link post to author", err)
	}
	return nil
}

func (s *postService) unlinkAuthor(ctx context.Context, m *mutation) error {
	m.author.RemovePost(m.postID)
	if err := s.userRepo.SavePosts(ctx, m.author); err != nil {
		return storageError("failed to unlink post from author", err)
	}
	return nil
}

func (s *postService) loadPost(ctx context.Context, m *mutation) error {
	post, err := s.postRepo.GetByID(ctx, m.postID)
	if err != nil {
		return s.lookupError(m.postID, err)
	}

	m.post = post
	return nil
}

func (s *postService) authorize(reason string) func(context.Context, *mutation) error {
	return func(_ context.Context, m *mutation) error {
		if m.post.CreatorID != m.actorID {
			return newError(ErrForbidden, reason, nil)
		}
		return nil
	}
}

// resolveImage keeps the current image when the request brings none.
func (s *postService) resolveImage(_ context.Context, m *mutation) error {
	if m.input.ImagePath == "" {
		m.input.ImagePath = m.post.ImageURL
	}
	if m.input.ImagePath == "" {
		return validationError("missing image")
	}
	return s.claimImage(m, m.post.ImageURL)
}

// claimImage keeps every stored object owned by a single post: a stored image
// is accepted only from this request's upload or as the post's current image.
func (s *postService) claimImage(m *mutation, current string) error {
	if s.images == nil || m.input.Uploaded || m.input.ImagePath == current {
		return nil
	}
	if _, ok := s.images.ObjectName(m.input.ImagePath); ok {
		return validationError("image must be uploaded with the post")
	}
	return nil
}

func (s *postService) applyUpdate(ctx context.Context, m *mutation) error {
	previousImage := m.post.ImageURL
	m.post.Title = m.input.Title
	m.post.Content = m.input.Content
	m.post.ImageURL = m.input.ImagePath

	if err := s.postRepo.Update(ctx, m.post); err != nil {
		return s.writeError(m.postID, "failed to update post", err)
	}

	if previousImage != m.post.ImageURL {
		m.staleImage = previousImage
	}
	return nil
}

func (s *postService) deletePost(ctx context.Context, m *mutation) error {
	if err := s.postRepo.Delete(ctx, m.postID); err != nil {
		return s.writeError(m.postID, "failed to delete post", err)
	}

	m.staleImage = m.post.ImageURL
	return nil
}

// clearImage never fails the mutation: a leftover object only costs space.
func (s *postService) clearImage(ctx context.Context, m *mutation) error {
	if s.images == nil || m.staleImage == "" {
		return nil
	}

	objectName, ok := s.images.ObjectName(m.staleImage)
	if !ok {
		return nil
	}

	if err := s.images.DeleteImage(ctx, objectName); err != nil {
		s.logger.Sugar().Warnf("failed to delete image(%s) of post(%s): %s", objectName, m.postID, err.Error())
	}
	return nil
}

func (s *postService) lookupError(postID string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "post not found", err)
	}

	s.logger.Sugar().Errorf("failed to find post(%s): %s", postID, err.Error())
	return storageError("failed to fetch post", err)
}

// writeError classifies a failed post write. The row can vanish between the
// load and the write when a concurrent delete wins.
func (s *postService) writeError(postID, message string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrNotFound, "post not found", err)
	}

	s.logger.Sugar().Errorf("%s(%s): %s", message, postID, err.Error())
	return storageError(message, err)
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "invalid input"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		field := strings.ToLower(fieldErr.Field())
		switch fieldErr.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", field, fieldErr.Param()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email", field))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}

	return strings.Join(messages, "; ")
}
