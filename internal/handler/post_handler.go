package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"postfeed/internal/models"
	"postfeed/internal/service"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

const validationFailedMessage = "Validation failed, entered data is incorrect."

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type postRequest struct {
	Title   string `json:"title" validate:"required,min=3"`
	Content string `json:"content" validate:"required,min=3"`
	Image   string `json:"image"`
}

type PostsResponse struct {
	Message string        `json:"message"`
	Posts   []models.Post `json:"posts"`
}

type PostResponse struct {
	Message string          `json:"message"`
	Post    *models.Post    `json:"post"`
	Creator *models.Creator `json:"creator,omitempty"`
}

type uploadedImage struct {
	objectName string
	url        string
}

func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.PostService.ListPosts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, PostsResponse{Message: "Posts Fetched Successfully", Posts: posts}, http.StatusOK)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	postID := mux.Vars(r)["postId"]

	post, err := h.PostService.GetPost(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, PostResponse{Message: "Post Fetched", Post: post}, http.StatusOK)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	if !h.parseMultipart(w, r) {
		return
	}

	req := postRequest{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
	}
	if !h.validatePost(w, &req) {
		return
	}

	image, ok := h.saveImage(w, r, true)
	if !ok {
		return
	}

	post, author, err := h.PostService.CreatePost(r.Context(), actorID, service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		ImagePath: image.url,
		Uploaded:  true,
	})
	if err != nil {
		h.discardImage(r.Context(), image, err)
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, PostResponse{
		Message: "Post Created Successfully",
		Post:    post,
		Creator: &models.Creator{
			UserID: author.UserID,
			Name:   author.Name,
			Email:  author.Email,
		},
	}, http.StatusCreated)
}

// UpdatePost accepts either a multipart form with an optional new image file
// or a JSON body whose image field names an already stored image.
func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	postID := mux.Vars(r)["postId"]

	var req postRequest
	var image *uploadedImage

	if isMultipart(r) {
		if !h.parseMultipart(w, r) {
			return
		}
		req = postRequest{
			Title:   r.FormValue("title"),
			Content: r.FormValue("content"),
			Image:   r.FormValue("image"),
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if !h.validatePost(w, &req) {
		return
	}

	if isMultipart(r) {
		image, ok = h.saveImage(w, r, false)
		if !ok {
			return
		}
	}

	input := service.PostInput{
		Title:     req.Title,
		Content:   req.Content,
		ImagePath: strings.TrimSpace(req.Image),
	}
	if image != nil {
		input.ImagePath = image.url
		input.Uploaded = true
	}

	post, err := h.PostService.UpdatePost(r.Context(), actorID, postID, input)
	if err != nil {
		h.discardImage(r.Context(), image, err)
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, PostResponse{Message: "Post Updated", Post: post}, http.StatusOK)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorFromContext(r.Context())
	if !ok {
		WriteError(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	postID := mux.Vars(r)["postId"]

	if err := h.PostService.DeletePost(r.Context(), actorID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, MessageResponse{Message: "Post Deleted"}, http.StatusOK)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (h *Handlers) parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(h.Cfg.MaxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			WriteError(w, fmt.Sprintf("file too large (max %s)", humanize.IBytes(uint64(h.Cfg.MaxUploadSize))),
				http.StatusRequestEntityTooLarge)
		} else {
			WriteError(w, "failed to read form", http.StatusBadRequest)
		}
		return false
	}
	return true
}

func (h *Handlers) validatePost(w http.ResponseWriter, req *postRequest) bool {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)

	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, validationFailedMessage, http.StatusUnprocessableEntity)
		return false
	}
	return true
}

// saveImage uploads the "image" file of a parsed multipart form. When the
// file is optional and absent it returns a nil image.
func (h *Handlers) saveImage(w http.ResponseWriter, r *http.Request, required bool) (*uploadedImage, bool) {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && !required {
			return nil, true
		}
		WriteError(w, "no image provided", http.StatusUnprocessableEntity)
		return nil, false
	}
	defer file.Close()

	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		WriteError(w, "unsupported image type, allowed: JPEG, PNG, GIF, WebP", http.StatusUnprocessableEntity)
		return nil, false
	}

	objectName, url, err := h.Storage.UploadImage(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		h.Logger.Sugar().Errorf("failed to upload image(%s): %s", header.Filename, err.Error())
		WriteError(w, "failed to upload image", http.StatusInternalServerError)
		return nil, false
	}

	return &uploadedImage{objectName: objectName, url: url}, true
}

// discardImage removes a freshly uploaded image when the post was rejected
// before anything was written. After a storage failure the post may already
// reference the image, so it is kept.
func (h *Handlers) discardImage(ctx context.Context, image *uploadedImage, err error) {
	if image == nil {
		return
	}

	switch service.KindOf(err) {
	case service.ErrValidation, service.ErrNotFound, service.ErrForbidden:
	default:
		return
	}

	if err := h.Storage.DeleteImage(context.WithoutCancel(ctx), image.objectName); err != nil {
		h.Logger.Sugar().Warnf("failed to delete rejected image(%s): %s", image.objectName, err.Error())
	}
}
