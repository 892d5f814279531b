// AngelaMos | 2026
// handler.go

package post

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/middleware"
	"github.com/carterperez-dev/blog-api/internal/policy"
)

const postImageField = "postImage"

type Handler struct {
	service        *Service
	validator      *validator.Validate
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		validator:      core.NewValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/post", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.ListPosts)
		r.Get("/{postID}", h.GetPost)
		r.Get("/{postID}/image", h.GetPostImage)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Post("/create", h.CreatePost)
			r.Put("/{postID}", h.UpdatePost)
			r.Delete("/{postID}", h.DeletePost)
		})
	})
}

// CreatePost checks the caller before reading the body, so a non-admin is
// refused with 403 whatever the form holds.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetSubject(r.Context())
	if err := policy.Authorize(caller, policy.PostCreate, ""); err != nil {
		writeError(w, err)
		return
	}

	if err := media.ParseForm(w, r, h.maxUploadBytes); err != nil {
		media.WriteFormError(w, err)
		return
	}

	req := CreatePostRequest{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Tags:    r.FormValue("tags"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	image, err := media.FromRequest(r, postImageField, h.maxUploadBytes)
	if err != nil {
		media.WriteFormError(w, err)
		return
	}
	req.Image = image

	post, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.CreatedWithMessage(w, "post created", post)
}

// ListPosts returns all posts; ?mine=true narrows to the caller's own.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	mine, _ := strconv.ParseBool(r.URL.Query().Get("mine"))

	posts, err := h.service.List(
		r.Context(),
		middleware.GetSubject(r.Context()),
		mine,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, posts)
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, post)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	if err := media.ParseForm(w, r, h.maxUploadBytes); err != nil {
		media.WriteFormError(w, err)
		return
	}

	req := UpdatePostRequest{
		Title:   media.OptionalValue(r, "title"),
		Content: media.OptionalValue(r, "content"),
		Tags:    media.OptionalValue(r, "tags"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	image, err := media.FromRequest(r, postImageField, h.maxUploadBytes)
	if err != nil {
		media.WriteFormError(w, err)
		return
	}
	req.Image = image

	post, err := h.service.Update(
		r.Context(),
		middleware.GetSubject(r.Context()),
		chi.URLParam(r, "postID"),
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKWithMessage(w, "post updated", post)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetSubject(r.Context()),
		chi.URLParam(r, "postID"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetPostImage(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.OpenImage(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "image")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	media.Serve(w, obj)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "post")
	case errors.Is(err, core.ErrNoFields):
		core.BadRequest(w, "no fields to update")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid input")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	default:
		core.InternalServerError(w, err)
	}
}
