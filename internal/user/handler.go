// AngelaMos | 2026
// handler.go

package user

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/media"
	"github.com/carterperez-dev/blog-api/internal/middleware"
)

const profileImageField = "profileImage"

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
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/user", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{userID}/image", h.GetProfileImage)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/me", h.GetMe)
			r.Put("/me", h.UpdateMe)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Put("/{userID}", h.UpdateUser)
				r.Delete("/{userID}", h.DeleteUser)
			})
		})
	})
}

// ListUsers is public and unpaginated.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, users)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, user)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := media.ParseForm(w, r, h.maxUploadBytes); err != nil {
		media.WriteFormError(w, err)
		return
	}

	req := UpdateProfileRequest{
		Name:     media.OptionalValue(r, "name"),
		Password: media.OptionalValue(r, "password"),
		Contact:  media.SubmittedValue(r, "contact"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	image, err := media.FromRequest(r, profileImageField, h.maxUploadBytes)
	if err != nil {
		media.WriteFormError(w, err)
		return
	}
	req.Image = image

	user, err := h.service.UpdateMe(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKWithMessage(w, "profile updated", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")

	if err := media.ParseForm(w, r, h.maxUploadBytes); err != nil {
		media.WriteFormError(w, err)
		return
	}

	req := AdminUpdateRequest{
		Name:     media.OptionalValue(r, "name"),
		Email:    media.OptionalValue(r, "email"),
		Password: media.OptionalValue(r, "password"),
		Contact:  media.SubmittedValue(r, "contact"),
		Role:     media.OptionalValue(r, "role"),
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	image, err := media.FromRequest(r, profileImageField, h.maxUploadBytes)
	if err != nil {
		media.WriteFormError(w, err)
		return
	}
	req.Image = image

	user, err := h.service.AdminUpdateUser(
		r.Context(),
		middleware.GetSubject(r.Context()),
		targetID,
		req,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OKWithMessage(w, "user updated", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")

	err := h.service.AdminDeleteUser(
		r.Context(),
		middleware.GetSubject(r.Context()),
		targetID,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetProfileImage(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.OpenProfileImage(r.Context(), chi.URLParam(r, "userID"))
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
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrNoFields):
		core.BadRequest(w, "no fields to update")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid input")
	case errors.Is(err, core.ErrDuplicateKey):
		core.Conflict(w, "email")
	case errors.Is(err, ErrSelfDelete):
		core.Forbidden(w, ErrSelfDelete.Error())
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "")
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	default:
		core.InternalServerError(w, err)
	}
}
