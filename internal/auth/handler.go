// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"mime"
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

// RegisterRoutes mounts the public credential endpoints. authLimiter wraps
// /signup and /login only.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, authLimiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authLimiter)
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/logout", h.Logout)
		r.Post("/logout-all", h.LogoutAll)
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := media.ParseForm(w, r, h.maxUploadBytes); err != nil {
		media.WriteFormError(w, err)
		return
	}

	req := SignupRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
		Role:     r.FormValue("role"),
		Contact:  r.FormValue("contact"),
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

	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAdminSignup):
			core.Forbidden(w, "administrator accounts cannot be self-registered")
		case errors.Is(err, ErrEmailExists):
			core.JSONError(w, core.DuplicateError("email"))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.CreatedWithMessage(w, "user registered", resp)
}

// Login accepts either a JSON body or form fields.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
	} else {
		if err := media.ParseForm(w, r, 0); err != nil {
			media.WriteFormError(w, err)
			return
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("invalid email or password"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OKWithMessage(w, "login successful", resp)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
