// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/blog-api/internal/auth"
	"github.com/carterperez-dev/blog-api/internal/core"
	"github.com/carterperez-dev/blog-api/internal/middleware"
	"github.com/carterperez-dev/blog-api/internal/policy"
)

type Provisioner interface {
	ProvisionAdmin(
		ctx context.Context,
		caller policy.Subject,
		req auth.ProvisionAdminRequest,
	) (*auth.UserResponse, error)
}

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type Handler struct {
	dbStats     func() sql.DBStats
	redisStats  func() *redis.PoolStats
	redisPing   func(ctx context.Context) error
	dbPing      func(ctx context.Context) error
	storePing   func(ctx context.Context) error
	users       Counter
	posts       Counter
	provisioner Provisioner
	validator   *validator.Validate
}

type HandlerConfig struct {
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
	RedisPing   func(ctx context.Context) error
	DBPing      func(ctx context.Context) error
	StorePing   func(ctx context.Context) error
	Users       Counter
	Posts       Counter
	Provisioner Provisioner
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
		dbPing:      cfg.DBPing,
		storePing:   cfg.StorePing,
		users:       cfg.Users,
		posts:       cfg.Posts,
		provisioner: cfg.Provisioner,
		validator:   core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Post("/users", h.ProvisionAdmin)
		r.Get("/stats", h.GetSystemStats)
	})
}

// ProvisionAdmin creates another administrator account.
func (h *Handler) ProvisionAdmin(w http.ResponseWriter, r *http.Request) {
	var req auth.ProvisionAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.provisioner.ProvisionAdmin(
		r.Context(),
		middleware.GetSubject(r.Context()),
		req,
	)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			core.Conflict(w, "email")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "")
		case errors.Is(err, core.ErrUnauthorized):
			core.Unauthorized(w, "")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.CreatedWithMessage(w, "administrator provisioned", user)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := policy.Authorize(middleware.GetSubject(ctx), policy.SystemStats, ""); err != nil {
		core.Forbidden(w, "")
		return
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatsResponse{
		Content: h.getContentStats(ctx),
		Database: DatabaseStatus{
			Healthy: pingHealthy(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: pingHealthy(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		ObjectStore: ObjectStoreStatus{
			Healthy: pingHealthy(ctx, h.storePing),
		},
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     memStats.Alloc,
			MemSys:       memStats.Sys,
			NumGC:        memStats.NumGC,
		},
	}

	core.OK(w, response)
}

func pingHealthy(ctx context.Context, ping func(ctx context.Context) error) bool {
	if ping == nil {
		return false
	}
	return ping(ctx) == nil
}

// getContentStats reports -1 for a count that could not be read.
func (h *Handler) getContentStats(ctx context.Context) ContentStats {
	stats := ContentStats{Users: -1, Posts: -1}

	if h.users != nil {
		if n, err := h.users.Count(ctx); err == nil {
			stats.Users = n
		}
	}
	if h.posts != nil {
		if n, err := h.posts.Count(ctx); err == nil {
			stats.Posts = n
		}
	}

	return stats
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type SystemStatsResponse struct {
	Content     ContentStats      `json:"content"`
	Database    DatabaseStatus    `json:"database"`
	Redis       RedisStatus       `json:"redis"`
	ObjectStore ObjectStoreStatus `json:"object_store"`
	Runtime     RuntimeStats      `json:"runtime"`
}

type ContentStats struct {
	Users int64 `json:"users"`
	Posts int64 `json:"posts"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type ObjectStoreStatus struct {
	Healthy bool `json:"healthy"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
