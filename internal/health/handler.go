package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/lleria/internal/shortener"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Checker defines the interface for checking a dependency's health.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker interface.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a new Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// StoreChecker reports whether the URL store is reachable, reconnecting it when needed.
type StoreChecker struct {
	store shortener.Connection
}

// NewStoreChecker creates a health checker for a store connection.
func NewStoreChecker(store shortener.Connection) *StoreChecker {
	return &StoreChecker{store: store}
}

// Ping connects the store if it is down and pings it when the backend supports it.
func (s *StoreChecker) Ping(ctx context.Context) error {
	if !s.store.IsConnected() {
		if err := s.store.Connect(ctx); err != nil {
			return err
		}
	}

	if pinger, ok := s.store.(Checker); ok {
		return pinger.Ping(ctx)
	}

	return nil
}

// Handler handles health check operations.
type Handler struct {
	checks map[string]Checker
}

// NewHandler creates a health handler over the named dependency checks.
func NewHandler(checks map[string]Checker) *Handler {
	return &Handler{checks: checks}
}

// Response is the response for health check endpoint.
type Response struct {
	Body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
}

// Check performs a health check of the application and its dependencies.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"
	resp.Body.Checks = make(map[string]string, len(h.checks))

	for name, checker := range h.checks {
		if err := checker.Ping(ctx); err != nil {
			resp.Body.Checks[name] = statusUnhealthy
			resp.Body.Status = "degraded"

			continue
		}

		resp.Body.Checks[name] = statusHealthy
	}

	return resp, nil
}

// RegisterRoutes registers health check routes.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
