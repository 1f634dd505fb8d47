package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/lleria/internal/shortener"
	"go.uber.org/zap"
)

// HomeMessage is served at the root path.
const HomeMessage = "lleria URL shortener: POST /shorten to create a short link, GET /{code} to follow one."

// Shortener is the engine surface the handlers depend on.
type Shortener interface {
	Shorten(ctx context.Context, rawURL string) shortener.ShortenResult
	Resolve(ctx context.Context, code shortener.Code) (string, bool, error)
	ListHistory(ctx context.Context) ([]*shortener.ShortURL, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	engine  Shortener
	baseURL string
	logger  *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(engine Shortener, baseURL string, logger *zap.Logger) *URLHandler {
	return &URLHandler{
		engine:  engine,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (h *URLHandler) Home(_ context.Context, _ *struct{}) (*HomeResponse, error) {
	resp := &HomeResponse{Body: []byte(HomeMessage)}
	resp.Headers.ContentType = "text/plain; charset=utf-8"

	return resp, nil
}

func (h *URLHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	result := h.engine.Shorten(ctx, req.Body.URL)
	if !result.Success() {
		return nil, shortenError(result)
	}

	shortURL := result.ShortURL
	link := shortURL.Link(h.baseURL)

	resp := &CreateShortURLResponse{Status: http.StatusCreated}
	if result.AlreadyExists {
		resp.Status = http.StatusOK
	}

	resp.Headers.Location = link
	resp.Body.Code = string(shortURL.Code)
	resp.Body.ShortURL = link
	resp.Body.OriginalURL = shortURL.OriginalURL
	resp.Body.AlreadyExists = result.AlreadyExists
	resp.Body.CreatedAt = shortURL.CreatedAt

	return resp, nil
}

func shortenError(result shortener.ShortenResult) error {
	switch result.Kind() {
	case shortener.KindValidation:
		return huma.Error400BadRequest(result.Message())
	case shortener.KindAllocationExhausted:
		return huma.Error503ServiceUnavailable(result.Message())
	case shortener.KindStoreConnectivity:
		return huma.Error500InternalServerError("url store is unavailable", result.Err)
	default:
		return huma.Error500InternalServerError("failed to save url", result.Err)
	}
}

func (h *URLHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	originalURL, found, err := h.engine.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		h.logger.Error("failed to resolve short url",
			zap.String("code", req.Code),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to get url")
	}

	if !found {
		return nil, huma.Error404NotFound("short url not found")
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = originalURL

	return resp, nil
}

func (h *URLHandler) ListHistory(ctx context.Context, _ *struct{}) (*HistoryResponse, error) {
	urls, err := h.engine.ListHistory(ctx)
	if err != nil {
		h.logger.Error("failed to list history", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to list urls")
	}

	resp := &HistoryResponse{}
	resp.Body.Items = make([]HistoryItem, 0, len(urls))

	for _, u := range urls {
		resp.Body.Items = append(resp.Body.Items, HistoryItem{
			Code:        string(u.Code),
			ShortURL:    u.Link(h.baseURL),
			OriginalURL: u.OriginalURL,
			CreatedAt:   u.CreatedAt,
		})
	}

	return resp, nil
}
