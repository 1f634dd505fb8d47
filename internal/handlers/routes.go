package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all URL shortener routes.
func RegisterRoutes(api huma.API, urlHandler *URLHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "home",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "Service information",
		Tags:        []string{"Info"},
	}, urlHandler.Home)

	huma.Register(api, huma.Operation{
		OperationID:   "create-short-url",
		Method:        http.MethodPost,
		Path:          "/shorten",
		Summary:       "Create short URL",
		Description:   "Shortens a URL. Shortening the same URL again returns the existing short URL.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
			http.StatusServiceUnavailable,
		},
	}, urlHandler.CreateShortURL)

	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/history",
		Summary:     "List short URLs",
		Description: "Lists every short URL, newest first.",
		Tags:        []string{"URLs"},
	}, urlHandler.ListHistory)

	huma.Register(api, huma.Operation{
		OperationID:   "redirect",
		Method:        http.MethodGet,
		Path:          "/{code}",
		Summary:       "Redirect to original URL",
		Description:   "Redirects to the original URL associated with the short code.",
		Tags:          []string{"URLs"},
		DefaultStatus: http.StatusFound,
		Errors:        []int{http.StatusNotFound, http.StatusInternalServerError},
	}, urlHandler.RedirectToURL)
}
