package handlers

import "time"

// CreateShortURLRequest is the request body for creating a short URL.
type CreateShortURLRequest struct {
	Body struct {
		URL string `doc:"The URL to shorten, including its http or https scheme" example:"https://example.com/very/long/path" json:"url"`
	}
}

// CreateShortURLResponse is returned with 201 for a new short URL and 200 for an existing one.
type CreateShortURLResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The short URL location" header:"Location"`
	}
	Body struct {
		Code          string    `doc:"The short code"                         example:"lleria1a2b3c4d"                       json:"code"`
		ShortURL      string    `doc:"The full short URL"                     example:"http://localhost:5000/lleria1a2b3c4d" json:"shortUrl"`
		OriginalURL   string    `doc:"The normalized original URL"            example:"https://example.com/very/long/path"   json:"originalUrl"`
		AlreadyExists bool      `doc:"Whether the URL had been shortened before" json:"alreadyExists"`
		CreatedAt     time.Time `doc:"When the short URL was first created"   json:"createdAt"`
	}
}

// RedirectRequest is the request for redirecting a short URL.
type RedirectRequest struct {
	Code string `doc:"The short code" example:"lleria1a2b3c4d" path:"code"`
}

// RedirectResponse sends the client to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `header:"Location"`
	}
}

// HomeResponse is the plain text landing page.
type HomeResponse struct {
	Headers struct {
		ContentType string `header:"Content-Type"`
	}
	Body []byte
}

// HistoryItem is one record of the shortening history.
type HistoryItem struct {
	Code        string    `json:"code"`
	ShortURL    string    `json:"shortUrl"`
	OriginalURL string    `json:"originalUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HistoryResponse lists every short URL, newest first.
type HistoryResponse struct {
	Body struct {
		Items []HistoryItem `json:"items"`
	}
}
