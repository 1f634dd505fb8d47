package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/lleria/internal/shortener"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com"

// mockShortener is a test double for the engine that returns canned results.
type mockShortener struct {
	shortenResult shortener.ShortenResult
	resolveErr    error
	historyErr    error
}

func (m *mockShortener) Shorten(_ context.Context, _ string) shortener.ShortenResult {
	return m.shortenResult
}

func (m *mockShortener) Resolve(_ context.Context, _ shortener.Code) (string, bool, error) {
	if m.resolveErr != nil {
		return "", false, m.resolveErr
	}

	return testURL, true, nil
}

func (m *mockShortener) ListHistory(_ context.Context) ([]*shortener.ShortURL, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}

	return nil, nil
}
