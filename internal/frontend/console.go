package frontend

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/serroba/lleria/internal/shortener"
	"go.uber.org/zap"
)

// Shortener is the engine surface the console needs.
type Shortener interface {
	Shorten(ctx context.Context, rawURL string) shortener.ShortenResult
	ListHistory(ctx context.Context) ([]*shortener.ShortURL, error)
}

// Console is a line-oriented front-end: each input line is shortened and the
// running history is printed after every success.
type Console struct {
	engine  Shortener
	history *History
	baseURL string
	logger  *zap.Logger
}

// NewConsole creates a console over engine.
func NewConsole(engine Shortener, baseURL string, logger *zap.Logger) *Console {
	return &Console{
		engine:  engine,
		history: NewHistory(baseURL),
		baseURL: baseURL,
		logger:  logger,
	}
}

// History returns the console history.
func (c *Console) History() *History {
	return c.history
}

// LoadHistory primes the history from the store. A failure is reported but not fatal.
func (c *Console) LoadHistory(ctx context.Context, out io.Writer) {
	records, err := c.engine.ListHistory(ctx)
	if err != nil {
		c.logger.Warn("could not load history", zap.Error(err))
		fmt.Fprintf(out, "could not load history: %v\n", err)

		return
	}

	c.history.Load(records)
}

// Shorten shortens one URL, records it and writes a status line to out.
func (c *Console) Shorten(ctx context.Context, rawURL string, out io.Writer) bool {
	if strings.TrimSpace(rawURL) == "" {
		fmt.Fprintln(out, "enter a URL to shorten")

		return false
	}

	result := c.engine.Shorten(ctx, rawURL)
	if !result.Success() {
		fmt.Fprintf(out, "error: %s\n", result.Message())

		return false
	}

	link := result.ShortURL.Link(c.baseURL)
	c.history.AddRecord(result.ShortURL)

	if result.AlreadyExists {
		fmt.Fprintf(out, "already shortened: %s\n", link)
	} else {
		fmt.Fprintf(out, "shortened: %s\n", link)
	}

	return true
}

// Run reads URLs from in until EOF, "quit" or "exit".
func (c *Console) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	c.LoadHistory(ctx, out)
	c.PrintHistory(out)

	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "url> ")

		if !scanner.Scan() {
			fmt.Fprintln(out)

			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" {
			return nil
		}

		if c.Shorten(ctx, line, out) {
			c.PrintHistory(out)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// PrintHistory writes the history, most recent first.
func (c *Console) PrintHistory(out io.Writer) {
	entries := c.history.Entries()
	if len(entries) == 0 {
		return
	}

	fmt.Fprintln(out, "history:")

	for _, entry := range entries {
		fmt.Fprintf(out, "  %s\n", entry)
	}
}
