// internal/generator/client.go
//
// HTTP client for the external word/hint generation service.
// Responsibilities:
//   - POST /game  {topic, difficulty, language}            → {word, banned[5]}
//   - POST /hints {props, previous_guesses[{predict,sentence}]} → {hint}
//   - Map transport errors, non-2xx statuses, `{error}` bodies and malformed
//     payloads to *game.ExternalServiceError.
//
// Notes:
//   - The client never invents a word or a hint; every failure is returned.
//   - Nothing is retried; the player re-triggers the action.

package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdonmez/taibu/internal/game"
)

const (
	roundPath = "/game"
	hintPath  = "/hints"

	defaultTimeout  = 30 * time.Second
	defaultLanguage = "english"
	maxBodyBytes    = 1 << 20
)

// Client talks to one generator base URL. Safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	language string
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.http.Timeout = d } }

// WithLanguage sets the language sent with round requests.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		if lang = strings.TrimSpace(lang); lang != "" {
			c.language = lang
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// New builds a Client for baseURL (e.g. http://localhost:5000).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		language: defaultLanguage,
		log:      zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// errorBody is the generator's failure payload.
type errorBody struct {
	Error string `json:"error"`
}

// postJSON sends in and decodes a 2xx response into out.
// op names the contract ("round" or "hint") for error reporting.
func (c *Client) postJSON(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &game.ExternalServiceError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &game.ExternalServiceError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("generator unreachable")
		return &game.ExternalServiceError{Op: op, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return &game.ExternalServiceError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	c.log.Debug().
		Str("op", op).
		Int("status", res.StatusCode).
		Dur("took", time.Since(start)).
		Msg("generator call")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		msg := strings.TrimSpace(eb.Error)
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return &game.ExternalServiceError{Op: op, Status: res.StatusCode, Message: msg}
	}

	// Some generators report failures with a 2xx and an error body.
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && strings.TrimSpace(eb.Error) != "" {
		return &game.ExternalServiceError{Op: op, Status: res.StatusCode, Message: strings.TrimSpace(eb.Error)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &game.ExternalServiceError{Op: op, Status: res.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func malformed(op string, status int, format string, args ...any) error {
	return &game.ExternalServiceError{Op: op, Status: status, Err: fmt.Errorf("malformed response: "+format, args...)}
}
