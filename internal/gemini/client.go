// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gemini calls the Gemini generative-language API with a pool of
// rotating API keys, a global cooldown, and retry on rate limits.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

// Backend abstracts text generation so tests can supply a mock.
type Backend interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Embedder abstracts the embeddings endpoint for the dedupe stage.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// apiBaseURL is the generative-language API root. Package-level var for
// test substitution.
var apiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultCooldown       = 13 * time.Second
	defaultMaxRetries     = 3
	defaultTimeout        = 2 * time.Minute
)

// backoffBase controls the starting delay for rate-limit backoff. Tests
// override this to avoid real sleeps.
var backoffBase = 5 * time.Second

// LoadKeys collects GEMINI_API_KEY_1 through GEMINI_API_KEY_4 from the
// environment, in order, skipping unset slots.
func LoadKeys() []string {
	var keys []string
	for i := 1; i <= 4; i++ {
		if v := strings.TrimSpace(os.Getenv(fmt.Sprintf("GEMINI_API_KEY_%d", i))); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}

// Client rotates between API keys, enforcing a global cooldown between
// calls and exponential backoff on rate-limit responses. Safe for use from
// a single goroutine per call; the cooldown clock is shared.
type Client struct {
	cfg        types.GeminiConfig
	httpClient *http.Client

	mu       sync.Mutex
	keyIndex int
	lastCall time.Time
}

// NewClient validates the configuration and fills in defaults. At least one
// API key is required.
func NewClient(cfg types.GeminiConfig) (*Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("no GEMINI_API_KEY found: set GEMINI_API_KEY_1..4 in .env or the environment")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModel
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaultCooldown
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// KeyCount returns the number of configured API keys.
func (c *Client) KeyCount() int { return len(c.cfg.APIKeys) }

// --- request/response wire types ---

type generateRequest struct {
	Contents       []content       `json:"contents"`
	SafetySettings []safetySetting `json:"safetySettings,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type embedRequest struct {
	Content content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// blockNoneSettings disables content filtering for all harm categories.
// Physics problems about projectiles trip the default filters often enough
// that the original pipeline shipped with filtering off.
var blockNoneSettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// GenerateContent sends the prompt to the generation model and returns the
// concatenated text of the first candidate. It tries every configured key,
// retrying rate-limited calls with exponential backoff before rotating to
// the next key.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if err := c.waitCooldown(ctx); err != nil {
		return "", err
	}

	reqBody := generateRequest{
		Contents:       []content{{Parts: []part{{Text: prompt}}}},
		SafetySettings: blockNoneSettings,
	}

	var lastErr error
	for range c.cfg.APIKeys {
		key := c.nextKey()
		url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", apiBaseURL, c.cfg.Model, key)

		text, retriable, err := c.tryGenerate(ctx, url, reqBody)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retriable {
			continue // rotate to the next key
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("all %d API key(s) failed: %w", len(c.cfg.APIKeys), lastErr)
}

// tryGenerate attempts the call with one key, retrying 429/500/504 with
// exponential backoff. retriable reports whether the final failure was a
// rate-limit class error (the caller rotates keys either way).
func (c *Client) tryGenerate(ctx context.Context, url string, reqBody generateRequest) (text string, retriable bool, err error) {
	backoff := backoffBase
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", true, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		status, body, err := c.post(ctx, url, reqBody)
		if err != nil {
			return "", false, err
		}

		switch status {
		case http.StatusOK:
			var resp generateResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return "", false, fmt.Errorf("decoding response: %w", err)
			}
			out := candidateText(resp)
			if out == "" {
				return "", false, fmt.Errorf("response blocked or empty")
			}
			c.touch()
			return out, false, nil
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusGatewayTimeout:
			lastErr = fmt.Errorf("API returned %d: %s", status, truncate(string(body), 90))
			c.touch()
			continue
		default:
			return "", false, fmt.Errorf("API returned %d: %s", status, truncate(string(body), 90))
		}
	}

	return "", true, fmt.Errorf("after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// EmbedText returns the embedding vector for the given text using the
// configured embeddings model. Key rotation and cooldown apply as for
// generation.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := c.waitCooldown(ctx); err != nil {
		return nil, err
	}

	reqBody := embedRequest{Content: content{Parts: []part{{Text: text}}}}

	var lastErr error
	for range c.cfg.APIKeys {
		key := c.nextKey()
		url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", apiBaseURL, c.cfg.EmbeddingModel, key)

		status, body, err := c.post(ctx, url, reqBody)
		if err != nil {
			return nil, err
		}
		c.touch()

		if status != http.StatusOK {
			lastErr = fmt.Errorf("API returned %d: %s", status, truncate(string(body), 90))
			continue
		}

		var resp embedResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decoding embedding response: %w", err)
		}
		if len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("empty embedding returned")
		}
		return resp.Embedding.Values, nil
	}

	return nil, fmt.Errorf("all %d API key(s) failed: %w", len(c.cfg.APIKeys), lastErr)
}

func (c *Client) post(ctx context.Context, url string, reqBody any) (int, []byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("calling Gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// waitCooldown blocks until the configured spacing since the previous API
// call has elapsed, or the context is cancelled.
func (c *Client) waitCooldown(ctx context.Context) error {
	c.mu.Lock()
	elapsed := time.Since(c.lastCall)
	c.mu.Unlock()

	if wait := c.cfg.Cooldown - elapsed; wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil
}

// nextKey returns the current key and advances the rotation.
func (c *Client) nextKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.cfg.APIKeys[c.keyIndex]
	c.keyIndex = (c.keyIndex + 1) % len(c.cfg.APIKeys)
	return key
}

// touch records the time of the most recent API call for the cooldown clock.
func (c *Client) touch() {
	c.mu.Lock()
	c.lastCall = time.Now()
	c.mu.Unlock()
}

func candidateText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
