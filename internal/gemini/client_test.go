// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DipayanDasgupta/AIQuestionBankAutomator/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// testClient builds a Client pointed at a test server with a negligible
// cooldown so tests run fast.
func testClient(t *testing.T, server *httptest.Server, keys ...string) *Client {
	t.Helper()

	orig := apiBaseURL
	apiBaseURL = server.URL
	t.Cleanup(func() { apiBaseURL = orig })

	if len(keys) == 0 {
		keys = []string{"key-a"}
	}
	c, err := NewClient(types.GeminiConfig{
		APIKeys:  keys,
		Cooldown: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKeys(t *testing.T) {
	_, err := NewClient(types.GeminiConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestGenerateContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello "},{"text":"world"}]}}]}`))
	}))
	defer server.Close()

	c := testClient(t, server)
	got, err := c.GenerateContent(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestGenerateContentRotatesKeysOnError(t *testing.T) {
	var keysSeen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		keysSeen = append(keysSeen, key)
		if key == "key-b" {
			w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
			return
		}
		// Non-retriable failure forces a key rotation without backoff.
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(t, server, "key-a", "key-b")
	got, err := c.GenerateContent(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, []string{"key-a", "key-b"}, keysSeen)
}

func TestGenerateContentRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"recovered"}]}}]}`))
	}))
	defer server.Close()

	c := testClient(t, server)
	got, err := c.GenerateContent(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateContentBlockedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	c := testClient(t, server)
	_, err := c.GenerateContent(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked or empty")
}

func TestGenerateContentAllKeysFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := testClient(t, server, "key-a", "key-b")
	_, err := c.GenerateContent(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 API key(s) failed")
}

func TestEmbedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":embedContent")
		w.Write([]byte(`{"embedding":{"values":[0.1,0.2,0.3]}}`))
	}))
	defer server.Close()

	c := testClient(t, server)
	vec, err := c.EmbedText(context.Background(), "a question")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.InDelta(t, 0.2, vec[1], 1e-6)
}

func TestCooldownRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`))
	}))
	defer server.Close()

	orig := apiBaseURL
	apiBaseURL = server.URL
	t.Cleanup(func() { apiBaseURL = orig })

	c, err := NewClient(types.GeminiConfig{
		APIKeys:  []string{"key-a"},
		Cooldown: time.Hour,
	})
	require.NoError(t, err)
	c.lastCall = time.Now() // arm the cooldown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = c.GenerateContent(ctx, "prompt")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoadKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY_1", "one")
	t.Setenv("GEMINI_API_KEY_2", "")
	t.Setenv("GEMINI_API_KEY_3", "  three  ")
	t.Setenv("GEMINI_API_KEY_4", "")

	keys := LoadKeys()
	assert.Equal(t, []string{"one", "three"}, keys)
}
