// Package publish hands exported lessons to the downstream content store the
// site generator reads from.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client communicates with the content store HTTP API. Lessons live under
// /kv/lessons/{slug}.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
	stats      *Stats
	sleep      func(context.Context, time.Duration) error
}

func NewClient(baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:   log,
		stats: NewStats(time.Hour),
		sleep: sleepCtx,
	}
}

// Stats reports latency and failures of recent content store calls.
func (c *Client) Stats() map[string]CallStats {
	return c.stats.Snapshot()
}

// Entry is one published lesson as listed by the store.
type Entry struct {
	Key   string          `json:"key_path"`
	Value json.RawMessage `json:"value"`
}

// Receipt describes a completed publish.
type Receipt struct {
	Slug     string `json:"slug"`
	Key      string `json:"key"`
	Attempts int    `json:"attempts"`
}

func lessonKey(slug string) string {
	return "lessons/" + url.PathEscape(slug)
}

// Put stores an exported lesson document under its slug. Transient failures
// are retried with backoff.
func (c *Client) Put(ctx context.Context, slug string, doc []byte) (Receipt, error) {
	if slug == "" {
		return Receipt{}, fmt.Errorf("publish: lesson has no slug")
	}
	if !json.Valid(doc) {
		return Receipt{}, fmt.Errorf("publish %s: document is not valid JSON", slug)
	}
	body, err := json.Marshal(struct {
		Value  json.RawMessage `json:"value"`
		Source string          `json:"source"`
	}{doc, "lessongen"})
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal lesson: %w", err)
	}

	key := lessonKey(slug)
	attempts, err := c.withRetry(ctx, "put "+key, func() error {
		return c.put(ctx, key, body)
	})
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Slug: slug, Key: key, Attempts: attempts}, nil
}

func (c *Client) put(ctx context.Context, key string, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/kv/"+key, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("put lesson: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("put lesson "+key, resp)
	}
	return nil
}

// Get retrieves a published lesson document. It returns nil when the slug
// is not published.
func (c *Client) Get(ctx context.Context, slug string) (json.RawMessage, error) {
	key := lessonKey(slug)
	var doc json.RawMessage
	_, err := c.withRetry(ctx, "get "+key, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/kv/"+key, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("get lesson: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			doc = nil
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return statusError("get lesson "+key, resp)
		}

		var entry Entry
		if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
			return fmt.Errorf("decode lesson: %w", err)
		}
		doc = entry.Value
		return nil
	})
	return doc, err
}

// Delete unpublishes a lesson.
func (c *Client) Delete(ctx context.Context, slug string) error {
	key := lessonKey(slug)
	_, err := c.withRetry(ctx, "delete "+key, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/kv/"+key, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("delete lesson: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
			return statusError("delete lesson "+key, resp)
		}
		return nil
	})
	return err
}

// List does a prefix scan over the published lessons.
func (c *Client) List(ctx context.Context, limit int) ([]Entry, error) {
	u := c.baseURL + "/kv/lessons/*"
	if limit > 0 {
		u += "?limit=" + url.QueryEscape(fmt.Sprintf("%d", limit))
	}
	var nodes []Entry
	_, err := c.withRetry(ctx, "list lessons", func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("list lessons: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return statusError("list lessons", resp)
		}

		var result struct {
			Nodes []Entry `json:"nodes"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode lessons: %w", err)
		}
		nodes = result.Nodes
		return nil
	})
	return nodes, err
}

// statusError turns a non-success answer into an error. Rate limiting and
// server errors are retryable.
func statusError(op string, resp *http.Response) error {
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
