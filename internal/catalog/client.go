// Package catalog talks to the storefront API that owns products, categories
// and the image CDN.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/storefront-admin/internal/editor"
)

// DefaultBaseURL is the storefront API address used when none is configured.
const DefaultBaseURL = "http://localhost:5001"

const (
	categoryPageSize = 100
	maxErrorBody     = 512
	readRetries      = 2
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client wraps interactions with the storefront API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	backoff    func() retry.Backoff
	categories singleflight.Group
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryBase sets the first backoff interval of retried reads.
func WithRetryBase(base time.Duration) Option {
	return func(c *Client) {
		c.backoff = func() retry.Backoff {
			return retry.WithMaxRetries(readRetries, retry.NewExponential(base))
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient constructs a new client. An empty baseURL falls back to
// DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default(),
	}
	WithRetryBase(200 * time.Millisecond)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ editor.Catalog      = (*Client)(nil)
	_ editor.ImageStorage = (*Client)(nil)
)

// ListCategories returns every category. Concurrent callers share one fetch.
func (c *Client) ListCategories(ctx context.Context) ([]editor.Category, error) {
	ch := c.categories.DoChan("categories", func() (interface{}, error) {
		return c.fetchCategories(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		shared := res.Val.([]editor.Category)
		return append([]editor.Category(nil), shared...), nil
	}
}

func (c *Client) fetchCategories(ctx context.Context) ([]editor.Category, error) {
	var out []editor.Category
	offset := 0
	for {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(categoryPageSize))
		q.Set("offset", strconv.Itoa(offset))
		var raw json.RawMessage
		if err := c.getJSON(ctx, "/categories/all", q, &raw); err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		page, err := decodeCategoryPage(raw)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		out = append(out, page.items...)
		if !page.paginated || len(page.items) == 0 || len(out) >= page.total {
			return out, nil
		}
		offset = len(out)
	}
}

// GetProduct fetches a product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (editor.Product, error) {
	var w productWire
	if err := c.getJSON(ctx, "/api/products/"+url.PathEscape(id), nil, &w); err != nil {
		return editor.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return w.toProduct(), nil
}

// UploadImages posts files as repeated "image" parts and returns the stored
// references in upload order.
func (c *Client) UploadImages(ctx context.Context, files []editor.ImageFile) ([]string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreatePart(filePartHeader("image", f))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, "/cloudinary/upload", nil, body, writer.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	refs, err := decodeUploadRefs(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("upload images: %w", err)
	}
	if len(refs) != len(files) {
		c.logger.Warn("upload returned unexpected reference count",
			slog.Int("files", len(files)), slog.Int("refs", len(refs)))
	}
	return refs, nil
}

// UpdateProduct sends the payload as multipart form fields.
func (c *Client) UpdateProduct(ctx context.Context, id string, payload editor.UpdatePayload) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range payloadFields(payload) {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	resp, err := c.send(ctx, http.MethodPut, "/api/products/update/"+url.PathEscape(id), nil, body, writer.FormDataContentType())
	if err != nil {
		return fmt.Errorf("update product %s: %w", id, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// DeleteImage removes a stored image by reference.
func (c *Client) DeleteImage(ctx context.Context, ref string) error {
	q := url.Values{"ref": []string{ref}}
	resp, err := c.send(ctx, http.MethodDelete, "/cloudinary/delete", q, nil, "")
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// getJSON retries transport failures and 5xx responses; reads are idempotent.
func (c *Client) getJSON(ctx context.Context, path string, q url.Values, dst any) error {
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		resp, err := c.send(ctx, http.MethodGet, path, q, nil, "")
		if err != nil {
			if retryable(ctx, err) {
				c.logger.Warn("catalog read retry", slog.String("path", path), slog.Any("error", err))
				return retry.RetryableError(err)
			}
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("catalog request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	return resp, nil
}

func filePartHeader(field string, f editor.ImageFile) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, escapeQuotes(f.Name)))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
