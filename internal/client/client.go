// internal/client/client.go
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/naksh1414/Kata-library-Management-System/internal/analytics"
	"github.com/naksh1414/Kata-library-Management-System/internal/catalog"
	"github.com/naksh1414/Kata-library-Management-System/internal/errs"
	"github.com/naksh1414/Kata-library-Management-System/internal/history"
	"github.com/naksh1414/Kata-library-Management-System/internal/library"
	"github.com/naksh1414/Kata-library-Management-System/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a non-2xx response. It unwraps to the errs sentinel named by
// the server, so errors.Is works across the wire.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("library api: %d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return errs.FromKind(e.Kind)
}

// Client talks to a library server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) AddBook(ctx context.Context, key, title, author string, year int) (catalog.Book, error) {
	var book catalog.Book
	req := library.BookRequest{Key: key, Title: title, Author: author, Year: year}
	err := c.do(ctx, http.MethodPost, "/books", req, &book)
	return book, err
}

func (c *Client) AddBookWithCategory(ctx context.Context, key, title, author string, year int, category string) (catalog.Book, error) {
	var book catalog.Book
	req := library.BookRequest{Key: key, Title: title, Author: author, Year: year, Category: category}
	err := c.do(ctx, http.MethodPost, "/books/with-category", req, &book)
	return book, err
}

func (c *Client) GetBook(ctx context.Context, key string) (catalog.Book, error) {
	var book catalog.Book
	err := c.do(ctx, http.MethodGet, "/books/"+url.PathEscape(key), nil, &book)
	return book, err
}

func (c *Client) DeleteBook(ctx context.Context, key string) (bool, error) {
	var out struct {
		Deleted bool `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/books/"+url.PathEscape(key), nil, &out)
	return out.Deleted, err
}

func (c *Client) Borrow(ctx context.Context, key, actor string) (catalog.Book, error) {
	var book catalog.Book
	err := c.do(ctx, http.MethodPost, "/books/"+url.PathEscape(key)+"/borrow", library.LendRequest{Actor: actor}, &book)
	return book, err
}

func (c *Client) Return(ctx context.Context, key, actor string) (catalog.Book, error) {
	var book catalog.Book
	err := c.do(ctx, http.MethodPost, "/books/"+url.PathEscape(key)+"/return", library.LendRequest{Actor: actor}, &book)
	return book, err
}

func (c *Client) Available(ctx context.Context) ([]catalog.Book, error) {
	var books []catalog.Book
	err := c.do(ctx, http.MethodGet, "/books/available", nil, &books)
	return books, err
}

func (c *Client) Search(ctx context.Context, query string) ([]catalog.Book, error) {
	var books []catalog.Book
	err := c.do(ctx, http.MethodGet, "/books/search?q="+url.QueryEscape(query), nil, &books)
	return books, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var labels []string
	err := c.do(ctx, http.MethodGet, "/categories", nil, &labels)
	return labels, err
}

func (c *Client) ByCategory(ctx context.Context, label string) ([]catalog.Book, error) {
	var books []catalog.Book
	err := c.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(label)+"/books", nil, &books)
	return books, err
}

func (c *Client) History(ctx context.Context, actor string) ([]history.Event, error) {
	var events []history.Event
	err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(actor), nil, &events)
	return events, err
}

func (c *Client) Analytics(ctx context.Context) (analytics.Result, error) {
	var res analytics.Result
	err := c.do(ctx, http.MethodGet, "/analytics", nil, &res)
	return res, err
}

func (c *Client) Metrics(ctx context.Context) (metrics.Snapshot, error) {
	var snap metrics.Snapshot
	err := c.do(ctx, http.MethodGet, "/metrics", nil, &snap)
	return snap, err
}

// ExportSnapshot returns the raw snapshot document.
func (c *Client) ExportSnapshot(ctx context.Context) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/snapshot", http.NoBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// ImportSnapshot uploads a raw snapshot document.
func (c *Client) ImportSnapshot(ctx context.Context, data []byte) error {
	resp, err := c.send(ctx, http.MethodPut, "/snapshot", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode, Kind: errs.KindInternal}
	var body library.ErrorResponse
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &body); err == nil && body.Kind != "" {
		apiErr.Kind = body.Kind
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
