package ragapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"study-assistant/internal/logger"
)

// Backend routes
const (
	pathAsk    = "/api/rag/ask"
	pathInitDB = "/api/rag/init-db"
	pathAddPDF = "/api/rag/add-pdf"
	pathHealth = "/"
)

// maxErrorBody bounds how much of an error response is read for its detail.
const maxErrorBody = 64 * 1024

var (
	// ErrEmptyQuestion is returned by Ask before any request is made.
	ErrEmptyQuestion = errors.New("question cannot be empty")
	// ErrNoDocuments is returned by InitKnowledgeBase and AddDocuments before any request is made.
	ErrNoDocuments = errors.New("at least one document path is required")
)

// Client handles communication with the Study Assistant backend
type Client struct {
	baseURL       string
	httpClient    *http.Client
	timeout       time.Duration
	healthTimeout time.Duration
}

// NewClient creates a new backend client. timeout bounds every call;
// healthTimeout additionally bounds CheckHealth.
func NewClient(baseURL string, timeout, healthTimeout time.Duration) *Client {
	if healthTimeout <= 0 || healthTimeout > timeout {
		healthTimeout = timeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout:       timeout,
		healthTimeout: healthTimeout,
	}
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask sends a question and returns the answer with its cited sources
func (c *Client) Ask(ctx context.Context, question string) (*AskResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	var resp AskResponse
	if err := c.postJSON(ctx, pathAsk, AskRequest{Question: question}, &resp); err != nil {
		return nil, err
	}
	if resp.Sources == nil {
		resp.Sources = []SourceDocument{}
	}
	return &resp, nil
}

// InitKnowledgeBase creates the knowledge base from the given PDFs
func (c *Client) InitKnowledgeBase(ctx context.Context, pdfPaths []string) (*InitResponse, error) {
	if len(pdfPaths) == 0 {
		return nil, ErrNoDocuments
	}

	var resp InitResponse
	if err := c.postJSON(ctx, pathInitDB, DocumentsRequest{PDFPaths: pdfPaths}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AddDocuments adds PDFs to an existing knowledge base
func (c *Client) AddDocuments(ctx context.Context, pdfPaths []string) (*AddResponse, error) {
	if len(pdfPaths) == 0 {
		return nil, ErrNoDocuments
	}

	var resp AddResponse
	if err := c.postJSON(ctx, pathAddPDF, DocumentsRequest{PDFPaths: pdfPaths}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CheckHealth reports whether the backend root answers with a 2xx status.
// Failures are logged and reduced to false.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, nil)
	if err != nil {
		logger.Log.Warn("health check request could not be built", "url", c.baseURL, "error", err)
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Log.Warn("health check failed", "url", c.baseURL, "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Log.Warn("health check failed", "url", c.baseURL, "status", resp.StatusCode)
		return false
	}
	return true
}

// postJSON sends body to path and decodes a 2xx response into out
func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	start := time.Now()

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		apiErr := transportError(err)
		logger.Log.Warn("request failed", "path", path, "kind", apiErr.Kind, "duration", time.Since(start), "error", err)
		return apiErr
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(resp.StatusCode, readDetail(resp.Body))
		logger.Log.Warn("backend returned error", "path", path, "status", resp.StatusCode, "kind", apiErr.Kind, "detail", apiErr.Detail)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		apiErr := transportError(fmt.Errorf("failed to parse response: %w", err))
		logger.Log.Warn("response could not be decoded", "path", path, "kind", apiErr.Kind, "error", err)
		return apiErr
	}

	logger.Log.Debug("request completed", "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	return nil
}

// readDetail extracts the backend's "detail" message, falling back to the raw body
func readDetail(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Detail != "" {
		return eb.Detail
	}
	return strings.TrimSpace(string(data))
}
