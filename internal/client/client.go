// Package client talks to the workspace server over HTTP. It implements the
// Remote collaborator and the ForestSource used to open a session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	models "idealite/internal/domain/models/workspace"
	svc "idealite/internal/domain/services/workspace"
)

const (
	// DefaultTimeout bounds every request when no timeout is configured
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response body is read
	maxBodySize = 32 << 20
)

var (
	_ svc.Remote       = (*Client)(nil)
	_ svc.ForestSource = (*Client)(nil)
)

// Client is the HTTP implementation of svc.Remote.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	// concurrent tree loads share one request
	loads singleflight.Group
}

// New creates a client for the server at baseURL. token is sent as a Bearer
// credential when non-empty.
func New(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NewWithHTTPClient creates a client that sends through hc.
func NewWithHTTPClient(baseURL, token string, hc *http.Client, logger *slog.Logger) *Client {
	c := New(baseURL, token, 0, logger)
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

func (c *Client) CreatePage(ctx context.Context, req *svc.CreatePageRequest) (*svc.MutationResponse, error) {
	return c.mutate(ctx, "/api/pages", req)
}

func (c *Client) CreateFolder(ctx context.Context, req *svc.CreateFolderRequest) (*svc.MutationResponse, error) {
	return c.mutate(ctx, "/api/folders", req)
}

func (c *Client) DeleteTag(ctx context.Context, req *svc.DeleteTagRequest) (*svc.MutationResponse, error) {
	return c.mutate(ctx, "/api/tags/"+url.PathEscape(req.TagID)+"/delete", nil)
}

func (c *Client) MovePage(ctx context.Context, req *svc.MovePageRequest) (*svc.MutationResponse, error) {
	return c.mutate(ctx, "/api/pages/"+url.PathEscape(req.PageID)+"/move", req)
}

func (c *Client) SetCollapsed(ctx context.Context, req *svc.SetCollapsedRequest) (*svc.MutationResponse, error) {
	return c.mutate(ctx, "/api/collapsed", req)
}

// FetchForest loads the caller's forest. Concurrent callers share a single
// request; each gets its own copy of the result. The shared request is not
// bound to any one caller's cancellation: a caller whose ctx ends stops
// waiting, the others still get the tree.
func (c *Client) FetchForest(ctx context.Context) (*models.Forest, error) {
	ch := c.loads.DoChan("tree", func() (interface{}, error) {
		return c.fetchTree(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		forest := res.Val.(*svc.TreeResponse).Forest
		if res.Shared {
			return forest.Clone(), nil
		}
		return forest, nil
	}
}

// FetchTree returns the server's forest and nested view.
func (c *Client) FetchTree(ctx context.Context) (*svc.TreeResponse, error) {
	return c.fetchTree(ctx)
}

func (c *Client) fetchTree(ctx context.Context) (*svc.TreeResponse, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/workspace/tree", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("tree request failed (status %d): %s", status, failureText(status, body))
	}

	var tree svc.TreeResponse
	if err := json.Unmarshal(body, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	tree.Forest = normalizeForest(tree.Forest)
	return &tree, nil
}

// mutate posts payload and converts the reply into a MutationResponse. A
// non-2xx status is a server-reported failure, not a transport error.
func (c *Client) mutate(ctx context.Context, path string, payload interface{}) (*svc.MutationResponse, error) {
	status, body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		c.logger.Debug("remote rejected mutation", "path", path, "status", status)
		return &svc.MutationResponse{Success: false, Error: failureText(status, body)}, nil
	}

	var resp svc.MutationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// failureBody covers both the mutation wire shape and problem details.
type failureBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func failureText(status int, body []byte) string {
	var fb failureBody
	if err := json.Unmarshal(body, &fb); err == nil {
		if fb.Error != "" {
			return fb.Error
		}
		if fb.Detail != "" {
			return fb.Detail
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		return text
	}
	return http.StatusText(status)
}

// normalizeForest makes a decoded forest safe to mutate.
func normalizeForest(f *models.Forest) *models.Forest {
	if f == nil {
		return models.NewForest()
	}
	if f.RootIDs == nil {
		f.RootIDs = []string{}
	}
	if f.Tags == nil {
		f.Tags = make(map[string]*models.Tag)
	}
	if f.Folders == nil {
		f.Folders = make(map[string]*models.Folder)
	}
	if f.Pages == nil {
		f.Pages = make(map[string]*models.Page)
	}
	return f
}
