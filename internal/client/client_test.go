package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "idealite/internal/domain/models/workspace"
	svc "idealite/internal/domain/services/workspace"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestClient_CreatePage(t *testing.T) {
	srv, reqs := newServer(t, http.StatusCreated, `{"success":true,"id":"p1"}`)
	c := New(srv.URL+"/", "token-1", time.Second, nil)

	folder := "f1"
	resp, err := c.CreatePage(context.Background(), &svc.CreatePageRequest{
		ID:        "p1",
		Title:     "untitled",
		Kind:      models.PageKindCanvas,
		TagID:     "t1",
		FolderID:  &folder,
		Hierarchy: []string{"t0", "t1"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "p1", resp.ID)

	require.Len(t, *reqs, 1)
	got := (*reqs)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/pages", got.path)
	assert.Equal(t, "Bearer token-1", got.auth)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(got.body, &payload))
	assert.Equal(t, "p1", payload["id"])
	assert.Equal(t, "canvas", payload["kind"])
	assert.Equal(t, "f1", payload["folder_id"])
	assert.Equal(t, []interface{}{"t0", "t1"}, payload["hierarchy"])
}

func TestClient_Paths(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) (*svc.MutationResponse, error)
		path string
	}{
		{
			name: "create folder",
			call: func(c *Client) (*svc.MutationResponse, error) {
				return c.CreateFolder(context.Background(), &svc.CreateFolderRequest{ID: "f1", Name: "untitled", TagID: "t1"})
			},
			path: "/api/folders",
		},
		{
			name: "delete tag",
			call: func(c *Client) (*svc.MutationResponse, error) {
				return c.DeleteTag(context.Background(), &svc.DeleteTagRequest{TagID: "t1"})
			},
			path: "/api/tags/t1/delete",
		},
		{
			name: "move page",
			call: func(c *Client) (*svc.MutationResponse, error) {
				return c.MovePage(context.Background(), &svc.MovePageRequest{PageID: "p1", DestinationTagID: "t2"})
			},
			path: "/api/pages/p1/move",
		},
		{
			name: "set collapsed",
			call: func(c *Client) (*svc.MutationResponse, error) {
				return c.SetCollapsed(context.Background(), &svc.SetCollapsedRequest{Kind: models.NodeKindTag, ID: "t1", Collapsed: true})
			},
			path: "/api/collapsed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, reqs := newServer(t, http.StatusOK, `{"success":true}`)
			c := New(srv.URL, "", time.Second, nil)

			resp, err := tt.call(c)
			require.NoError(t, err)
			assert.True(t, resp.Success)
			require.Len(t, *reqs, 1)
			assert.Equal(t, tt.path, (*reqs)[0].path)
			assert.Empty(t, (*reqs)[0].auth)
		})
	}
}

func TestClient_MovePageOmitsPageIDFromBody(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"success":true,"id":"p1"}`)
	c := New(srv.URL, "", time.Second, nil)

	_, err := c.MovePage(context.Background(), &svc.MovePageRequest{PageID: "p1", DestinationTagID: "t2"})
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal((*reqs)[0].body, &payload))
	assert.Equal(t, "t2", payload["destination_tag_id"])
	assert.Nil(t, payload["destination_folder_id"])
	_, hasPageID := payload["page_id"]
	assert.False(t, hasPageID)
}

func TestClient_ServerFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		want   string
	}{
		{"wire failure", http.StatusUnprocessableEntity, `{"success":false,"error":"invalid destination"}`, "invalid destination"},
		{"problem details", http.StatusUnauthorized, `{"type":"about:blank","status":401,"detail":"missing token"}`, "missing token"},
		{"plain text", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"empty body", http.StatusServiceUnavailable, ``, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.reply)
			c := New(srv.URL, "", time.Second, nil)

			resp, err := c.DeleteTag(context.Background(), &svc.DeleteTagRequest{TagID: "t1"})
			require.NoError(t, err)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestClient_SuccessStatusWithFailureBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"success":false,"error":"nope"}`)
	c := New(srv.URL, "", time.Second, nil)

	resp, err := c.SetCollapsed(context.Background(), &svc.SetCollapsedRequest{Kind: models.NodeKindFolder, ID: "f1"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "nope", resp.Error)
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `not json`)
	c := New(srv.URL, "", time.Second, nil)

	_, err := c.CreateFolder(context.Background(), &svc.CreateFolderRequest{ID: "f1", TagID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestClient_TransportFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	srv.Close()
	c := New(srv.URL, "", time.Second, nil)

	_, err := c.DeleteTag(context.Background(), &svc.DeleteTagRequest{TagID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_ContextCanceled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"success":true}`)
	c := New(srv.URL, "", time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.DeleteTag(ctx, &svc.DeleteTagRequest{TagID: "t1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClient_FetchForest(t *testing.T) {
	tags := []models.Tag{{ID: "root", Name: "root"}, {ID: "child", Name: "child", ParentID: strPtr("root")}}
	pages := []models.Page{{ID: "p1", Title: "one", Kind: models.PageKindPage, PrimaryTagID: "child", Hierarchy: []string{"root", "child"}}}
	forest := models.NewForestFrom(tags, nil, pages)
	payload, err := json.Marshal(svc.TreeResponse{Forest: forest})
	require.NoError(t, err)

	srv, reqs := newServer(t, http.StatusOK, string(payload))
	c := New(srv.URL, "tok", time.Second, nil)

	got, err := c.FetchForest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, got.RootIDs)
	child, ok := got.Tag("child")
	require.True(t, ok)
	assert.Equal(t, []string{"p1"}, child.PageIDs)
	assert.Equal(t, "/api/workspace/tree", (*reqs)[0].path)
	assert.Equal(t, http.MethodGet, (*reqs)[0].method)
}

func TestClient_FetchForestEmptyBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{}`)
	c := New(srv.URL, "", time.Second, nil)

	got, err := c.FetchForest(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got.Tags)
	assert.NotNil(t, got.Folders)
	assert.NotNil(t, got.Pages)
	assert.Empty(t, got.RootIDs)
}

func TestClient_FetchForestFailure(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"detail":"invalid token"}`)
	c := New(srv.URL, "", time.Second, nil)

	_, err := c.FetchForest(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "invalid token")
}

func TestClient_FetchForestSharesConcurrentLoads(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"forest":{"roots":["t1"],"tags":{"t1":{"id":"t1","name":"one"}},"folders":{},"pages":{}}}`))
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, "", 5*time.Second, nil)

	const callers = 4
	results := make([]*models.Forest, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := c.FetchForest(context.Background())
			assert.NoError(t, err)
			results[i] = f
		}(i)
	}

	require.Eventually(t, func() bool { return hits.Load() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, f := range results {
		require.NotNil(t, f)
		_, ok := f.Tag("t1")
		assert.True(t, ok)
	}
	// shared results are independent copies
	results[0].Tags["t1"].Name = "changed"
	assert.Equal(t, "one", results[1].Tags["t1"].Name)
}

func TestClient_FetchForestSurvivesFirstCallerCancel(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"forest":{"roots":["t1"],"tags":{"t1":{"id":"t1","name":"one"}},"folders":{},"pages":{}}}`))
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, "", 5*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.FetchForest(ctx)
		first <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan *models.Forest, 1)
	go func() {
		f, err := c.FetchForest(context.Background())
		assert.NoError(t, err)
		second <- f
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-first, context.Canceled)

	close(release)
	f := <-second
	require.NotNil(t, f)
	_, ok := f.Tag("t1")
	assert.True(t, ok)
	assert.Equal(t, int32(1), hits.Load())
}

func strPtr(s string) *string { return &s }
