package clientcli_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/clientcli"
	"github.com/sagarc03/folio/filesystem"
	foliohttp "github.com/sagarc03/folio/http"
	"github.com/sagarc03/folio/keybackend"
	"github.com/sagarc03/folio/objectstore"
	"github.com/sagarc03/folio/signer"
)

const adminToken = "cli-admin-token"

// newFolioServer runs the full API over a temp directory, with the server
// acting as its own object store.
func newFolioServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	var router http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	keys := keybackend.KeysConfig{
		Inline: []keybackend.KeyPair{{AccessKey: "FOLIOKEY", SecretKey: "foliosecret"}},
	}
	sgn, err := signer.New(context.Background(), signer.Config{
		Type:    "filesystem",
		Path:    dir,
		Options: map[string]any{"endpoint": srv.URL},
	}, keys)
	require.NoError(t, err)

	objects := filesystem.NewStore(root)
	store, err := folio.NewStore(objects, sgn, folio.StoreConfig{Source: folio.SourceRemote})
	require.NoError(t, err)
	service := folio.NewService(store, sgn, objects, objectstore.NewProber(srv.Client()), folio.ServiceConfig{})

	secrets, err := keybackend.NewSecretStore(keys)
	require.NoError(t, err)

	router = foliohttp.NewHandler(&foliohttp.HandlerConfig{
		APIPrefix:  "/api",
		AdminToken: keybackend.NewAdminToken(adminToken),
		Objects:    foliohttp.NewObjectHandler(objects, folio.NewSignatureVerifier(secrets)),
	}, service).Router()

	return srv, dir
}

func newClient(t *testing.T, endpoint, token string) *clientcli.Client {
	t.Helper()
	client, err := clientcli.New(&clientcli.Config{Endpoint: endpoint, AdminToken: token})
	require.NoError(t, err)
	return client
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := clientcli.New(nil)
		assert.ErrorIs(t, err, clientcli.ErrConfigRequired)
	})

	t.Run("defaults and trailing slash", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte("[]"))
		}))
		defer srv.Close()

		client := newClient(t, srv.URL+"/", "")
		_, err := client.ListBlogs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/api/blogs", gotPath)
	})

	t.Run("custom prefix", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte("[]"))
		}))
		defer srv.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: srv.URL, APIPrefix: "content/"})
		require.NoError(t, err)
		_, err = client.ListBlogs(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/content/blogs", gotPath)
	})
}

func TestClient_Verify(t *testing.T) {
	srv, _ := newFolioServer(t)

	require.NoError(t, newClient(t, srv.URL, adminToken).Verify(context.Background()))

	err := newClient(t, srv.URL, "wrong").Verify(context.Background())
	require.ErrorIs(t, err, clientcli.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid token")

	err = newClient(t, srv.URL, "").Verify(context.Background())
	assert.ErrorIs(t, err, clientcli.ErrTokenRequired)
}

func TestClient_PublishAndDeleteBlog(t *testing.T) {
	srv, _ := newFolioServer(t)
	client := newClient(t, srv.URL, adminToken)
	ctx := context.Background()

	path := writeFile(t, t.TempDir(), "post.md", "# Shipping Small\n\nFirst paragraph.\n\n## Why\nBecause.\n")

	post, err := client.Publish(ctx, clientcli.PublishOptions{Path: path, Date: "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "shipping-small", post.Slug)
	assert.Equal(t, "2024-05-01", post.Date)
	assert.Equal(t, []folio.ContentBlock{
		{Paragraph: []string{"First paragraph."}},
		{Heading: "Why"},
		{Paragraph: []string{"Because."}},
	}, post.Content)

	got, err := client.GetBlog(ctx, "shipping-small")
	require.NoError(t, err)
	assert.Equal(t, "Shipping Small", got.Title)

	results, err := client.Delete(ctx, clientcli.DeleteOptions{
		Kind:    clientcli.KindBlog,
		Targets: []string{"shipping-small", "never-written"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Deleted)
	assert.False(t, results[1].Deleted)
	assert.ErrorIs(t, results[1].Err, clientcli.ErrNotFound)
	assert.True(t, clientcli.HasDeleteErrors(results))
}

func TestClient_PublishErrors(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1", adminToken)
	dir := t.TempDir()

	_, err := client.Publish(context.Background(), clientcli.PublishOptions{})
	assert.ErrorIs(t, err, clientcli.ErrEmptyPath)

	untitled := writeFile(t, dir, "untitled.md", "no heading here\n")
	_, err = client.Publish(context.Background(), clientcli.PublishOptions{Path: untitled})
	assert.ErrorIs(t, err, clientcli.ErrEmptyTitle)
}

func TestClient_UploadAndDeleteGallery(t *testing.T) {
	srv, dataDir := newFolioServer(t)
	client := newClient(t, srv.URL, adminToken)
	ctx := context.Background()

	src := t.TempDir()
	sunset := writeFile(t, src, "sunset_over-lake.jpg", "jpeg one")
	harbor := writeFile(t, src, "harbor.png", "png two")

	results, err := client.Upload(ctx, clientcli.UploadOptions{
		Paths: []string{sunset, harbor},
		Tags:  []string{"travel"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.False(t, clientcli.HasUploadErrors(results))

	for _, r := range results {
		require.NotNil(t, r.Item, r.LocalPath)
		assert.Equal(t, []string{"travel"}, r.Item.Tags)
		assert.Equal(t, r.PublicURL, r.Item.ImageURL)

		_, err := os.Stat(filepath.Join(dataDir, r.ObjectName))
		assert.NoError(t, err, r.ObjectName)
	}
	assert.Equal(t, "sunset over lake", results[0].Item.Title)
	assert.Equal(t, int64(len("jpeg one")), results[0].Size)

	page, err := client.ListGallery(ctx, clientcli.GalleryQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = client.ListGallery(ctx, clientcli.GalleryQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasMore)

	deleted, err := client.Delete(ctx, clientcli.DeleteOptions{
		Kind:    clientcli.KindGallery,
		Targets: []string{results[0].Item.ID},
	})
	require.NoError(t, err)
	assert.False(t, clientcli.HasDeleteErrors(deleted))

	_, err = os.Stat(filepath.Join(dataDir, results[0].ObjectName))
	assert.True(t, os.IsNotExist(err))
}

func TestClient_UploadRejectedToken(t *testing.T) {
	srv, _ := newFolioServer(t)
	client := newClient(t, srv.URL, "wrong")

	path := writeFile(t, t.TempDir(), "a.jpg", "data")
	_, err := client.Upload(context.Background(), clientcli.UploadOptions{Paths: []string{path}})
	assert.ErrorIs(t, err, clientcli.ErrUnauthorized)
}

func TestClient_UploadFailedPutIsNotConfirmed(t *testing.T) {
	var confirmed bool
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/gallery/multi-upload":
			assert.Equal(t, adminToken, r.Header.Get("x-admin-token"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"uploads": []map[string]any{{
					"id":         "u1",
					"uploadUrl":  srv.URL + "/bucket/gallery/u1.jpg",
					"publicUrl":  srv.URL + "/bucket/gallery/u1.jpg",
					"objectName": "gallery/u1.jpg",
				}},
			})
		case r.Method == http.MethodPut && r.URL.Path == "/bucket/gallery/u1.jpg":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`<Error>SignatureDoesNotMatch</Error>`))
		case r.Method == http.MethodPut:
			confirmed = true
		}
	}))
	defer srv.Close()

	path := writeFile(t, t.TempDir(), "a.jpg", "data")
	results, err := newClient(t, srv.URL, adminToken).Upload(context.Background(), clientcli.UploadOptions{Paths: []string{path}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, clientcli.ErrForbidden)
	assert.False(t, confirmed)
}

func TestClient_DeleteErrors(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1", adminToken)

	_, err := client.Delete(context.Background(), clientcli.DeleteOptions{Kind: clientcli.KindBlog})
	assert.ErrorIs(t, err, clientcli.ErrNoTargets)

	_, err = client.Delete(context.Background(), clientcli.DeleteOptions{Kind: "video", Targets: []string{"x"}})
	assert.ErrorIs(t, err, clientcli.ErrUnknownKind)
}

func TestClient_Analytics(t *testing.T) {
	srv, _ := newFolioServer(t)

	data, err := newClient(t, srv.URL, "").Analytics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, data.TotalViews)
	assert.NotNil(t, data.Pages)
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		title string
		body  string
	}{
		{name: "heading", in: "# Title\nbody", title: "Title", body: "body"},
		{name: "leading blank lines", in: "\n\n#  Spaced  \r\n\r\nbody\n", title: "Spaced", body: "body\n"},
		{name: "no heading", in: "intro\n# Later", title: "", body: "intro\n# Later"},
		{name: "subheading is not a title", in: "## Section\nbody", title: "", body: "## Section\nbody"},
		{name: "title only", in: "# Only", title: "Only", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := clientcli.SplitTitle(tt.in)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestTitleFromFilename(t *testing.T) {
	assert.Equal(t, "sunset over lake", clientcli.TitleFromFilename("/tmp/sunset_over-lake.jpg"))
	assert.Equal(t, "IMG 0042", clientcli.TitleFromFilename("IMG_0042.JPG"))
}

func TestAPIError(t *testing.T) {
	err := &clientcli.APIError{StatusCode: http.StatusNotFound, Message: "Blog post not found"}
	assert.ErrorIs(t, err, clientcli.ErrNotFound)
	assert.NotErrorIs(t, err, clientcli.ErrUnauthorized)
	assert.Equal(t, "server error: 404 - Blog post not found", err.Error())
}
