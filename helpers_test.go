package folio_test

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/folio"
)

var testNow = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

// memDocs is an in-memory DocumentStore.
type memDocs struct {
	mu     sync.Mutex
	data   map[string][]byte
	opts   map[string]folio.PutOptions
	gets   int
	puts   int
	getErr error
	putErr error
}

func newMemDocs() *memDocs {
	return &memDocs{
		data: make(map[string][]byte),
		opts: make(map[string]folio.PutOptions),
	}
}

func (m *memDocs) Get(_ context.Context, name string, _ folio.GetOptions) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[name]
	if !ok {
		return nil, folio.ErrNotFound
	}
	return slices.Clone(data), nil
}

func (m *memDocs) Put(_ context.Context, name string, body []byte, opts folio.PutOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.data[name] = slices.Clone(body)
	m.opts[name] = opts
	return nil
}

func (m *memDocs) set(t *testing.T, name string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = data
}

func (m *memDocs) decode(t *testing.T, name string, v any) {
	t.Helper()
	m.mu.Lock()
	data, ok := m.data[name]
	m.mu.Unlock()
	require.True(t, ok, "document %s was never written", name)
	require.NoError(t, json.Unmarshal(data, v))
}

type SpySigner struct {
	mock.Mock
}

func (s *SpySigner) SignURL(ctx context.Context, req folio.SignRequest) (folio.SignedURL, error) {
	args := s.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, folio.SignRequest) folio.SignedURL); ok {
		return fn(ctx, req), args.Error(1)
	}
	return args.Get(0).(folio.SignedURL), args.Error(1)
}

func (s *SpySigner) PublicURL(objectName string) string {
	args := s.Called(objectName)
	return args.String(0)
}

func (s *SpySigner) ObjectName(rawURL string) (string, bool) {
	args := s.Called(rawURL)
	return args.String(0), args.Bool(1)
}

type SpyProber struct {
	mock.Mock
}

func (s *SpyProber) Probe(ctx context.Context, rawURL string) (folio.ProbeResult, error) {
	args := s.Called(ctx, rawURL)
	return args.Get(0).(folio.ProbeResult), args.Error(1)
}

type SpyDeleter struct {
	mock.Mock
}

func (s *SpyDeleter) Delete(ctx context.Context, name string) error {
	args := s.Called(ctx, name)
	return args.Error(0)
}

// prefixResolver maps URLs under its prefix to object names.
type prefixResolver string

func (p prefixResolver) ObjectName(rawURL string) (string, bool) {
	return strings.CutPrefix(rawURL, string(p))
}

const cdn = prefixResolver("https://cdn.example.com/media/")

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newStore(t *testing.T, docs folio.DocumentStore, cfg folio.StoreConfig) *folio.Store {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	store, err := folio.NewStore(docs, cdn, cfg)
	require.NoError(t, err)
	return store
}

type serviceDeps struct {
	signer  folio.Signer
	objects folio.ObjectDeleter
	prober  folio.Prober
	cfg     folio.ServiceConfig
}

func newService(t *testing.T, docs folio.DocumentStore, deps serviceDeps) *folio.Service {
	t.Helper()
	cfg := deps.cfg
	cfg.Now = func() time.Time { return testNow }
	cfg.NewID = sequentialIDs()
	return folio.NewService(newStore(t, docs, folio.StoreConfig{}), deps.signer, deps.objects, deps.prober, cfg)
}

func galleryItem(id, createdAt string) folio.GalleryItem {
	return folio.GalleryItem{
		ID:         id,
		Title:      "Item " + id,
		Tags:       []string{},
		ImageURL:   string(cdn) + "gallery/" + id + ".jpg",
		ObjectPath: "gallery/" + id + ".jpg",
		CreatedAt:  createdAt,
	}
}
