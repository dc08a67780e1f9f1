package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"

	"github.com/sagarc03/folio"
	"github.com/sagarc03/folio/config"
	"github.com/sagarc03/folio/database"
	"github.com/sagarc03/folio/filesystem"
	"github.com/sagarc03/folio/objectstore"
	"github.com/sagarc03/folio/signer"
)

// app holds the backends built from one Config. Close releases them.
type app struct {
	cfg     *config.Config
	signer  folio.Signer
	objects *filesystem.Store // set when storage.type is filesystem
	store   *folio.Store
	service *folio.Service

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Storage.Type == "filesystem" {
		a.objects, err = a.openFilesystem(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
	}

	a.signer, err = newSigner(ctx, cfg)
	if err != nil {
		return nil, err
	}

	docs, err := a.openDocuments(ctx)
	if err != nil {
		return nil, err
	}

	var (
		resolver folio.ObjectResolver
		deleter  folio.ObjectDeleter
	)
	switch {
	case a.objects != nil:
		deleter = a.objects
	case a.signer != nil:
		deleter = objectstore.New(a.signer)
	}
	if a.signer != nil {
		resolver = a.signer
	}

	a.store, err = folio.NewStore(docs, resolver, folio.StoreConfig{
		Source:            cfg.ContentSource(),
		CacheTTL:          cfg.Content.CacheTTL,
		AnalyticsCacheTTL: cfg.Content.AnalyticsCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	a.service = folio.NewService(a.store, a.signer, deleter, objectstore.NewProber(nil), folio.ServiceConfig{
		ValidateImages: cfg.Content.ValidateImages,
		ProbeTimeout:   cfg.Content.ProbeTimeout,
	})

	slog.Info("content backend ready",
		"storage", cfg.Storage.Type,
		"documents", cfg.Documents.Type,
		"source", cfg.Content.Source,
		"signing", a.signer != nil)

	return a, nil
}

// Close releases database connections and directory handles.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newSigner builds the storage signer. Missing credentials are not fatal:
// reads keep working from the fallback dataset and writes answer
// "not configured".
func newSigner(ctx context.Context, cfg *config.Config) (folio.Signer, error) {
	storage := cfg.Storage
	if storage.Type == "filesystem" {
		opts := maps.Clone(storage.Options)
		if opts == nil {
			opts = map[string]any{}
		}
		if _, ok := opts["endpoint"]; !ok {
			opts["endpoint"] = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		}
		storage.Options = opts
	}

	s, err := signer.New(ctx, storage, cfg.Auth.Keys)
	if errors.Is(err, folio.ErrNotConfigured) {
		slog.Warn("storage signing is not configured, writes are disabled", "type", storage.Type, "err", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	return s, nil
}

func (a *app) openFilesystem(path string) (*filesystem.Store, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(path)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}
	a.closers = append(a.closers, func() { _ = root.Close() })

	return filesystem.NewStore(root), nil
}

// openDocuments returns the DocumentStore selected by documents.type, or nil
// when the object backend has no signer.
func (a *app) openDocuments(ctx context.Context) (folio.DocumentStore, error) {
	cfg := a.cfg.Documents

	switch {
	case cfg.Type == "object":
		if a.signer == nil {
			return nil, nil
		}
		return objectstore.New(a.signer), nil

	case cfg.Type == "filesystem":
		if a.objects != nil && (cfg.DSN == "" || samePath(cfg.DSN, a.cfg.Storage.Path)) {
			return a.objects, nil
		}
		path := cfg.DSN
		if path == "" {
			path = a.cfg.Storage.Path
		}
		docs, err := a.openFilesystem(path)
		if err != nil {
			return nil, err
		}
		return docs, nil

	case database.IsDatabase(cfg.Type):
		docs, closeDB, err := database.Connect(ctx, cfg.Database())
		if err != nil {
			return nil, fmt.Errorf("connect documents database: %w", err)
		}
		a.closers = append(a.closers, closeDB)
		slog.Info("connected to documents database", "type", cfg.Type)
		return docs, nil

	default:
		return nil, fmt.Errorf("unsupported documents type: %s", cfg.Type)
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
