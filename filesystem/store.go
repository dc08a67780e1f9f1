// Package filesystem stores index documents and uploaded objects on local
// disk. Writes are atomic (temp file plus rename) so readers never observe a
// partially written index, and every path is resolved inside an os.Root.
package filesystem

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sagarc03/folio"
)

// Store implements folio.DocumentStore and folio.ObjectDeleter on a directory.
type Store struct {
	root *os.Root
}

// NewStore creates a Store over root. The root provides sandboxed file
// operations preventing path traversal.
func NewStore(root *os.Root) *Store {
	return &Store{root: root}
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size        int64
	ModTime     time.Time
	ContentType string
	ETag        string
}

// WriteResult is returned by Write.
type WriteResult struct {
	BytesWritten int64
	ETag         string
}

// Open opens an object for reading. Returns folio.ErrNotFound if it does not
// exist. The ETag is left empty; computing it would mean reading the file twice.
func (s *Store) Open(ctx context.Context, name string) (io.ReadSeekCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	if !folio.IsValidObjectName(name) {
		return nil, ObjectInfo{}, folio.Invalid("invalid object name")
	}

	f, err := s.root.Open(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ObjectInfo{}, fmt.Errorf("open %s: %w", name, folio.ErrNotFound)
		}
		return nil, ObjectInfo{}, fmt.Errorf("open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("open %s: %w", name, folio.ErrNotFound)
	}

	return f, ObjectInfo{
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: detectContentType(name),
	}, nil
}

// Get reads a whole document. Every read goes to disk, so Fresh needs no
// special handling.
func (s *Store) Get(ctx context.Context, name string, _ folio.GetOptions) ([]byte, error) {
	f, _, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Put atomically replaces a document. Cache headers and signing expiry have
// no meaning on disk and are ignored.
func (s *Store) Put(ctx context.Context, name string, body []byte, _ folio.PutOptions) error {
	if _, err := s.Write(ctx, name, bytes.NewReader(body)); err != nil {
		return err
	}
	return nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to name using a temp file and rename,
// creating intermediate directories as needed. The returned ETag is the hex
// SHA-256 of the content.
func (s *Store) Write(ctx context.Context, name string, content io.Reader) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}
	if !folio.IsValidObjectName(name) {
		return WriteResult{}, folio.Invalid("invalid object name")
	}

	tmpFile := tmpFileName()
	t, err := s.root.Create(tmpFile)
	if err != nil {
		return WriteResult{}, fmt.Errorf("write %s: open temp file: %w", name, err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(h, t), &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return WriteResult{}, fmt.Errorf("write %s: copy contents: %w", name, err)
	}

	if err := t.Sync(); err != nil {
		return WriteResult{}, fmt.Errorf("write %s: sync: %w", name, err)
	}

	if dir := filepath.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return WriteResult{}, fmt.Errorf("write %s: create directories: %w", name, err)
		}
	}

	if err := s.root.Rename(tmpFile, name); err != nil {
		return WriteResult{}, fmt.Errorf("write %s: rename: %w", name, err)
	}

	success = true
	return WriteResult{BytesWritten: n, ETag: hex.EncodeToString(h.Sum(nil))}, nil
}

// Delete removes an object. Returns folio.ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !folio.IsValidObjectName(name) {
		return folio.Invalid("invalid object name")
	}

	if err := s.root.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", name, folio.ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

func detectContentType(name string) string {
	if contentType := mime.TypeByExtension(filepath.Ext(name)); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
