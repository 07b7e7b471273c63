// Package proofs stores payment proof files on local disk and hands back
// opaque references. Requests only ever carry the reference; the file itself
// stays on the operator's box until the cycle is reset.
package proofs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	dErrors "rifa/pkg/domain-errors"
)

const scheme = "proof://"

// maxProofSize caps uploads at 10 MiB.
const maxProofSize = 10 << 20

// Store writes proof files under a single directory with generated names, so
// an uploaded filename can never escape the directory or collide.
type Store struct {
	dir    string
	logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create proof directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save persists one proof upload and returns its reference. The original
// filename only contributes its extension.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	switch ext {
	case ".pdf", ".png", ".jpg", ".jpeg":
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "proof must be a pdf, png or jpeg file")
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create proof file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, maxProofSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write proof file: %w", err)
	}
	if n > maxProofSize {
		_ = os.Remove(path)
		return "", dErrors.New(dErrors.CodeInvalidInput, "proof file exceeds the 10 MiB limit")
	}
	if n == 0 {
		_ = os.Remove(path)
		return "", dErrors.New(dErrors.CodeInvalidInput, "proof file is empty")
	}

	s.logger.InfoContext(ctx, "proof stored", "proof_ref", scheme+name, "bytes", n)
	return scheme + name, nil
}

// Delete removes a stored proof. A reference this store did not issue, or one
// already removed, is not an error: reset cleanup must be idempotent.
func (s *Store) Delete(_ context.Context, uri string) error {
	name, ok := strings.CutPrefix(uri, scheme)
	if !ok {
		return nil
	}
	// filepath.Base strips any path components a tampered reference may carry.
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove proof file: %w", err)
	}
	return nil
}
