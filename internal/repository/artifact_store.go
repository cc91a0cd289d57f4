package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"UpliftAPI/internal/domain/models"
	domrepo "UpliftAPI/internal/domain/repository"
	xhttp "UpliftAPI/pkg/http"
	applogger "UpliftAPI/pkg/logger"
)

// FileArtifactStore reads artifacts from a local directory.
type FileArtifactStore struct {
	dir string
	l   *applogger.Logger
}

func NewFileArtifactStore(dir string, l *applogger.Logger) *FileArtifactStore {
	return &FileArtifactStore{dir: dir, l: l}
}

func (s *FileArtifactStore) Fetch(ctx context.Context, name string) (*domrepo.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, name)
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	a := newArtifact(name, path, data)
	if s.l != nil {
		s.l.Info("artifact loaded",
			applogger.String("source", path),
			applogger.Int("bytes", len(data)),
			applogger.String("sha256", a.Checksum),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return a, nil
}

// HTTPArtifactStore downloads artifacts from {baseURL}/{name}.
type HTTPArtifactStore struct {
	baseURL string
	client  *xhttp.Client
	l       *applogger.Logger
}

func NewHTTPArtifactStore(baseURL string, client *xhttp.Client, l *applogger.Logger) *HTTPArtifactStore {
	return &HTTPArtifactStore{baseURL: strings.TrimRight(baseURL, "/"), client: client, l: l}
}

func (s *HTTPArtifactStore) Fetch(ctx context.Context, name string) (*domrepo.Artifact, error) {
	src := s.baseURL + "/" + url.PathEscape(name)
	start := time.Now()

	data, err := s.client.GetBytes(ctx, src)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", models.ErrArtifactMissing, src)
		}
		if s.l != nil {
			s.l.Error("artifact download failed", applogger.String("source", src), applogger.Error(err))
		}
		return nil, fmt.Errorf("download artifact %s: %w", src, err)
	}

	a := newArtifact(name, src, data)
	if s.l != nil {
		s.l.Info("artifact downloaded",
			applogger.String("source", src),
			applogger.Int("bytes", len(data)),
			applogger.String("sha256", a.Checksum),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return a, nil
}

func newArtifact(name, source string, data []byte) *domrepo.Artifact {
	sum := sha256.Sum256(data)
	return &domrepo.Artifact{
		Name:     name,
		Source:   source,
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
	}
}
