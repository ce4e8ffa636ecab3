package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/usecase"
	platformhttp "chart_backend/internal/platform/http"
	"chart_backend/internal/shared/ratelimiter"
)

// Loader opens local files or downloads http(s) URLs as upload inputs.
type Loader struct {
	Client   *http.Client
	Limiter  ratelimiter.Limiter
	MaxBytes int64
}

// isURL reports whether src is an absolute http or https URL.
func isURL(src string) bool {
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load returns src as an UploadInput. The returned close function must be called.
func (l *Loader) Load(ctx context.Context, src string) (usecase.UploadInput, func(), error) {
	if isURL(src) {
		return l.fetch(ctx, src)
	}

	f, err := os.Open(src)
	if err != nil {
		return usecase.UploadInput{}, nil, fmt.Errorf("open %s: %w", src, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return usecase.UploadInput{}, nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if st.IsDir() {
		_ = f.Close()
		return usecase.UploadInput{}, nil, fmt.Errorf("%s is a directory", src)
	}
	return usecase.UploadInput{
		FileName: filepath.Base(src),
		Size:     st.Size(),
		Body:     f,
	}, func() { _ = f.Close() }, nil
}

func (l *Loader) fetch(ctx context.Context, src string) (usecase.UploadInput, func(), error) {
	if l.Limiter != nil {
		l.Limiter.WaitIfNeeded()
	}
	body, contentType, err := platformhttp.Fetch(ctx, l.Client, src, l.MaxBytes)
	if errors.Is(err, platformhttp.ErrResponseTooLarge) {
		return usecase.UploadInput{}, nil, fmt.Errorf("%s: %w", src, domain.ErrFileTooLarge)
	}
	if err != nil {
		return usecase.UploadInput{}, nil, err
	}

	u, _ := url.Parse(src)
	name := path.Base(u.Path)
	if name == "/" || name == "." {
		name = u.Host
	}
	return usecase.UploadInput{
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}, func() {}, nil
}
