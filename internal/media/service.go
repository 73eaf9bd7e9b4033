package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/pkg/config"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/logger"
)

// Kind selects the storage bucket for an upload.
type Kind string

const (
	KindAvatar  Kind = "avatars"
	KindProduct Kind = "products"
	KindShop    Kind = "shops"
)

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Service stores validated image uploads on local disk and hands back the
// public path to serve them from.
type Service interface {
	Store(ctx context.Context, kind Kind, file multipart.File, header *multipart.FileHeader) (string, error)
}

type service struct {
	cfg  config.MediaConfig
	logg *logger.Logger
}

// NewService constructs a media service instance and ensures the upload
// directories exist.
func NewService(cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload dir required")
	}
	for _, kind := range []Kind{KindAvatar, KindProduct, KindShop} {
		dir := filepath.Join(cfg.UploadDir, string(kind))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
		}
	}
	return &service{cfg: cfg, logg: logg}, nil
}

// Store validates the upload and writes it under the kind's directory. The
// stored name is a fresh uuid plus the sanitized original filename, so
// uploads never collide and never traverse outside the upload root.
func (s *service) Store(ctx context.Context, kind Kind, file multipart.File, header *multipart.FileHeader) (string, error) {
	if file == nil || header == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image file is required")
	}
	if header.Size > s.cfg.MaxUploadBytes() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image exceeds maximum upload size").
			WithDetails(map[string]any{"max_bytes": s.cfg.MaxUploadBytes()})
	}

	if err := sniffImage(file, header); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s", uuid.NewString(), sanitizeFilename(header.Filename))
	dest := filepath.Join(s.cfg.UploadDir, string(kind), name)

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create upload file")
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(file, s.cfg.MaxUploadBytes()+1))
	if err != nil {
		os.Remove(dest)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write upload file")
	}
	if written > s.cfg.MaxUploadBytes() {
		os.Remove(dest)
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image exceeds maximum upload size")
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"kind": string(kind), "bytes": written})
		s.logg.Info(logCtx, "media.stored")
	}

	// Public URLs live under /uploads/ regardless of where the upload dir
	// sits on disk; the static route maps the prefix back to it.
	return path.Join("/uploads", string(kind), name), nil
}

// sniffImage checks the first 512 bytes against the detected content type. The
// declared header alone is not trusted.
func sniffImage(file multipart.File, header *multipart.FileHeader) error {
	buf := make([]byte, 512)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read upload")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rewind upload")
	}

	detected := http.DetectContentType(buf[:n])
	if !strings.HasPrefix(detected, "image/") {
		return pkgerrors.New(pkgerrors.CodeValidation, "only image uploads are accepted").
			WithDetails(map[string]any{"detected": detected})
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = filenameSanitizer.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == ".." {
		return "upload"
	}
	return base
}
