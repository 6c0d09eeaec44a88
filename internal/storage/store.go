// Package storage uploads recipe images and avatars to an object store.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/config"
)

// ErrInvalidImage is returned for payloads that are not base64 image data URIs.
var ErrInvalidImage = errors.New("invalid image")

// Store is a flat key/value object store with public URLs.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the Store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "minio":
		return NewMinioStore(ctx, cfg)
	case "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}

// Images decodes data URIs and writes them under random keys.
type Images struct {
	store    Store
	maxBytes int64
}

func NewImages(store Store, maxBytes int64) *Images {
	return &Images{store: store, maxBytes: maxBytes}
}

// Upload stores the image under prefix and returns its key.
func (i *Images) Upload(ctx context.Context, prefix, dataURI string) (string, error) {
	data, mime, err := DecodeDataURI(dataURI, i.maxBytes)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", strings.Trim(prefix, "/"), uuid.NewString(), mime.Extension())
	if err := i.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mime.String()); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return key, nil
}

// Remove deletes the object. Empty keys are ignored.
func (i *Images) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return i.store.Delete(ctx, key)
}

// URL returns the public URL of key, or "" for an empty key.
func (i *Images) URL(key string) string {
	if key == "" {
		return ""
	}
	return i.store.URL(key)
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>" and sniffs the
// decoded bytes. The declared type is ignored in favour of the sniffed one.
func DecodeDataURI(uri string, maxBytes int64) ([]byte, *mimetype.MIME, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, nil, fmt.Errorf("%w: expected a base64 data URI", ErrInvalidImage)
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, nil, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxBytes)
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, mime.String())
	}
	return data, mime, nil
}
