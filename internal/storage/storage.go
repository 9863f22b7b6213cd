// Package storage хранит загруженные файлы: локальный диск или S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/thereayou/flux/internal/config"
)

// ObjectStore объектное хранилище с публичными ссылками
type ObjectStore interface {
	Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, paths []string) error
	PublicURL(path string) string
	List(ctx context.Context, prefix string) ([]Object, error)
}

type Object struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

var ErrInvalidPath = errors.New("invalid object path")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// SafeName заменяет всё, кроме [a-zA-Z0-9.-], на подчёркивание
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	safe := unsafeChars.ReplaceAllString(name, "_")
	if safe == "" || strings.Trim(safe, ".") == "" {
		return "file"
	}
	return safe
}

// ObjectPath собирает путь вида prefix/<unix ms>-<safe name>
func ObjectPath(prefix, name string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s", strings.Trim(prefix, "/"), now.UnixMilli(), SafeName(name))
}

func GroupPrefix(joinCode string) string { return "archivos/" + joinCode }
func RepositoryPrefix(repoID string) string { return "repos/" + repoID }
func AvatarPrefix(userID string) string { return "avatars/" + userID }

func validPath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return false
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// New выбирает реализацию по конфигурации
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg.Dir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
