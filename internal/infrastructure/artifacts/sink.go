// Package artifacts stores audit screenshots on the local filesystem.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"apply-agent/internal/application/port/output"
	"apply-agent/internal/domain/entity"
)

var _ output.ScreenshotSink = (*DirSink)(nil)

var ErrEmptyShot = errors.New("empty screenshot")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// DirSink writes screenshots as <root>/<task-id>/<label>.<format>.
type DirSink struct {
	root string
}

func NewDirSink(root string) (*DirSink, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}
	return &DirSink{root: root}, nil
}

func (s *DirSink) Root() string { return s.root }

func (s *DirSink) Save(ctx context.Context, taskID, label string, shot *entity.Screenshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if shot == nil || len(shot.Data) == 0 {
		return "", ErrEmptyShot
	}

	dir := filepath.Join(s.root, sanitize(taskID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create task dir: %w", err)
	}

	path := filepath.Join(dir, sanitize(label)+"."+extension(shot.Format))
	if err := os.WriteFile(path, shot.Data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func sanitize(s string) string {
	s = unsafeChars.ReplaceAllString(s, "_")
	if s == "" || s == "_" {
		return "unnamed"
	}
	return s
}

func extension(format string) string {
	switch format {
	case "png", "webp":
		return format
	default:
		return "jpg"
	}
}
