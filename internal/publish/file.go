// Package publish writes rendered leaderboards to their destinations.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openlah/leaderboard/internal/leaderboard"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FileWriter writes rendered boards into a docs directory.
type FileWriter struct {
	dir string
}

// NewFileWriter creates a writer rooted at dir.
func NewFileWriter(dir string) *FileWriter {
	if dir == "" {
		dir = "docs"
	}
	return &FileWriter{dir: dir}
}

// Write creates the output directory if needed and overwrites the board file.
// It returns the written path.
func (w *FileWriter) Write(_ context.Context, doc leaderboard.Rendered) (string, error) {
	if doc.Board.Filename == "" {
		return "", fmt.Errorf("board %q has no filename", doc.Board.Name)
	}
	if err := os.MkdirAll(w.dir, dirPerm); err != nil {
		return "", fmt.Errorf("create output directory %s: %w", w.dir, err)
	}

	path := filepath.Join(w.dir, doc.Board.Filename)
	if err := os.WriteFile(path, doc.Content, filePerm); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
