package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source supplies the documents currently in the knowledge base.
type Source interface {
	Documents(ctx context.Context) ([]Document, error)
}

// DirSource reads every .txt file in Dir on each call.
type DirSource struct {
	Dir    string
	Logger *slog.Logger
}

// Documents loads the directory. A missing directory is an empty knowledge
// base; unreadable files are skipped.
func (s DirSource) Documents(ctx context.Context) ([]Document, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read knowledge dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []Document
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		path := filepath.Join(s.Dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("skipping unreadable knowledge file", "path", path, "error", err)
			continue
		}
		docs = append(docs, Document{
			Title:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Content: string(data),
		})
	}
	return docs, nil
}

// StaticSource serves a fixed document set.
type StaticSource []Document

// Documents returns the fixed set.
func (s StaticSource) Documents(context.Context) ([]Document, error) {
	return s, nil
}
