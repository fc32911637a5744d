package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"tickScope/internal/model"
	"tickScope/internal/storage"
)

// CursorStore loads and saves the ingestion cursor.
type CursorStore interface {
	Load(ctx context.Context) (model.Cursor, bool, error)
	Save(ctx context.Context, cursor model.Cursor) error
}

// DBCursorStore keeps the cursor in the store's indexer_state table.
type DBCursorStore struct {
	Store storage.Store
	Name  string
}

func (s *DBCursorStore) Load(ctx context.Context) (model.Cursor, bool, error) {
	if s == nil || s.Store == nil {
		return model.Cursor{}, false, nil
	}
	return s.Store.LoadCursor(ctx, s.Name)
}

func (s *DBCursorStore) Save(ctx context.Context, cursor model.Cursor) error {
	if s == nil || s.Store == nil || cursor.IsZero() {
		return nil
	}
	return s.Store.InTx(ctx, func(w storage.Writer) error {
		return w.SaveCursor(ctx, s.Name, cursor)
	})
}

// FileCursorStore keeps the cursor in a local JSON file.
type FileCursorStore struct {
	Path string
}

func (s *FileCursorStore) Load(ctx context.Context) (model.Cursor, bool, error) {
	if s == nil || s.Path == "" {
		return model.Cursor{}, false, nil
	}

	stat, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Cursor{}, false, nil
		}
		return model.Cursor{}, false, fmt.Errorf("stat cursor: %w", err)
	}
	if stat.IsDir() {
		return model.Cursor{}, false, fmt.Errorf("cursor path is a directory")
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.Cursor{}, false, fmt.Errorf("read cursor: %w", err)
	}
	var cursor model.Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return model.Cursor{}, false, fmt.Errorf("parse cursor: %w", err)
	}
	return cursor, !cursor.IsZero(), nil
}

func (s *FileCursorStore) Save(ctx context.Context, cursor model.Cursor) error {
	if s == nil || s.Path == "" || cursor.IsZero() {
		return nil
	}

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cursor dir: %w", err)
		}
	}

	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	tmpPath := s.Path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor tmp: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("rename cursor: %w", err)
	}
	return nil
}
