package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tickScope/internal/model"
	"tickScope/internal/storage/memory"
)

func TestFileCursorStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cursor.json")
	store := &FileCursorStore{Path: path}

	if _, ok, err := store.Load(context.Background()); err != nil || ok {
		t.Fatalf("expected no cursor, ok=%v err=%v", ok, err)
	}

	want := model.Cursor{}.Advance(42, 3, "ABCD")
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Height != 42 || got.Index != 3 || got.TxHash != "ABCD" {
		t.Fatalf("cursor mismatch: %+v", got)
	}
}

func TestFileCursorStoreRejectsDirectory(t *testing.T) {
	store := &FileCursorStore{Path: t.TempDir()}
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

func TestDBCursorStore(t *testing.T) {
	store := &DBCursorStore{Store: memory.New(), Name: "main"}
	if err := store.Save(context.Background(), model.Cursor{}); err != nil {
		t.Fatalf("save zero cursor: %v", err)
	}
	if _, ok, _ := store.Load(context.Background()); ok {
		t.Fatalf("zero cursor must not be saved")
	}

	if err := store.Save(context.Background(), model.Cursor{}.Advance(7, 0, "FF")); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := store.Load(context.Background())
	if err != nil || !ok || got.Height != 7 || got.TxHash != "FF" {
		t.Fatalf("cursor mismatch: %+v ok=%v err=%v", got, ok, err)
	}
}
