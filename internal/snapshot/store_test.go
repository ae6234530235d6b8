package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecordAndRead(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "shots"))
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}

	png := []byte{0x89, 'P', 'N', 'G'}
	meta, err := store.Record("Login with OTP", "the user should be logged in successfully", "https://shop.test/", errors.New("TIMEOUT: menu not shown"), png)
	if err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if meta.SizeBytes != len(png) || meta.Format != "png" {
		t.Fatalf("meta = %+v", meta)
	}

	got, err := store.Get(meta.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Scenario != "Login with OTP" || got.Error != "TIMEOUT: menu not shown" {
		t.Fatalf("Get() = %+v", got)
	}

	data, format, err := store.ReadImage(meta.ID)
	if err != nil {
		t.Fatalf("ReadImage() failed: %v", err)
	}
	if !bytes.Equal(data, png) || format != "png" {
		t.Fatalf("ReadImage() = %v, %q", data, format)
	}
}

func TestListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	ids := []string{
		"123e4567-e89b-12d3-a456-426614174001",
		"123e4567-e89b-12d3-a456-426614174002",
	}
	for i, id := range ids {
		meta := Meta{ID: id, Scenario: "s", Format: "png", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Save(meta, []byte("img")); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(metas) != 2 || metas[0].ID != ids[1] {
		t.Fatalf("List() = %+v", metas)
	}
}

func TestRejectsInvalidID(t *testing.T) {
	store := &Store{dir: t.TempDir()}
	if err := store.Save(Meta{ID: "../escape", Format: "png"}, nil); err == nil {
		t.Fatal("Save() accepted an invalid id")
	}
	if _, err := store.Get("nope"); err == nil {
		t.Fatal("Get() accepted an invalid id")
	}
}

func TestDeleteLogsImageCleanupFailureWhenImageMissing(t *testing.T) {
	dir := t.TempDir()
	store := &Store{dir: dir}
	id := "123e4567-e89b-12d3-a456-426614174000"
	jsonPath := filepath.Join(dir, id+".json")

	meta := Meta{
		ID:     id,
		Format: "png",
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	if err := os.WriteFile(jsonPath, metaBytes, 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}

	var buf bytes.Buffer
	oldLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(oldLogger)
	})

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete() = %v; want nil", err)
	}

	if !strings.Contains(buf.String(), "snapshot image cleanup failed") {
		t.Fatalf("expected image cleanup debug log, got %q", buf.String())
	}
	if _, err := os.Stat(jsonPath); !os.IsNotExist(err) {
		t.Fatalf("meta file still present: %v", err)
	}
}
