// Package snapshot stores failure screenshots with a JSON sidecar describing
// the scenario and step that produced them.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Meta describes a stored screenshot.
type Meta struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Step      string    `json:"step,omitempty"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Format    string    `json:"format"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages screenshot files on disk.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) validateID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("invalid snapshot id: %q", id)
	}
	return nil
}

// Record saves a PNG screenshot for a failed step under a fresh ID.
func (s *Store) Record(scenario, step, url string, stepErr error, png []byte) (Meta, error) {
	meta := Meta{
		ID:        uuid.NewString(),
		Scenario:  scenario,
		Step:      step,
		URL:       url,
		Format:    "png",
		SizeBytes: len(png),
		CreatedAt: time.Now().UTC(),
	}
	if stepErr != nil {
		meta.Error = stepErr.Error()
	}
	if err := s.Save(meta, png); err != nil {
		return Meta{}, err
	}
	slog.Info("failure screenshot saved", "id", meta.ID, "scenario", scenario, "step", step, "path", s.ImagePath(meta))
	return meta, nil
}

// ImagePath returns where the image for meta is stored.
func (s *Store) ImagePath(meta Meta) string {
	return filepath.Join(s.dir, meta.ID+"."+meta.Format)
}

// Save writes both the image file and metadata sidecar.
func (s *Store) Save(meta Meta, imageData []byte) error {
	if err := s.validateID(meta.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imgPath := s.ImagePath(meta)
	jsonPath := filepath.Join(s.dir, meta.ID+".json")

	if err := os.WriteFile(imgPath, imageData, 0o644); err != nil {
		return fmt.Errorf("snapshot store: write image: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		s.removeQuiet(imgPath)
		return fmt.Errorf("snapshot store: marshal meta: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		s.removeQuiet(imgPath)
		return fmt.Errorf("snapshot store: write meta: %w", err)
	}

	return nil
}

func (s *Store) removeQuiet(path string) {
	if err := os.Remove(path); err != nil {
		slog.Debug("snapshot image cleanup failed", "path", path, "error", err)
	}
}

// Get reads screenshot metadata by ID.
func (s *Store) Get(id string) (Meta, error) {
	if err := s.validateID(id); err != nil {
		return Meta{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, fmt.Errorf("snapshot not found: %s", id)
		}
		return Meta{}, fmt.Errorf("snapshot store: read meta: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, fmt.Errorf("snapshot store: unmarshal meta: %w", err)
	}
	return meta, nil
}

// List returns all screenshots sorted by creation time (newest first).
func (s *Store) List() ([]Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot store: glob: %w", err)
	}

	metas := make([]Meta, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("snapshot meta read failed", "path", path, "error", err)
			continue
		}
		var meta Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			slog.Debug("snapshot meta decode failed", "path", path, "error", err)
			continue
		}
		metas = append(metas, meta)
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].CreatedAt.After(metas[j].CreatedAt)
	})

	return metas, nil
}

// ReadImage reads the raw image bytes and returns the format.
func (s *Store) ReadImage(id string) ([]byte, string, error) {
	meta, err := s.Get(id)
	if err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.ImagePath(meta))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("snapshot image not found: %s", id)
		}
		return nil, "", fmt.Errorf("snapshot store: read image: %w", err)
	}
	return data, meta.Format, nil
}

// Delete removes both the image and metadata files.
func (s *Store) Delete(id string) error {
	meta, err := s.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeQuiet(s.ImagePath(meta))
	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("snapshot store: remove meta: %w", err)
	}
	return nil
}
