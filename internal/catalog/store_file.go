package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type fileState struct {
	Projects []string `json:"projects"`
	Labels   []string `json:"labels"`
}

// FileStore keeps the registry in dataDir/catalog.json.
type FileStore struct {
	mu    sync.Mutex
	path  string
	state fileState
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	s := &FileStore{path: filepath.Join(dataDir, "catalog.json")}

	b, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, err
	}
	if err := json.Unmarshal(b, &s.state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return s, nil
}

func (s *FileStore) list(kind Kind) *[]string {
	if kind == KindLabel {
		return &s.state.Labels
	}
	return &s.state.Projects
}

func (s *FileStore) Add(ctx context.Context, kind Kind, name string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.list(kind)
	*l = append(*l, name)
	if err := s.saveLocked(); err != nil {
		*l = (*l)[:len(*l)-1]
		return err
	}
	return nil
}

func (s *FileStore) Names(ctx context.Context, kind Kind) ([]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, *s.list(kind)...), nil
}

func (s *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
