package database

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/ds124wfegd/mri-uploader/internal/entity"
	"github.com/ds124wfegd/mri-uploader/internal/pkg/storage"
)

// fileSession keeps one JSON document per tab under sessions/.
type fileSession struct {
	storage storage.FileStorage
	tabID   string
	mu      sync.Mutex
}

func NewFileSession(storage storage.FileStorage, tabID string) SessionStorage {
	return &fileSession{storage: storage, tabID: tabID}
}

func (s *fileSession) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *fileSession) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", entity.ErrSessionKeyAbsent
	}
	return v, nil
}

func (s *fileSession) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		if err := s.storage.Delete(s.path()); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return s.save(values)
}

func (s *fileSession) load() (map[string]string, error) {
	values := make(map[string]string)

	if !s.storage.Exists(s.path()) {
		return values, nil
	}
	reader, err := s.storage.Get(s.path())
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if err := json.NewDecoder(reader).Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *fileSession) save(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.storage.Save(s.path(), bytes.NewReader(data))
}

func (s *fileSession) path() string {
	return filepath.Join("sessions", s.tabID+".json")
}
