package approvallog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the log in memory and mirrors every append to a JSON file,
// so the trail survives restarts without needing a database.
type FileStore struct {
	mem       *MemoryStore
	path      string
	persistMu sync.Mutex
}

type persistedLogFile struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
	SavedAt int64   `json:"savedAt"`
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{mem: NewMemoryStore(), path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return s, nil
	}

	var file persistedLogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Version != 1 {
		return nil, errors.New("unsupported approval log version")
	}
	s.mem.load(file.Entries)
	return s, nil
}

func (s *FileStore) Append(ctx context.Context, entry Entry) error {
	if err := s.mem.Append(ctx, entry); err != nil {
		return err
	}
	return s.persist()
}

func (s *FileStore) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	return s.mem.Query(ctx, filter)
}

func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	return s.mem.Stats(ctx)
}

func (s *FileStore) Export(ctx context.Context) ([]byte, error) {
	return s.mem.Export(ctx)
}

func (s *FileStore) persist() error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	file := persistedLogFile{Version: 1, Entries: s.mem.snapshot(), SavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
