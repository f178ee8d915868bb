package credstore

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"estate-admin/internal/model"
)

// Credentials is the token triple plus profile for one admin session.
// A record is only considered valid when every field is populated; partial
// records are cleared on read, never returned as authenticated.
type Credentials struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	Email        string      `json:"email"`
	User         *model.User `json:"user"`
}

func (c Credentials) complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.Email != "" && c.User != nil
}

type Store struct {
	mu sync.RWMutex

	stateFile string
	persistMu sync.Mutex

	credsByUserID map[string]Credentials

	watcherMu sync.Mutex
	watchers  []func(userID string)
}

type Options struct {
	StateFile string
}

func New() *Store {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Store {
	s := &Store{
		credsByUserID: make(map[string]Credentials),
		stateFile:     opts.StateFile,
	}

	if s.stateFile != "" {
		if err := s.loadFromFile(s.stateFile); err != nil {
			log.Printf("session persistence: load failed (%s): %v", s.stateFile, err)
		}
	}

	return s
}

type persistedSessionsFile struct {
	Version  int                    `json:"version"`
	Sessions map[string]Credentials `json:"sessions"`
	SavedAt  int64                  `json:"savedAt"`
}

func (s *Store) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var file persistedSessionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Version != 1 {
		return errors.New("unsupported session state version")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, creds := range file.Sessions {
		if userID == "" || !creds.complete() {
			continue
		}
		s.credsByUserID[userID] = creds
	}
	return nil
}

func (s *Store) snapshotLocked() map[string]Credentials {
	out := make(map[string]Credentials, len(s.credsByUserID))
	for id, c := range s.credsByUserID {
		out[id] = c
	}
	return out
}

func (s *Store) persistSnapshot(sessions map[string]Credentials) {
	path := s.stateFile
	if path == "" {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.Printf("session persistence: mkdir failed (%s): %v", dir, err)
		return
	}

	file := persistedSessionsFile{Version: 1, Sessions: sessions, SavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		log.Printf("session persistence: marshal failed: %v", err)
		return
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		log.Printf("session persistence: write failed (%s): %v", tmp, err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Printf("session persistence: rename failed (%s): %v", path, err)
	}
}

// Set stores a complete credential record. A partial record is refused so the
// store can never hold a half-populated session.
func (s *Store) Set(userID string, creds Credentials) bool {
	if userID == "" || !creds.complete() {
		return false
	}

	s.mu.Lock()
	s.credsByUserID[userID] = creds
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return true
}

// Get returns the credentials for userID. A record that exists but is
// incomplete is treated as absent and removed (fail-safe).
func (s *Store) Get(userID string) (Credentials, bool) {
	s.mu.RLock()
	creds, ok := s.credsByUserID[userID]
	s.mu.RUnlock()

	if !ok {
		return Credentials{}, false
	}
	if !creds.complete() {
		s.Clear(userID)
		return Credentials{}, false
	}
	return creds, true
}

// UpdateTokens replaces the token pair of an existing session, the only
// mutation allowed besides Set and Clear.
func (s *Store) UpdateTokens(userID, accessToken, refreshToken string) bool {
	if accessToken == "" || refreshToken == "" {
		return false
	}

	s.mu.Lock()
	creds, ok := s.credsByUserID[userID]
	if !ok || !creds.complete() {
		s.mu.Unlock()
		return false
	}
	creds.AccessToken = accessToken
	creds.RefreshToken = refreshToken
	s.credsByUserID[userID] = creds
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)
	return true
}

// Clear removes the session for userID and notifies watchers. Clearing an
// absent session is a no-op and fires no notification.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	_, existed := s.credsByUserID[userID]
	delete(s.credsByUserID, userID)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistSnapshot(snapshot)

	if existed {
		s.notifyInvalidated(userID)
	}
}

// OnInvalidate registers a callback fired whenever a session is cleared, so
// sibling connections can be told immediately instead of on next request.
func (s *Store) OnInvalidate(fn func(userID string)) {
	s.watcherMu.Lock()
	s.watchers = append(s.watchers, fn)
	s.watcherMu.Unlock()
}

func (s *Store) notifyInvalidated(userID string) {
	s.watcherMu.Lock()
	watchers := make([]func(string), len(s.watchers))
	copy(watchers, s.watchers)
	s.watcherMu.Unlock()

	for _, fn := range watchers {
		fn(userID)
	}
}

// UserIDs returns the IDs of all stored sessions, sorted.
func (s *Store) UserIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.credsByUserID))
	for id := range s.credsByUserID {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
