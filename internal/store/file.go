package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/candyxpe/supportbot/internal/domain"
)

const (
	agentsFile    = "candyxpe_agents.json"
	languagesFile = "candyxpe_languages.json"
	rulesFile     = "candyxpe_rules.txt"
)

type agentRecord struct {
	Role domain.Role `json:"role"`
}

// FileStore implements Repository with JSON documents in a directory.
// Each mutation rewrites its document in full.
type FileStore struct {
	dir string

	mu        sync.RWMutex
	agents    map[int64]domain.Role
	languages map[int64]domain.Language
}

// NewFileStore loads (or creates) the documents under dir.
// Missing documents are created with defaults; corrupt ones are logged and
// replaced by defaults in memory.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &FileStore{
		dir:       dir,
		agents:    make(map[int64]domain.Role),
		languages: make(map[int64]domain.Language),
	}

	var rawAgents map[string]agentRecord
	if err := s.loadJSON(agentsFile, &rawAgents, map[string]agentRecord{}); err != nil {
		return nil, err
	}
	for key, rec := range rawAgents {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			slog.Warn("Skipping agent with invalid id", "id", key)
			continue
		}
		s.agents[id] = rec.Role
	}

	var rawLangs map[string]string
	if err := s.loadJSON(languagesFile, &rawLangs, map[string]string{}); err != nil {
		return nil, err
	}
	for key, code := range rawLangs {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		lang, ok := domain.ParseLanguage(code)
		if !ok {
			slog.Warn("Skipping unknown language preference", "user_id", id, "language", code)
			continue
		}
		s.languages[id] = lang
	}

	rulesPath := filepath.Join(dir, rulesFile)
	if _, err := os.Stat(rulesPath); errors.Is(err, fs.ErrNotExist) {
		if err := writeFile(rulesPath, []byte(DefaultRules)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *FileStore) loadJSON(name string, dst any, def any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.saveJSON(name, def)
	}
	if err != nil {
		slog.Error("Failed to read document, using defaults", "path", path, "error", err)
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		slog.Error("Corrupt document, using defaults", "path", path, "error", err)
	}
	return nil
}

func (s *FileStore) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return writeFile(filepath.Join(s.dir, name), data)
}

// writeFile replaces path atomically via a temp file in the same directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// saveAgentsLocked must be called with mu held for writing.
func (s *FileStore) saveAgentsLocked() error {
	raw := make(map[string]agentRecord, len(s.agents))
	for id, role := range s.agents {
		raw[strconv.FormatInt(id, 10)] = agentRecord{Role: role}
	}
	return s.saveJSON(agentsFile, raw)
}

func (s *FileStore) saveLanguagesLocked() error {
	raw := make(map[string]string, len(s.languages))
	for id, lang := range s.languages {
		raw[strconv.FormatInt(id, 10)] = lang.String()
	}
	return s.saveJSON(languagesFile, raw)
}

// ListAgents returns every staff record ordered by user id.
func (s *FileStore) ListAgents(_ context.Context) ([]domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agents := make([]domain.Agent, 0, len(s.agents))
	for id, role := range s.agents {
		agents = append(agents, domain.Agent{UserID: id, Role: role})
	}
	slices.SortFunc(agents, func(a, b domain.Agent) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
	return agents, nil
}

// GetAgent returns the staff record for a user, or nil.
func (s *FileStore) GetAgent(_ context.Context, userID int64) (*domain.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	role, ok := s.agents[userID]
	if !ok {
		return nil, nil
	}
	return &domain.Agent{UserID: userID, Role: role}, nil
}

// AddAgent persists a new staff record.
func (s *FileStore) AddAgent(_ context.Context, agent domain.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[agent.UserID]; ok {
		return ErrAgentExists
	}
	s.agents[agent.UserID] = agent.Role
	if err := s.saveAgentsLocked(); err != nil {
		delete(s.agents, agent.UserID)
		return err
	}
	return nil
}

// RemoveAgent deletes a staff record.
func (s *FileStore) RemoveAgent(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.agents[userID]
	if !ok {
		return ErrNotFound
	}
	delete(s.agents, userID)
	if err := s.saveAgentsLocked(); err != nil {
		s.agents[userID] = role
		return err
	}
	return nil
}

// Language returns the stored language preference.
func (s *FileStore) Language(_ context.Context, userID int64) (domain.Language, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lang, ok := s.languages[userID]
	return lang, ok, nil
}

// SetLanguage stores a language preference.
func (s *FileStore) SetLanguage(_ context.Context, userID int64, lang domain.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.languages[userID]
	s.languages[userID] = lang
	if err := s.saveLanguagesLocked(); err != nil {
		if had {
			s.languages[userID] = prev
		} else {
			delete(s.languages, userID)
		}
		return err
	}
	return nil
}

// RememberUser records a user unless already known.
func (s *FileStore) RememberUser(ctx context.Context, userID int64, lang domain.Language) error {
	s.mu.RLock()
	_, known := s.languages[userID]
	s.mu.RUnlock()
	if known {
		return nil
	}
	return s.SetLanguage(ctx, userID, lang)
}

// KnownUsers lists every user with a stored language preference.
func (s *FileStore) KnownUsers(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.languages))
	for id := range s.languages {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Rules returns the raw rules document.
func (s *FileStore) Rules(_ context.Context) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, rulesFile))
	if err != nil {
		return "", fmt.Errorf("read rules: %w", err)
	}
	return string(data), nil
}

// Ping verifies the data directory is still accessible.
func (s *FileStore) Ping(_ context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("stat data directory: %w", err)
	}
	return nil
}

// Close is a no-op; every mutation is already on disk.
func (s *FileStore) Close() error {
	return nil
}

// SetRules replaces the rules document.
func (s *FileStore) SetRules(_ context.Context, body string) error {
	return writeFile(filepath.Join(s.dir, rulesFile), []byte(body))
}
