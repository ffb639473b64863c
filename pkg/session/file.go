package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blurtapp/blurt/internal/atomicfile"
	"github.com/blurtapp/blurt/pkg/errors"
	"github.com/blurtapp/blurt/pkg/observability"
)

const (
	sessionDir   = "sessions"
	templateFile = "templates.json"
)

// FileStore keeps sessions and templates as JSON files for local use.
//
//	<dir>/sessions/<id>.json
//	<dir>/templates.json
//
// Every write goes through a temp file and rename so a crash never leaves a
// half-written session behind.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a file store. If baseDir is empty it defaults to
// ~/.local/share/blurt.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".local", "share", "blurt")
	}
	if err := os.MkdirAll(filepath.Join(baseDir, sessionDir), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir, now: time.Now}, nil
}

func (s *FileStore) sessionPath(id string) string {
	return filepath.Join(s.baseDir, sessionDir, id+".json")
}

// List returns every readable session, newest start first. Files that fail
// to parse are skipped.
func (s *FileStore) List(ctx context.Context) (sessions []Session, err error) {
	start := time.Now()
	defer func() {
		observability.Store().OnLoad(ctx, "file", "session", len(sessions), time.Since(start), err)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.baseDir, sessionDir))
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	sessions = []Session{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, atomicfile.TempPrefix) {
			continue
		}
		sess, err := readSession(filepath.Join(s.baseDir, sessionDir, name))
		if err != nil {
			continue
		}
		sessions = append(sessions, *sess)
	}
	SortByStart(sessions)
	return sessions, nil
}

// Get implements [Store].
func (s *FileStore) Get(ctx context.Context, id string) (*Session, error) {
	if err := errors.ValidateSessionID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := readSession(s.sessionPath(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return sess, err
}

// Save implements [Store].
func (s *FileStore) Save(ctx context.Context, sess *Session) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "file", "session", time.Since(start), err) }()

	if err := errors.ValidateSessionID(sess.ID); err != nil {
		return err
	}
	out := sess.Clone()
	out.Normalize()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicfile.Write(s.sessionPath(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete implements [Store].
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateSessionID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sessionPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Close implements [Store].
func (s *FileStore) Close() error { return nil }

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}

func readSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", filepath.Base(path), err)
	}
	sess.Normalize()
	return &sess, nil
}

// =============================================================================
// Templates
// =============================================================================

type templateFileSchema struct {
	Templates []Template `json:"templates"`
}

// ListTemplates returns stored templates, most recently updated first.
// A missing or corrupt templates file reads as empty.
func (s *FileStore) ListTemplates(ctx context.Context) ([]Template, error) {
	s.mu.RLock()
	templates := s.readTemplates()
	s.mu.RUnlock()

	SortTemplates(templates)
	observability.Store().OnLoad(ctx, "file", "template", len(templates), 0, nil)
	return templates, nil
}

// SaveTemplate implements [TemplateStore].
func (s *FileStore) SaveTemplate(ctx context.Context, t Template) (err error) {
	start := time.Now()
	defer func() { observability.Store().OnSave(ctx, "file", "template", time.Since(start), err) }()

	if err := errors.ValidateTemplateID(t.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := withoutTemplate(s.readTemplates(), t.ID)
	next = append(next, t)
	return s.writeTemplates(next)
}

// DeleteTemplate implements [TemplateStore].
func (s *FileStore) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeTemplates(withoutTemplate(s.readTemplates(), id))
}

// readTemplates drops entries without an id and fills missing defaults.
func (s *FileStore) readTemplates() []Template {
	data, err := os.ReadFile(filepath.Join(s.baseDir, templateFile))
	if err != nil {
		return []Template{}
	}
	var schema templateFileSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return []Template{}
	}

	now := s.now()
	out := make([]Template, 0, len(schema.Templates))
	for _, t := range schema.Templates {
		if t.ID == "" {
			continue
		}
		t.Normalize(now)
		out = append(out, t)
	}
	return out
}

func (s *FileStore) writeTemplates(templates []Template) error {
	data, err := json.MarshalIndent(templateFileSchema{Templates: templates}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}
	if err := atomicfile.Write(filepath.Join(s.baseDir, templateFile), data, 0o600); err != nil {
		return fmt.Errorf("write templates: %w", err)
	}
	return nil
}

func withoutTemplate(templates []Template, id string) []Template {
	out := templates[:0]
	for _, t := range templates {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

var _ Backend = (*FileStore)(nil)
