// Package session keeps uploaded tables and their cleaned versions in
// memory, keyed by a random ID.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/tidyqa-cli/internal/apperr"
	"github.com/KaramelBytes/tidyqa-cli/internal/cleaning"
	"github.com/KaramelBytes/tidyqa-cli/internal/table"
)

// Session is one uploaded dataset. Tables are never mutated after they are
// stored; updates swap in new tables.
type Session struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Raw       *table.Table    `json:"-"`
	Clean     *table.Table    `json:"-"`
	Cleaning  cleaning.Config `json:"cleaning"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Info is the JSON-friendly shape of a session.
type Info struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	RawRows   int             `json:"raw_rows"`
	RawCols   int             `json:"raw_cols"`
	Rows      int             `json:"rows"`
	Columns   []ColumnInfo    `json:"columns"`
	Cleaning  cleaning.Config `json:"cleaning"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ColumnInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
}

func (s *Session) Info() Info {
	info := Info{
		ID:        s.ID,
		Name:      s.Name,
		RawRows:   s.Raw.NumRows(),
		RawCols:   s.Raw.NumCols(),
		Rows:      s.Clean.NumRows(),
		Cleaning:  s.Cleaning,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	for _, c := range s.Clean.Columns {
		info.Columns = append(info.Columns, ColumnInfo{Name: c.Name, Kind: string(c.Kind), Missing: c.NullCount()})
	}
	return info
}

// Store is a concurrency-safe in-memory session registry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      logrus.FieldLogger
}

func NewStore(log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{sessions: map[string]*Session{}, log: log}
}

// Create cleans raw with cfg and stores both tables under a new ID.
func (s *Store) Create(name string, raw *table.Table, cfg cleaning.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Raw:       raw,
		Clean:     cleaning.Pipeline{Config: cfg, Log: s.log}.Run(raw),
		Cleaning:  cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"session": sess.ID, "name": name, "rows": raw.NumRows(), "cols": raw.NumCols()}).Info("session created")
	return copyOf(sess), nil
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session " + id)
	}
	return copyOf(sess), nil
}

// Reclean re-runs cleaning from the raw table with cfg and replaces the
// cleaned table.
func (s *Store) Reclean(id string, cfg cleaning.Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cur, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	cleaned := cleaning.Pipeline{Config: cfg, Log: s.log}.Run(cur.Raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.NotFound("session " + id)
	}
	sess.Clean = cleaned
	sess.Cleaning = cfg
	sess.UpdatedAt = time.Now().UTC()
	return copyOf(sess), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return apperr.NotFound("session " + id)
	}
	delete(s.sessions, id)
	s.log.WithField("session", id).Info("session deleted")
	return nil
}

// List returns snapshots ordered by creation time.
func (s *Store) List() []*Session {
	s.mu.RLock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copyOf(sess))
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func copyOf(s *Session) *Session {
	c := *s
	return &c
}
