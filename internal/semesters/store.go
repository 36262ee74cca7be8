package semesters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gradecalc/internal/core"
	"gradecalc/internal/log"
)

// Store owns the semester list and keeps it identical to the durable record.
// Every mutation is written through before the in-memory copy changes.
type Store struct {
	mu       sync.Mutex
	kv       KV
	key      string
	rows     []core.SemesterRow
	notifier ChangeNotifier
	logger   *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier publishes change events after each successful write.
func WithNotifier(n ChangeNotifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger overrides the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKey stores the list under a different record name.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// NewStore creates a store over kv. Call Load before reading Rows.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, key: Key}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.Config{Component: log.ComponentStorage})
	}
	return s
}

// Load reads the durable record into memory and returns a copy of it.
// A missing, unreadable or malformed record yields an empty list.
func (s *Store) Load(ctx context.Context) []core.SemesterRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = s.read(ctx)
	s.logger.DebugContext(ctx, "Semesters loaded",
		log.FieldOperation, log.OpLoad,
		log.FieldStoreKey, s.key,
		log.FieldSemesterCount, len(s.rows))
	return cloneRows(s.rows)
}

func (s *Store) read(ctx context.Context) []core.SemesterRow {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read semesters, starting empty",
			log.FieldOperation, log.OpLoad,
			log.FieldStoreKey, s.key,
			log.FieldError, err)
		return []core.SemesterRow{}
	}
	if !ok {
		return []core.SemesterRow{}
	}
	var rows []core.SemesterRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		s.logger.WarnContext(ctx, "Stored semesters are malformed, starting empty",
			log.FieldOperation, log.OpParse,
			log.FieldStoreKey, s.key,
			log.FieldError, err)
		return []core.SemesterRow{}
	}
	if rows == nil {
		rows = []core.SemesterRow{}
	}
	return rows
}

// Rows returns a copy of the in-memory list.
func (s *Store) Rows() []core.SemesterRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows)
}

// Replace overwrites the durable record with rows, then adopts rows in memory.
func (s *Store) Replace(ctx context.Context, rows []core.SemesterRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replace(ctx, rows)
}

// Append adds one row at the end of the list and persists it.
func (s *Store) Append(ctx context.Context, row core.SemesterRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]core.SemesterRow, 0, len(s.rows)+1)
	rows = append(rows, s.rows...)
	return s.replace(ctx, append(rows, row))
}

func (s *Store) replace(ctx context.Context, rows []core.SemesterRow) error {
	if rows == nil {
		rows = []core.SemesterRow{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode semesters: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, string(data)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist semesters",
			log.FieldOperation, log.OpReplace,
			log.FieldStoreKey, s.key,
			log.FieldError, err)
		return fmt.Errorf("persist semesters: %w", err)
	}
	s.rows = cloneRows(rows)

	s.logger.InfoContext(ctx, "Semesters persisted",
		log.FieldOperation, log.OpReplace,
		log.FieldSemesterCount, len(rows))
	s.notify(ctx, len(rows))
	return nil
}

// Clear empties the list and removes the durable record. It refuses to run
// unless the caller has obtained the user's confirmation.
func (s *Store) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return core.ErrClearNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to clear semesters",
			log.FieldOperation, log.OpClear,
			log.FieldStoreKey, s.key,
			log.FieldError, err)
		return fmt.Errorf("clear semesters: %w", err)
	}
	s.rows = []core.SemesterRow{}

	s.logger.InfoContext(ctx, "Semesters cleared", log.FieldOperation, log.OpClear)
	s.notify(ctx, 0)
	return nil
}

// notify never fails the write; the event is best effort.
func (s *Store) notify(ctx context.Context, count int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SemestersChanged(ctx, count); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish semesters change",
			log.FieldSemesterCount, count,
			log.FieldError, err)
	}
}

// Decode parses a stored record. Used by readers outside the Store.
func Decode(raw string) ([]core.SemesterRow, error) {
	var rows []core.SemesterRow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("decode semesters: %w", err)
	}
	return rows, nil
}

func cloneRows(in []core.SemesterRow) []core.SemesterRow {
	out := make([]core.SemesterRow, len(in))
	copy(out, in)
	return out
}
