package worker

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gradecalc/internal/amqp"
	"gradecalc/internal/core"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters"
	"gradecalc/internal/semesters/memory"
)

type fakeMirror struct {
	mu     sync.Mutex
	writes [][]core.SemesterRow
	err    error
}

func (m *fakeMirror) WriteSemesters(_ context.Context, rows []core.SemesterRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, rows)
	return nil
}

func (m *fakeMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.writes)
}

func newWorker(kv semesters.KV, m semesters.Mirror) *MirrorWorker {
	return NewMirrorWorker(kv, m, log.New(log.Config{Output: &bytes.Buffer{}}))
}

func TestSyncMirrorsStoredList(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	if err := kv.Put(ctx, semesters.Key, `[{"gpa":"3.50","credit":15}]`); err != nil {
		t.Fatal(err)
	}
	m := &fakeMirror{}
	w := newWorker(kv, m)

	wrote, err := w.Sync(ctx)
	if err != nil || !wrote {
		t.Fatalf("Sync = %v, %v", wrote, err)
	}
	if len(m.writes) != 1 || len(m.writes[0]) != 1 || m.writes[0][0].GPA != "3.50" {
		t.Fatalf("unexpected mirror writes %+v", m.writes)
	}

	// Unchanged record is skipped.
	wrote, err = w.Sync(ctx)
	if err != nil || wrote {
		t.Fatalf("second Sync = %v, %v", wrote, err)
	}

	if err := kv.Delete(ctx, semesters.Key); err != nil {
		t.Fatal(err)
	}
	if wrote, _ := w.Sync(ctx); !wrote {
		t.Fatal("cleared record should be mirrored")
	}
	if last := m.writes[len(m.writes)-1]; len(last) != 0 {
		t.Fatalf("expected empty mirror, got %+v", last)
	}
}

func TestSyncMalformedRecordMirrorsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Put(ctx, semesters.Key, "garbage")
	m := &fakeMirror{}

	if _, err := newWorker(kv, m).Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(m.writes) != 1 || len(m.writes[0]) != 0 {
		t.Fatalf("unexpected writes %+v", m.writes)
	}
}

func TestSyncMirrorFailureRetriesNextTime(t *testing.T) {
	ctx := context.Background()
	kv := memory.New()
	_ = kv.Put(ctx, semesters.Key, `[]`)
	m := &fakeMirror{err: errors.New("quota")}
	w := newWorker(kv, m)

	if _, err := w.Sync(ctx); err == nil {
		t.Fatal("expected mirror error")
	}
	m.err = nil
	if wrote, err := w.Sync(ctx); err != nil || !wrote {
		t.Fatalf("retry Sync = %v, %v", wrote, err)
	}
}

func TestHandleChangeMessage(t *testing.T) {
	ctx := context.Background()
	m := &fakeMirror{}
	w := newWorker(memory.New(), m)

	if err := w.HandleChangeMessage(ctx, amqp.NewSemestersChangedMessage(0)); err != nil {
		t.Fatalf("HandleChangeMessage: %v", err)
	}
	if m.count() != 1 {
		t.Fatalf("writes = %d, want 1", m.count())
	}
}

func TestRunPeriodic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := &fakeMirror{}
	w := newWorker(memory.New(), m)

	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx, 5*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for m.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunPeriodic returned %v", err)
	}
	if m.count() == 0 {
		t.Fatal("expected at least one periodic sync")
	}
}

func TestRunPeriodicDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newWorker(memory.New(), &fakeMirror{}).RunPeriodic(ctx, 0); err != nil {
		t.Fatalf("RunPeriodic: %v", err)
	}
}
