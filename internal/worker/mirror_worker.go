package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gradecalc/internal/amqp"
	"gradecalc/internal/core"
	"gradecalc/internal/log"
	"gradecalc/internal/semesters"
)

// MirrorWorker copies the stored semester list into a read-only mirror.
// It runs on change events and on a reconcile ticker; both paths share Sync.
type MirrorWorker struct {
	kv     semesters.KV
	mirror semesters.Mirror
	key    string
	logger *log.Logger

	mu       sync.Mutex
	lastRaw  string
	mirrored bool
}

func NewMirrorWorker(kv semesters.KV, mirror semesters.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &MirrorWorker{kv: kv, mirror: mirror, key: semesters.Key, logger: logger}
}

// HandleChangeMessage is the AMQP handler for semester change events.
func (w *MirrorWorker) HandleChangeMessage(ctx context.Context, msg *amqp.SemestersChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing semesters changed message",
		"message_id", msg.ID,
		log.FieldSemesterCount, msg.Count)
	_, err := w.Sync(ctx)
	return err
}

// Sync mirrors the current record. It reports whether a write happened;
// an unchanged record is not written again.
func (w *MirrorWorker) Sync(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raw, ok, err := w.kv.Get(ctx, w.key)
	if err != nil {
		return false, fmt.Errorf("read semesters: %w", err)
	}
	if !ok {
		raw = ""
	}
	if w.mirrored && raw == w.lastRaw {
		return false, nil
	}

	rows := []core.SemesterRow{}
	if raw != "" {
		decoded, err := semesters.Decode(raw)
		if err != nil {
			w.logger.WarnContext(ctx, "Stored semesters are malformed, mirroring an empty list",
				log.FieldOperation, log.OpMirror,
				log.FieldError, err)
		} else if decoded != nil {
			rows = decoded
		}
	}

	if err := w.mirror.WriteSemesters(ctx, rows); err != nil {
		return false, fmt.Errorf("write mirror: %w", err)
	}
	w.lastRaw = raw
	w.mirrored = true

	w.logger.InfoContext(ctx, "Semesters mirrored",
		log.FieldOperation, log.OpMirror,
		log.FieldSemesterCount, len(rows))
	return true, nil
}

// RunPeriodic reconciles every interval until ctx is cancelled.
func (w *MirrorWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Sync(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic mirror failed",
					log.FieldOperation, log.OpMirror,
					log.FieldError, err)
			}
		}
	}
}
