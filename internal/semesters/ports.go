package semesters

import (
	"context"

	"gradecalc/internal/core"
)

// Key names the durable record holding the serialized semester list.
const Key = "cgpaSemesters"

// Ports for outbound adapters.
type (
	// KV is a durable string-keyed store. Get reports ok=false for a missing key.
	KV interface {
		Get(ctx context.Context, key string) (value string, ok bool, err error)
		Put(ctx context.Context, key, value string) error
		Delete(ctx context.Context, key string) error
	}

	// ChangeNotifier is told about every successful write to the semester list.
	ChangeNotifier interface {
		SemestersChanged(ctx context.Context, count int) error
	}

	// Mirror receives a full copy of the list for display outside the app.
	Mirror interface {
		WriteSemesters(ctx context.Context, rows []core.SemesterRow) error
	}
)
