package backend

import (
	"context"
	"time"

	"gradecalc/internal/cache"
	"gradecalc/internal/semesters"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult carries everything built for one backend choice.
type BackendResult struct {
	// KV holds the semester record.
	KV semesters.KV
	// Mirror is set when the backend can also show a readable table.
	Mirror semesters.Mirror
	// Notifier publishes change events; nil when AMQP is not configured.
	Notifier semesters.ChangeNotifier
	// Caches lists caches that need periodic expiry.
	Caches []cache.Cleaner
	// Ready reports whether the backend can serve requests.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Change events, any backend
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientJSON    string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	CacheTTL                 time.Duration

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
