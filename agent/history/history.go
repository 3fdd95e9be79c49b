package history

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrTurnNotFound = errors.New("conversation turn not found")
	ErrInvalidUser  = errors.New("user id is empty")
	ErrInvalidTurn  = errors.New("invalid conversation turn")
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Turn is one completed exchange. ID is assigned on Append; a zero Timestamp
// is filled from the store clock.
type Turn struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	UserMessage   string    `json:"user_message"`
	AgentResponse string    `json:"agent_response"`
	ToolsUsed     []string  `json:"tools_used"`
	Timestamp     time.Time `json:"timestamp"`
	Helpful       *bool     `json:"helpful,omitempty"`
}

func (t Turn) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrInvalidUser
	}
	if t.UserMessage == "" {
		return errors.Join(ErrInvalidTurn, errors.New("user message is empty"))
	}
	return nil
}

// ServiceAccess records that a user looked at a service.
type ServiceAccess struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	ServiceID   int64  `json:"service_id"`
	ServiceName string `json:"service_name"`
	// ContactMethod is phone, in_person, online or referral.
	ContactMethod string `json:"contact_method"`
	// Outcome is completed, pending or no_show.
	Outcome   string    `json:"outcome"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `json:"access_date"`
}

// Log is the append-only conversation record.
type Log interface {
	Append(ctx context.Context, turn Turn) (Turn, error)
	// List returns up to limit most recent turns for the user, oldest first.
	List(ctx context.Context, userID string, limit int) ([]Turn, error)
	SetFeedback(ctx context.Context, turnID int64, helpful bool) error
}

type AccessLog interface {
	RecordAccess(ctx context.Context, rec ServiceAccess) (ServiceAccess, error)
	ListAccess(ctx context.Context, userID string, limit int) ([]ServiceAccess, error)
}

// Store is what the orchestrator needs from a backend.
type Store interface {
	Log
	AccessLog
}

// ClampLimit maps a requested page size onto [1, MaxLimit], using
// DefaultLimit for non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// stamp keeps a caller-supplied time and falls back to now.
func stamp(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now().UTC()
	}
	return t.UTC()
}

func normalizeTools(tools []string) []string {
	if tools == nil {
		return []string{}
	}
	return append([]string(nil), tools...)
}
