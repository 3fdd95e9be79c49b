package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var _ Store = (*PostgresLog)(nil)

// MessageRow is the bun model for chat_messages.
type MessageRow struct {
	bun.BaseModel `bun:"table:chat_messages,alias:m"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull"`
	UserMessage   string    `bun:"message,notnull"`
	AgentResponse string    `bun:"response"`
	ToolsUsed     []string  `bun:"tools_used,type:jsonb"`
	Timestamp     time.Time `bun:"timestamp,notnull"`
	Helpful       *bool     `bun:"helpful"`
}

// AccessRow is the bun model for service_access.
type AccessRow struct {
	bun.BaseModel `bun:"table:service_access,alias:a"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull"`
	ServiceID     int64     `bun:"service_id,notnull"`
	ServiceName   string    `bun:"service_name"`
	ContactMethod string    `bun:"contact_method"`
	Outcome       string    `bun:"outcome"`
	Notes         string    `bun:"notes"`
	Timestamp     time.Time `bun:"access_date,notnull"`
}

// PostgresLog persists turns and service access through bun.
type PostgresLog struct {
	db  bun.IDB
	now func() time.Time
}

func NewPostgresLog(db bun.IDB) *PostgresLog {
	return &PostgresLog{db: db, now: time.Now}
}

func (l *PostgresLog) Append(ctx context.Context, turn Turn) (Turn, error) {
	if err := turn.Validate(); err != nil {
		return Turn{}, err
	}
	row := MessageRow{
		UserID:        turn.UserID,
		UserMessage:   turn.UserMessage,
		AgentResponse: turn.AgentResponse,
		ToolsUsed:     normalizeTools(turn.ToolsUsed),
		Timestamp:     stamp(turn.Timestamp, l.now),
	}
	if _, err := l.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return Turn{}, fmt.Errorf("insert chat message: %w", err)
	}
	return row.toTurn(), nil
}

func (l *PostgresLog) List(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	var rows []MessageRow
	err := l.db.NewSelect().
		Model(&rows).
		Where("m.user_id = ?", userID).
		OrderExpr("m.timestamp DESC, m.id DESC").
		Limit(ClampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}

	out := make([]Turn, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].toTurn())
	}
	return out, nil
}

func (l *PostgresLog) SetFeedback(ctx context.Context, turnID int64, helpful bool) error {
	res, err := l.db.NewUpdate().
		Model((*MessageRow)(nil)).
		Set("helpful = ?", helpful).
		Where("id = ?", turnID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrTurnNotFound, turnID)
	}
	return nil
}

func (l *PostgresLog) RecordAccess(ctx context.Context, rec ServiceAccess) (ServiceAccess, error) {
	if strings.TrimSpace(rec.UserID) == "" {
		return ServiceAccess{}, ErrInvalidUser
	}
	row := AccessRow{
		UserID:        rec.UserID,
		ServiceID:     rec.ServiceID,
		ServiceName:   rec.ServiceName,
		ContactMethod: rec.ContactMethod,
		Outcome:       rec.Outcome,
		Notes:         rec.Notes,
		Timestamp:     stamp(rec.Timestamp, l.now),
	}
	if _, err := l.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return ServiceAccess{}, fmt.Errorf("insert service access: %w", err)
	}
	return row.toAccess(), nil
}

func (l *PostgresLog) ListAccess(ctx context.Context, userID string, limit int) ([]ServiceAccess, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	var rows []AccessRow
	err := l.db.NewSelect().
		Model(&rows).
		Where("a.user_id = ?", userID).
		OrderExpr("a.access_date DESC, a.id DESC").
		Limit(ClampLimit(limit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list service access: %w", err)
	}

	out := make([]ServiceAccess, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].toAccess())
	}
	return out, nil
}

func (r MessageRow) toTurn() Turn {
	return Turn{
		ID:            r.ID,
		UserID:        r.UserID,
		UserMessage:   r.UserMessage,
		AgentResponse: r.AgentResponse,
		ToolsUsed:     normalizeTools(r.ToolsUsed),
		Timestamp:     r.Timestamp.UTC(),
		Helpful:       r.Helpful,
	}
}

func (r AccessRow) toAccess() ServiceAccess {
	return ServiceAccess{
		ID:            r.ID,
		UserID:        r.UserID,
		ServiceID:     r.ServiceID,
		ServiceName:   r.ServiceName,
		ContactMethod: r.ContactMethod,
		Outcome:       r.Outcome,
		Notes:         r.Notes,
		Timestamp:     r.Timestamp.UTC(),
	}
}
