package history

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

var _ Store = (*MemoryLog)(nil)

// MemoryLog keeps turns in process memory.
type MemoryLog struct {
	mu       sync.RWMutex
	turns    []Turn
	access   []ServiceAccess
	nextTurn int64
	nextAcc  int64
	now      func() time.Time
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{nextTurn: 1, nextAcc: 1, now: time.Now}
}

func (l *MemoryLog) Append(ctx context.Context, turn Turn) (Turn, error) {
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}
	if err := turn.Validate(); err != nil {
		return Turn{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	turn.ID = l.nextTurn
	l.nextTurn++
	turn.ToolsUsed = normalizeTools(turn.ToolsUsed)
	turn.Timestamp = stamp(turn.Timestamp, l.now)
	turn.Helpful = nil
	l.turns = append(l.turns, turn)
	return cloneTurn(turn), nil
}

func (l *MemoryLog) List(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	limit = ClampLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Turn, 0, limit)
	for i := len(l.turns) - 1; i >= 0 && len(out) < limit; i-- {
		if l.turns[i].UserID == userID {
			out = append(out, cloneTurn(l.turns[i]))
		}
	}
	reverse(out)
	return out, nil
}

func (l *MemoryLog) SetFeedback(ctx context.Context, turnID int64, helpful bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.turns {
		if l.turns[i].ID == turnID {
			l.turns[i].Helpful = &helpful
			return nil
		}
	}
	return fmt.Errorf("%w: id=%d", ErrTurnNotFound, turnID)
}

func (l *MemoryLog) RecordAccess(ctx context.Context, rec ServiceAccess) (ServiceAccess, error) {
	if err := ctx.Err(); err != nil {
		return ServiceAccess{}, err
	}
	if strings.TrimSpace(rec.UserID) == "" {
		return ServiceAccess{}, ErrInvalidUser
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec.ID = l.nextAcc
	l.nextAcc++
	rec.Timestamp = stamp(rec.Timestamp, l.now)
	l.access = append(l.access, rec)
	return rec, nil
}

func (l *MemoryLog) ListAccess(ctx context.Context, userID string, limit int) ([]ServiceAccess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	limit = ClampLimit(limit)

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]ServiceAccess, 0, limit)
	for i := len(l.access) - 1; i >= 0 && len(out) < limit; i-- {
		if l.access[i].UserID == userID {
			out = append(out, l.access[i])
		}
	}
	reverse(out)
	return out, nil
}

func cloneTurn(t Turn) Turn {
	t.ToolsUsed = normalizeTools(t.ToolsUsed)
	if t.Helpful != nil {
		v := *t.Helpful
		t.Helpful = &v
	}
	return t
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
