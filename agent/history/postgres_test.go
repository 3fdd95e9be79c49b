package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newMockLog(t *testing.T) (*PostgresLog, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })

	log := NewPostgresLog(bun.NewDB(sqldb, pgdialect.New()))
	log.now = func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) }
	return log, mock
}

func TestPostgresLogAppend(t *testing.T) {
	t.Parallel()

	log, mock := newMockLog(t)
	mock.ExpectQuery(`INSERT INTO "chat_messages" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(17)))

	turn, err := log.Append(context.Background(), Turn{
		UserID:        "u1",
		UserMessage:   "I need food",
		AgentResponse: "Here are food banks",
		ToolsUsed:     []string{"search_resources"},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if turn.ID != 17 {
		t.Fatalf("unexpected id: %d", turn.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresLogListReturnsOldestFirst(t *testing.T) {
	t.Parallel()

	log, mock := newMockLog(t)
	newer := time.Date(2026, 2, 1, 10, 5, 0, 0, time.UTC)
	older := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "message", "response", "tools_used", "timestamp", "helpful"}).
		AddRow(int64(2), "u1", "second", "b", []byte(`[]`), newer, nil).
		AddRow(int64(1), "u1", "first", "a", []byte(`["search_resources"]`), older, true)

	mock.ExpectQuery(`SELECT .* FROM "chat_messages" AS "m" WHERE .*user_id = 'u1'.* ORDER BY m.timestamp DESC, m.id DESC LIMIT 100`).
		WillReturnRows(rows)

	turns, err := log.List(context.Background(), "u1", 500)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(turns) != 2 || turns[0].UserMessage != "first" || turns[1].UserMessage != "second" {
		t.Fatalf("unexpected order: %+v", turns)
	}
	if turns[0].Helpful == nil || !*turns[0].Helpful {
		t.Fatalf("helpful not decoded: %+v", turns[0])
	}
	if len(turns[1].ToolsUsed) != 0 || turns[1].ToolsUsed == nil {
		t.Fatalf("unexpected tools: %#v", turns[1].ToolsUsed)
	}
}

func TestPostgresLogSetFeedbackNotFound(t *testing.T) {
	t.Parallel()

	log, mock := newMockLog(t)
	mock.ExpectExec(`(?i)UPDATE "chat_messages" .*SET helpful = true WHERE .*id = 9`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := log.SetFeedback(context.Background(), 9, true)
	if !errors.Is(err, ErrTurnNotFound) {
		t.Fatalf("expected ErrTurnNotFound, got %v", err)
	}
}

func TestPostgresLogRecordAccess(t *testing.T) {
	t.Parallel()

	log, mock := newMockLog(t)
	mock.ExpectQuery(`INSERT INTO "service_access" .* RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	rec, err := log.RecordAccess(context.Background(), ServiceAccess{
		UserID: "u1", ServiceID: 4, ServiceName: "Food Security Initiative", ContactMethod: "in_person", Outcome: "completed",
	})
	if err != nil {
		t.Fatalf("RecordAccess() error = %v", err)
	}
	if rec.ID != 3 || rec.ServiceName != "Food Security Initiative" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
