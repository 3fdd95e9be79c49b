package history

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClampLimit(t *testing.T) {
	t.Parallel()

	cases := map[int]int{-5: 10, 0: 10, 1: 1, 50: 50, 100: 100, 101: 100, 1000: 100}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestMemoryLogAppendAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewMemoryLog()
	for i := 0; i < 12; i++ {
		if _, err := log.Append(ctx, Turn{UserID: "u1", UserMessage: fmt.Sprintf("m%d", i), AgentResponse: "ok"}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if _, err := log.Append(ctx, Turn{UserID: "u2", UserMessage: "other"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	turns, err := log.List(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(turns) != 10 {
		t.Fatalf("expected default limit of 10, got %d", len(turns))
	}
	if turns[0].UserMessage != "m2" || turns[9].UserMessage != "m11" {
		t.Fatalf("expected chronological tail, got %s..%s", turns[0].UserMessage, turns[9].UserMessage)
	}
	if turns[0].ToolsUsed == nil {
		t.Fatal("tools used must be non-nil")
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].Timestamp.Before(turns[i-1].Timestamp) {
			t.Fatal("turns must be oldest first")
		}
	}
}

func TestMemoryLogListUnknownUserIsEmpty(t *testing.T) {
	t.Parallel()

	turns, err := NewMemoryLog().List(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if turns == nil || len(turns) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", turns)
	}
}

func TestMemoryLogRejectsEmptyUser(t *testing.T) {
	t.Parallel()

	_, err := NewMemoryLog().Append(context.Background(), Turn{UserMessage: "hi"})
	if !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}

func TestMemoryLogFeedback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewMemoryLog()
	turn, err := log.Append(ctx, Turn{UserID: "u1", UserMessage: "hi", AgentResponse: "hello"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := log.SetFeedback(ctx, turn.ID, true); err != nil {
		t.Fatalf("SetFeedback() error = %v", err)
	}
	turns, _ := log.List(ctx, "u1", 1)
	if turns[0].Helpful == nil || !*turns[0].Helpful {
		t.Fatalf("feedback not stored: %+v", turns[0])
	}

	if err := log.SetFeedback(ctx, 999, false); !errors.Is(err, ErrTurnNotFound) {
		t.Fatalf("expected ErrTurnNotFound, got %v", err)
	}
}

func TestMemoryLogAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := NewMemoryLog()
	for _, outcome := range []string{"pending", "completed", "no_show"} {
		if _, err := log.RecordAccess(ctx, ServiceAccess{UserID: "u1", ServiceID: 3, ServiceName: "Shelter", ContactMethod: "phone", Outcome: outcome}); err != nil {
			t.Fatalf("RecordAccess() error = %v", err)
		}
	}
	recs, err := log.ListAccess(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListAccess() error = %v", err)
	}
	if len(recs) != 2 || recs[0].Outcome != "completed" || recs[1].Outcome != "no_show" {
		t.Fatalf("unexpected access records: %+v", recs)
	}
}
