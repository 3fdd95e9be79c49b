package orchestratornode

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
	historyx "github.com/tanpawarit/Community-Resource-Navigator/agent/history"
)

func ptr[T any](v T) *T {
	return &v
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	if _, err := ValidateRequest(GraphInput{UserID: " ", Message: "hi"}, fixedNow); !errors.Is(err, ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := ValidateRequest(GraphInput{UserID: "u1", Message: "  "}, fixedNow); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
	st, err := ValidateRequest(GraphInput{UserID: " u1 ", Message: " hi "}, fixedNow)
	if err != nil {
		t.Fatalf("ValidateRequest() error = %v", err)
	}
	if st.UserID != "u1" || st.Message != "hi" || st.History != nil {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestFormatUserContextOnlyPresentFields(t *testing.T) {
	t.Parallel()

	got := FormatUserContext(&contractx.UserContext{
		Location: "Hyderabad",
		Needs:    []string{"food", " ", "shelter"},
		Eligibility: &contractx.EligibilityInfo{
			IncomeLevel: "low",
			Age:         ptr(34),
		},
		AccessibilityNeeds: []string{"wheelchair"},
	})
	want := "User Context:\nLocation: Hyderabad\nNeeds: food, shelter\nIncome Level: low\nAge: 34\nAccessibility Needs: wheelchair"
	if got != want {
		t.Fatalf("FormatUserContext() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatUserContextExtendedFields(t *testing.T) {
	t.Parallel()

	got := FormatUserContext(&contractx.UserContext{
		Latitude:  ptr(17.385),
		Longitude: ptr(78.4867),
		Eligibility: &contractx.EligibilityInfo{
			FamilySize:      ptr(4),
			Residency:       "Telangana",
			InsuranceStatus: "uninsured",
		},
	})
	want := "User Context:\nCoordinates: 17.385, 78.4867\nFamily Size: 4\nResidency: Telangana\nInsurance Status: uninsured"
	if got != want {
		t.Fatalf("FormatUserContext() =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildInputWithoutContext(t *testing.T) {
	t.Parallel()

	st, err := BuildInput(&GraphState{Message: "I need food", UserContext: &contractx.UserContext{}})
	if err != nil {
		t.Fatalf("BuildInput() error = %v", err)
	}
	if st.Input != "I need food" {
		t.Fatalf("unexpected input: %q", st.Input)
	}

	st, err = BuildInput(&GraphState{Message: "I need food", UserContext: &contractx.UserContext{Location: "Abids"}})
	if err != nil {
		t.Fatalf("BuildInput() error = %v", err)
	}
	if st.Input != "User Context:\nLocation: Abids\n\nUser message: I need food" {
		t.Fatalf("unexpected input: %q", st.Input)
	}
}

func TestLoadHistoryRespectsExplicitEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := historyx.NewMemoryLog()
	if _, err := log.Append(ctx, historyx.Turn{UserID: "u1", UserMessage: "old", AgentResponse: "reply"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	st, err := LoadHistory(ctx, &GraphState{UserID: "u1", History: []contractx.Exchange{}}, log, 10)
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(st.History) != 0 {
		t.Fatalf("explicit empty history must be kept, got %v", st.History)
	}

	st, err = LoadHistory(ctx, &GraphState{UserID: "u1"}, log, 10)
	if err != nil {
		t.Fatalf("LoadHistory() error = %v", err)
	}
	if len(st.History) != 1 || st.History[0].AgentResponse != "reply" {
		t.Fatalf("unexpected history: %v", st.History)
	}
}

func TestFinalizeReplyFailure(t *testing.T) {
	t.Parallel()

	out, err := FinalizeReply(&GraphState{
		UserID:   "u1",
		Response: contractx.AgentResponse{ToolsUsed: []string{"search_resources"}},
		AgentErr: contractx.ErrModelInvoke,
	})
	if err != nil {
		t.Fatalf("FinalizeReply() error = %v", err)
	}
	r := out.Result
	if r.Success || r.Message != ApologyMessage || r.Error == "" {
		t.Fatalf("unexpected result: %+v", r)
	}
	if len(r.ToolsUsed) != 1 {
		t.Fatalf("tools used must survive failure: %v", r.ToolsUsed)
	}
}

func TestRecordTurnIgnoresCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := historyx.NewMemoryLog()
	var recorded historyx.Turn
	st, err := RecordTurn(ctx, &GraphState{
		UserID:   "u1",
		Message:  "help",
		Now:      fixedNow(),
		Recorded: &recorded,
		AgentErr: context.Canceled,
	}, log)
	if err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	if st.Turn.ID == 0 || recorded.ID != st.Turn.ID {
		t.Fatalf("turn not recorded: state=%+v recorded=%+v", st.Turn, recorded)
	}
	if st.Turn.AgentResponse != ApologyMessage || !st.Turn.Timestamp.Equal(fixedNow()) {
		t.Fatalf("unexpected turn: %+v", st.Turn)
	}

	turns, err := log.List(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected one entry, got %d", len(turns))
	}
}
