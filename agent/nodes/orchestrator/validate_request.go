package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
	historyx "github.com/tanpawarit/Community-Resource-Navigator/agent/history"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidUser    = errors.New("user id is empty")
)

// ApologyMessage is recorded and returned whenever a cycle fails.
const ApologyMessage = "I apologize, but I'm having trouble processing your request right now. Please try again in a moment."

type GraphInput struct {
	UserID  string
	Message string
	// History nil means "load from the conversation log".
	History     []contractx.Exchange
	UserContext *contractx.UserContext
	// Recorded, when set, receives the logged turn. The caller reads it if
	// the pipeline fails after the turn was written.
	Recorded *historyx.Turn
}

type GraphOutput struct {
	Result contractx.TurnResult
}

type GraphState struct {
	UserID      string
	Message     string
	History     []contractx.Exchange
	UserContext *contractx.UserContext
	Now         time.Time
	Recorded    *historyx.Turn

	Input    string
	Response contractx.AgentResponse
	AgentErr error

	Turn historyx.Turn
}

// Failed reports whether the agent step ended in an upstream failure.
func (s *GraphState) Failed() bool {
	return s.AgentErr != nil
}

// Reply is the text that is both recorded and returned.
func (s *GraphState) Reply() string {
	if s.Failed() {
		return ApologyMessage
	}
	return s.Response.Message
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, ErrInvalidUser
	}

	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		UserID:      userID,
		Message:     text,
		History:     in.History,
		UserContext: in.UserContext,
		Now:         nowFn().UTC(),
		Recorded:    in.Recorded,
	}, nil
}
