package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
	historyx "github.com/tanpawarit/Community-Resource-Navigator/agent/history"
)

// LoadHistory fills in prior exchanges from the log when the caller sent none.
// An explicit empty history is respected as-is.
func LoadHistory(
	ctx context.Context,
	in *GraphState,
	log historyx.Log,
	limit int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.History != nil {
		return in, nil
	}

	turns, err := log.List(ctx, in.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	in.History = make([]contractx.Exchange, 0, len(turns))
	for _, t := range turns {
		in.History = append(in.History, contractx.Exchange{
			UserMessage:   t.UserMessage,
			AgentResponse: t.AgentResponse,
		})
	}
	return in, nil
}
