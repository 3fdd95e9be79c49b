package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
	historyx "github.com/tanpawarit/Community-Resource-Navigator/agent/history"
)

// RecordTurn appends exactly one log entry for the cycle, stamped with the
// cycle start time. The write ignores caller cancellation so a cancelled
// cycle is still logged. A log write failure is reported but does not
// change the reply.
func RecordTurn(
	ctx context.Context,
	in *GraphState,
	log historyx.Log,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	turn, err := log.Append(context.WithoutCancel(ctx), historyx.Turn{
		UserID:        in.UserID,
		UserMessage:   in.Message,
		AgentResponse: in.Reply(),
		ToolsUsed:     in.Response.ToolsUsed,
		Timestamp:     in.Now,
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("orchestrator: failed to record turn")
		return in, nil
	}
	in.Turn = turn
	if in.Recorded != nil {
		*in.Recorded = turn
	}
	return in, nil
}
