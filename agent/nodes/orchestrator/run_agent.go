package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
)

// RunAgent runs the reasoning cycle. Agent failures are kept on the state so
// the turn is still recorded; they never fail the graph.
func RunAgent(
	ctx context.Context,
	in *GraphState,
	agent contractx.Agent,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	resp, err := agent.Run(ctx, contractx.AgentRequest{
		Input:   in.Input,
		History: in.History,
	})
	if resp.ToolsUsed == nil {
		resp.ToolsUsed = []string{}
	}
	in.Response = resp
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Strs("tools_used", resp.ToolsUsed).
			Int("iterations", resp.Iterations).
			Msg("orchestrator: agent cycle failed")
		in.AgentErr = err
		return in, nil
	}
	if resp.Aborted {
		zerolog.Ctx(ctx).Warn().Int("iterations", resp.Iterations).Msg("orchestrator: agent cycle aborted at iteration cap")
	}
	return in, nil
}
