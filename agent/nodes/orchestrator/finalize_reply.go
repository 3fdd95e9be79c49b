package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	tools := in.Response.ToolsUsed
	if tools == nil {
		tools = []string{}
	}
	result := contractx.TurnResult{
		Success:   !in.Failed(),
		Message:   in.Reply(),
		ToolsUsed: tools,
		UserID:    in.UserID,
		TurnID:    in.Turn.ID,
		Aborted:   in.Response.Aborted,
	}
	if in.Failed() {
		result.Error = in.AgentErr.Error()
	}
	return GraphOutput{Result: result}, nil
}
