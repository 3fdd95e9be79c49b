package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Agent runs one bounded reasoning/tool cycle.
type Agent interface {
	Run(ctx context.Context, req AgentRequest) (AgentResponse, error)
}

// ToolGateway exposes the fixed tool set to the agent loop. Dispatch reports
// bad arguments, unknown tools and missing services inside ToolResult; the
// returned error is reserved for upstream failures.
type ToolGateway interface {
	Infos() []*schema.ToolInfo
	Dispatch(ctx context.Context, name string, rawArgs string) (ToolResult, error)
}
