package navigator

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// compileModelGraph wraps the tool-bound model in a single-node graph so each
// engine round-trip goes through compose callbacks.
func compileModelGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
) (compose.Runnable[[]*schema.Message, *schema.Message], error) {
	graph := compose.NewGraph[[]*schema.Message, *schema.Message]()
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add navigator model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "model"); err != nil {
		return nil, fmt.Errorf("add navigator edge start->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add navigator edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("navigator.model_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile navigator model graph: %w", err)
	}
	return runner, nil
}
