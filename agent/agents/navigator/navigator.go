package navigator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
)

const (
	// DefaultMaxIterations bounds tool dispatches per cycle.
	DefaultMaxIterations = 15

	AbortedMessage = "I wasn't able to finish looking into this. Please try asking again with a bit more detail about what you need and where you are."
)

var _ contractx.Agent = (*Navigator)(nil)

// Navigator drives the reasoning engine through one bounded tool loop.
type Navigator struct {
	runner        compose.Runnable[[]*schema.Message, *schema.Message]
	gateway       contractx.ToolGateway
	systemPrompt  string
	maxIterations int
	registered    map[string]struct{}
}

type Option func(*Navigator)

// WithMaxIterations overrides the dispatch cap. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(nav *Navigator) {
		if n > 0 {
			nav.maxIterations = n
		}
	}
}

func New(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	gateway contractx.ToolGateway,
	systemPrompt string,
	opts ...Option,
) (*Navigator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is nil", contractx.ErrValidation)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: tool gateway is nil", contractx.ErrValidation)
	}
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return nil, fmt.Errorf("%w: navigator system prompt", contractx.ErrPromptMissing)
	}

	infos := gateway.Infos()
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind navigator tools: %v", contractx.ErrModelInvoke, err)
	}
	runner, err := compileModelGraph(ctx, toolModel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	registered := make(map[string]struct{}, len(infos))
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		registered[info.Name] = struct{}{}
	}

	nav := &Navigator{
		runner:        runner,
		gateway:       gateway,
		systemPrompt:  systemPrompt,
		maxIterations: DefaultMaxIterations,
		registered:    registered,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(nav)
		}
	}
	return nav, nil
}

// Run alternates engine turns and tool dispatches until the engine answers
// in plain text or the dispatch cap is reached. Only the first tool call of
// an engine turn is honoured.
func (n *Navigator) Run(ctx context.Context, req contractx.AgentRequest) (contractx.AgentResponse, error) {
	logger := zerolog.Ctx(ctx)
	messages := n.buildMessages(req)
	used := newToolsUsed()
	partial := ""
	dispatches := 0

	for {
		if err := ctx.Err(); err != nil {
			return used.response(dispatches), err
		}

		msg, err := n.runner.Invoke(ctx, messages)
		if err != nil {
			return used.response(dispatches), fmt.Errorf("%w: navigator invoke: %w", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return used.response(dispatches), fmt.Errorf("%w: empty engine response", contractx.ErrSchemaViolation)
		}

		content := strings.TrimSpace(msg.Content)
		if len(msg.ToolCalls) == 0 {
			if content == "" {
				return used.response(dispatches), fmt.Errorf("%w: final answer is empty", contractx.ErrSchemaViolation)
			}
			resp := used.response(dispatches)
			resp.Message = content
			return resp, nil
		}
		if content != "" {
			partial = content
		}

		call := msg.ToolCalls[0]
		if len(msg.ToolCalls) > 1 {
			logger.Debug().Int("requested", len(msg.ToolCalls)).Str("tool", call.Function.Name).Msg("navigator: ignoring extra tool calls")
		}
		if strings.TrimSpace(call.ID) == "" {
			call.ID = "call_" + strconv.Itoa(dispatches+1)
		}
		messages = append(messages, schema.AssistantMessage(msg.Content, []schema.ToolCall{call}))

		name := strings.TrimSpace(call.Function.Name)
		if _, ok := n.registered[name]; ok {
			used.add(name)
		}
		result, err := n.gateway.Dispatch(ctx, name, call.Function.Arguments)
		dispatches++
		if err != nil {
			if !errors.Is(err, contractx.ErrToolFailure) {
				err = fmt.Errorf("%w: %w", contractx.ErrToolFailure, err)
			}
			return used.response(dispatches), err
		}
		logger.Debug().
			Str("tool", name).
			Int("iteration", dispatches).
			Bool("tool_error", result.Error != "").
			Msg("navigator: tool dispatched")

		messages = append(messages, schema.ToolMessage(result.Content(), call.ID))

		if dispatches >= n.maxIterations {
			logger.Warn().Int("iterations", dispatches).Msg("navigator: iteration cap reached")
			resp := used.response(dispatches)
			resp.Aborted = true
			resp.Message = partial
			if resp.Message == "" {
				resp.Message = AbortedMessage
			}
			return resp, nil
		}
	}
}

func (n *Navigator) buildMessages(req contractx.AgentRequest) []*schema.Message {
	messages := make([]*schema.Message, 0, 2*len(req.History)+2)
	messages = append(messages, schema.SystemMessage(n.systemPrompt))
	for _, ex := range req.History {
		messages = append(messages,
			schema.UserMessage(ex.UserMessage),
			schema.AssistantMessage(ex.AgentResponse, nil),
		)
	}
	return append(messages, schema.UserMessage(req.Input))
}

// toolsUsed keeps distinct names in first-invocation order.
type toolsUsed struct {
	seen  map[string]struct{}
	names []string
}

func newToolsUsed() *toolsUsed {
	return &toolsUsed{seen: map[string]struct{}{}, names: []string{}}
}

func (t *toolsUsed) add(name string) {
	if _, ok := t.seen[name]; ok {
		return
	}
	t.seen[name] = struct{}{}
	t.names = append(t.names, name)
}

func (t *toolsUsed) response(iterations int) contractx.AgentResponse {
	return contractx.AgentResponse{
		ToolsUsed:  append([]string{}, t.names...),
		Iterations: iterations,
	}
}
