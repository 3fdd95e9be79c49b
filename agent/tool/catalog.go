package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
	contactx "github.com/tanpawarit/Community-Resource-Navigator/agent/contact"
	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
	eligibilityx "github.com/tanpawarit/Community-Resource-Navigator/agent/eligibility"
	matchingx "github.com/tanpawarit/Community-Resource-Navigator/agent/matching"
)

const (
	ToolSearchResources        = "search_resources"
	ToolCheckEligibility       = "check_eligibility"
	ToolGetServiceDetails      = "get_service_details"
	ToolGetContactInstructions = "get_contact_instructions"
	ToolGetNearbyResources     = "get_nearby_resources"
)

var errInvalidArgs = errors.New("invalid tool arguments")

// Tool is one declared capability. Implementations are pure functions of
// their arguments and the current catalog.
type Tool interface {
	Info() *schema.ToolInfo
	Invoke(ctx context.Context, args json.RawMessage) (any, error)
}

var _ contractx.ToolGateway = (*Registry)(nil)

// Registry is the fixed tool set. It has no mutators.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry binds the five navigator tools to the given catalog.
func NewRegistry(store catalogx.Store) *Registry {
	engine := matchingx.NewEngine(store)
	return newRegistry(
		searchTool{engine: engine},
		eligibilityTool{evaluator: eligibilityx.NewEvaluator(store)},
		detailsTool{store: store},
		contactTool{generator: contactx.NewGenerator(store)},
		nearbyTool{engine: engine},
	)
}

func newRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Info().Name
		if _, dup := r.tools[name]; dup {
			panic(fmt.Sprintf("tool %s registered twice", name))
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Infos returns tool declarations in registration order.
func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Info())
	}
	return out
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Dispatch runs the named tool. Unknown names, malformed arguments and
// validation failures come back as ToolResult.Error, a missing service as a
// NotFound result. Only store failures and panics surface as errors.
func (r *Registry) Dispatch(ctx context.Context, name string, rawArgs string) (res contractx.ToolResult, err error) {
	name = strings.TrimSpace(name)
	t, ok := r.tools[name]
	if !ok {
		return contractx.ToolResult{
			Tool:  name,
			Error: fmt.Sprintf("unknown tool %q; available tools: %s", name, strings.Join(r.order, ", ")),
		}, nil
	}

	args := json.RawMessage(strings.TrimSpace(rawArgs))
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	defer func() {
		if p := recover(); p != nil {
			res = contractx.ToolResult{}
			err = fmt.Errorf("%w: tool=%s panicked: %v", contractx.ErrToolFailure, name, p)
		}
	}()

	out, err := t.Invoke(ctx, args)
	switch {
	case err == nil:
		return contractx.ToolResult{Tool: name, Result: out}, nil
	case isValidation(err):
		return contractx.ToolResult{Tool: name, Error: err.Error()}, nil
	case errors.Is(err, catalogx.ErrServiceNotFound):
		return contractx.ToolResult{Tool: name, Result: notFound(args, err)}, nil
	default:
		return contractx.ToolResult{}, fmt.Errorf("%w: tool=%s: %w", contractx.ErrToolFailure, name, err)
	}
}

func isValidation(err error) bool {
	return errors.Is(err, errInvalidArgs) ||
		errors.Is(err, matchingx.ErrInvalidQuery) ||
		errors.Is(err, catalogx.ErrUnknownCategory) ||
		errors.Is(err, contactx.ErrUnsupportedMethod)
}

// NotFound is the structured payload for a missing service id.
type NotFound struct {
	Found     bool   `json:"found"`
	ServiceID int64  `json:"service_id,omitempty"`
	Error     string `json:"error"`
}

func notFound(args json.RawMessage, err error) NotFound {
	var in struct {
		ServiceID serviceID `json:"service_id"`
	}
	_ = json.Unmarshal(args, &in)
	return NotFound{
		Found:     false,
		ServiceID: int64(in.ServiceID),
		Error:     fmt.Sprintf("Service with ID %d not found", int64(in.ServiceID)),
	}
}

func decodeArgs(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return nil
}
