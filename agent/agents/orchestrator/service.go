package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
	historyx "github.com/tanpawarit/Community-Resource-Navigator/agent/history"
	nodex "github.com/tanpawarit/Community-Resource-Navigator/agent/nodes/orchestrator"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidUser    = nodex.ErrInvalidUser
)

// Config is read with the NAVIGATOR_ prefix.
type Config struct {
	MaxIterations int `split_words:"true" default:"15"`
	HistoryLimit  int `split_words:"true" default:"10"`
}

// AccessRequest describes a user's attempt to reach a service.
type AccessRequest struct {
	UserID        string
	ServiceID     int64
	ContactMethod string
	Outcome       string
	Notes         string
}

// Orchestrator serves conversation turns. Cycles share no mutable state;
// turns for one user are not serialised here.
type Orchestrator struct {
	catalog catalogx.Store
	log     historyx.Store
	agent   contractx.Agent

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyLimit int
	now          func() time.Time
}

func New(
	catalog catalogx.Store,
	log historyx.Store,
	agent contractx.Agent,
	cfg Config,
) (*Orchestrator, error) {
	if catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if log == nil {
		return nil, errors.New("conversation log is required")
	}
	if agent == nil {
		return nil, errors.New("agent is required")
	}

	o := &Orchestrator{
		catalog:      catalog,
		log:          log,
		agent:        agent,
		historyLimit: historyx.ClampLimit(cfg.HistoryLimit),
		now:          time.Now,
	}

	graphRunner, err := o.compileProcessTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// ProcessTurn runs one cycle. The returned error is reserved for invalid
// requests; every other failure comes back as a TurnResult with
// Success=false and is recorded in the log.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error) {
	var recorded historyx.Turn
	in := nodex.GraphInput{
		UserID:      req.UserID,
		Message:     req.Message,
		History:     req.History,
		UserContext: req.UserContext,
		Recorded:    &recorded,
	}
	if _, err := nodex.ValidateRequest(in, o.now); err != nil {
		return contractx.TurnResult{}, err
	}

	logger := log.With().
		Str("user_id", strings.TrimSpace(req.UserID)).
		Str("request_id", uuid.NewString()).
		Logger()
	ctx = logger.WithContext(ctx)

	out, err := o.graphRunner.Invoke(ctx, in)
	if err != nil {
		return o.failTurn(ctx, in, recorded, err), nil
	}

	logger.Info().
		Bool("success", out.Result.Success).
		Bool("aborted", out.Result.Aborted).
		Strs("tools_used", out.Result.ToolsUsed).
		Msg("orchestrator: turn processed")
	return out.Result, nil
}

// failTurn converts a pipeline error into the apology reply. The apology is
// logged unless the pipeline already wrote this cycle's turn.
func (o *Orchestrator) failTurn(ctx context.Context, in nodex.GraphInput, recorded historyx.Turn, cause error) contractx.TurnResult {
	logger := zerolog.Ctx(ctx)
	logger.Error().Err(cause).Msg("orchestrator: turn pipeline failed")

	userID := strings.TrimSpace(in.UserID)
	result := contractx.TurnResult{
		Success:   false,
		Message:   nodex.ApologyMessage,
		ToolsUsed: []string{},
		UserID:    userID,
		Error:     cause.Error(),
	}
	if recorded.ID != 0 {
		result.Message = recorded.AgentResponse
		result.ToolsUsed = recorded.ToolsUsed
		result.TurnID = recorded.ID
		return result
	}

	turn, err := o.log.Append(context.WithoutCancel(ctx), historyx.Turn{
		UserID:        userID,
		UserMessage:   strings.TrimSpace(in.Message),
		AgentResponse: nodex.ApologyMessage,
		Timestamp:     o.now().UTC(),
	})
	if err != nil {
		logger.Error().Err(err).Msg("orchestrator: failed to record failed turn")
		return result
	}
	result.TurnID = turn.ID
	return result
}

// GetHistory returns the user's most recent turns, oldest first. Limits are
// clamped to [1, 100] with 10 used for non-positive values.
func (o *Orchestrator) GetHistory(ctx context.Context, userID string, limit int) ([]historyx.Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	return o.log.List(ctx, userID, historyx.ClampLimit(limit))
}

func (o *Orchestrator) SubmitFeedback(ctx context.Context, turnID int64, helpful bool) error {
	if err := o.log.SetFeedback(ctx, turnID, helpful); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Debug().Int64("turn_id", turnID).Bool("helpful", helpful).Msg("orchestrator: feedback stored")
	return nil
}

// LogServiceAccess records that a user contacted a service. The service
// name is resolved from the catalog, including deactivated records.
func (o *Orchestrator) LogServiceAccess(ctx context.Context, req AccessRequest) (historyx.ServiceAccess, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return historyx.ServiceAccess{}, ErrInvalidUser
	}

	svc, err := o.catalog.Get(ctx, req.ServiceID)
	if err != nil {
		return historyx.ServiceAccess{}, fmt.Errorf("log service access: %w", err)
	}

	return o.log.RecordAccess(ctx, historyx.ServiceAccess{
		UserID:        userID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		ContactMethod: strings.TrimSpace(req.ContactMethod),
		Outcome:       strings.TrimSpace(req.Outcome),
		Notes:         strings.TrimSpace(req.Notes),
	})
}

func (o *Orchestrator) ListServiceAccess(ctx context.Context, userID string, limit int) ([]historyx.ServiceAccess, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidUser
	}
	return o.log.ListAccess(ctx, userID, historyx.ClampLimit(limit))
}
