// Package session runs the line-oriented stdin conversation.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	orchestratorx "github.com/tanpawarit/Community-Resource-Navigator/agent/agents/orchestrator"
	contactx "github.com/tanpawarit/Community-Resource-Navigator/agent/contact"
	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
)

var ErrUsage = errors.New("usage: /accessed <service_id> <method> <outcome> [notes]")

type Options struct {
	UserID   string
	Location string
}

// Run reads one message per line until EOF, /quit or cancellation.
//
// Commands:
//
//	/history                                 last turns
//	/helpful, /unhelpful                     rate the last reply
//	/accessed <id> <method> <outcome> [notes] record a contact
//	/accessed                                list recorded contacts
//	/quit
func Run(ctx context.Context, orch *orchestratorx.Orchestrator, opts Options, in io.Reader, out io.Writer) error {
	var userCtx *contractx.UserContext
	if loc := strings.TrimSpace(opts.Location); loc != "" {
		userCtx = &contractx.UserContext{Location: loc}
	}

	var lastTurn int64
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return nil
		case line == "/history":
			turns, err := orch.GetHistory(ctx, opts.UserID, 0)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			for _, t := range turns {
				fmt.Fprintf(out, "[%d] you: %s\n    navigator: %s\n", t.ID, t.UserMessage, t.AgentResponse)
			}
		case line == "/accessed":
			recs, err := orch.ListServiceAccess(ctx, opts.UserID, 0)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			for _, r := range recs {
				fmt.Fprintf(out, "[%d] %s (#%d) via %s: %s\n", r.ID, r.ServiceName, r.ServiceID, r.ContactMethod, r.Outcome)
			}
		case strings.HasPrefix(line, "/accessed "):
			req, err := ParseAccess(opts.UserID, strings.TrimPrefix(line, "/accessed "))
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			rec, err := orch.LogServiceAccess(ctx, req)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			fmt.Fprintf(out, "recorded contact with %s\n", rec.ServiceName)
		case line == "/helpful" || line == "/unhelpful":
			if lastTurn == 0 {
				fmt.Fprintln(out, "nothing to rate yet")
				break
			}
			if err := orch.SubmitFeedback(ctx, lastTurn, line == "/helpful"); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			fmt.Fprintln(out, "thanks for the feedback")
		default:
			res, err := orch.ProcessTurn(ctx, contractx.TurnRequest{
				UserID:      opts.UserID,
				Message:     line,
				UserContext: userCtx,
			})
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			if res.TurnID > 0 {
				lastTurn = res.TurnID
			}
			fmt.Fprintln(out, res.Message)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

// ParseAccess reads "<service_id> <method> <outcome> [notes]".
func ParseAccess(userID, args string) (orchestratorx.AccessRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return orchestratorx.AccessRequest{}, ErrUsage
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id < 1 {
		return orchestratorx.AccessRequest{}, fmt.Errorf("invalid service id %q", fields[0])
	}
	method, err := contactx.ParseMethod(fields[1])
	if err != nil {
		return orchestratorx.AccessRequest{}, err
	}
	return orchestratorx.AccessRequest{
		UserID:        userID,
		ServiceID:     id,
		ContactMethod: string(method),
		Outcome:       fields[2],
		Notes:         strings.Join(fields[3:], " "),
	}, nil
}
