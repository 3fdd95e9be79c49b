package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultKeyPrefix     = "navigator:"
	maxResponseSizeBytes = 2 << 20
)

var _ Store = (*UpstashLog)(nil)

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// UpstashOption customizes UpstashLog.
type UpstashOption func(*UpstashLog)

func WithKeyPrefix(prefix string) UpstashOption {
	return func(l *UpstashLog) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			l.keyPrefix = trimmed
		}
	}
}

func WithHTTPClient(client *http.Client) UpstashOption {
	return func(l *UpstashLog) {
		if client != nil {
			l.httpClient = client
		}
	}
}

// UpstashLog stores turns in Upstash Redis via its REST API.
//
// Layout:
//
//	<prefix>turn:seq            INCR counter for turn ids
//	<prefix>turn:<id>           JSON encoded Turn
//	<prefix>user:<uid>:turns    list of turn ids, oldest first
//	<prefix>access:seq          INCR counter for access ids
//	<prefix>user:<uid>:access   list of JSON encoded ServiceAccess
type UpstashLog struct {
	baseURL    string
	token      string
	httpClient *http.Client
	keyPrefix  string
	now        func() time.Time
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

func NewUpstashLog(cfg UpstashRedisConfig, opts ...UpstashOption) (*UpstashLog, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	l := &UpstashLog{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		keyPrefix:  defaultKeyPrefix,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

func (l *UpstashLog) Append(ctx context.Context, turn Turn) (Turn, error) {
	if err := turn.Validate(); err != nil {
		return Turn{}, err
	}

	id, err := l.incr(ctx, l.keyPrefix+"turn:seq")
	if err != nil {
		return Turn{}, err
	}
	turn.ID = id
	turn.ToolsUsed = normalizeTools(turn.ToolsUsed)
	turn.Timestamp = stamp(turn.Timestamp, l.now)
	turn.Helpful = nil

	payload, err := json.Marshal(turn)
	if err != nil {
		return Turn{}, fmt.Errorf("marshal turn: %w", err)
	}
	key := l.turnKey(id)
	results, err := l.execTx(ctx, [][]any{
		{"SET", key, string(payload)},
		{"RPUSH", l.userKey(turn.UserID, "turns"), strconv.FormatInt(id, 10)},
	})
	if err != nil {
		return Turn{}, err
	}
	for _, r := range results {
		if r.Error != "" {
			// Redis transactions do not roll back; drop the payload so no
			// turn exists outside the user index.
			if _, delErr := l.exec(ctx, []any{"DEL", key}); delErr != nil {
				return Turn{}, fmt.Errorf("append turn: %s (cleanup: %v)", r.Error, delErr)
			}
			return Turn{}, fmt.Errorf("append turn: %s", r.Error)
		}
	}
	return turn, nil
}

func (l *UpstashLog) List(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	ids, err := l.lrange(ctx, l.userKey(userID, "turns"), ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Turn{}, nil
	}

	cmd := make([]any, 0, len(ids)+1)
	cmd = append(cmd, "MGET")
	for _, id := range ids {
		cmd = append(cmd, l.keyPrefix+"turn:"+id)
	}
	resp, err := l.exec(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var payloads []*string
	if err := json.Unmarshal(resp.Result, &payloads); err != nil {
		return nil, fmt.Errorf("decode turn payloads: %w", err)
	}

	out := make([]Turn, 0, len(payloads))
	for _, p := range payloads {
		if p == nil {
			continue
		}
		var turn Turn
		if err := json.Unmarshal([]byte(*p), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turn.ToolsUsed = normalizeTools(turn.ToolsUsed)
		out = append(out, turn)
	}
	return out, nil
}

func (l *UpstashLog) SetFeedback(ctx context.Context, turnID int64, helpful bool) error {
	resp, err := l.exec(ctx, []any{"GET", l.turnKey(turnID)})
	if err != nil {
		return err
	}
	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return fmt.Errorf("%w: id=%d", ErrTurnNotFound, turnID)
	}

	var encoded string
	if err := json.Unmarshal(result, &encoded); err != nil {
		return fmt.Errorf("decode turn payload: %w", err)
	}
	var turn Turn
	if err := json.Unmarshal([]byte(encoded), &turn); err != nil {
		return fmt.Errorf("unmarshal turn: %w", err)
	}
	turn.Helpful = &helpful
	return l.putTurn(ctx, turn)
}

func (l *UpstashLog) RecordAccess(ctx context.Context, rec ServiceAccess) (ServiceAccess, error) {
	if strings.TrimSpace(rec.UserID) == "" {
		return ServiceAccess{}, ErrInvalidUser
	}
	id, err := l.incr(ctx, l.keyPrefix+"access:seq")
	if err != nil {
		return ServiceAccess{}, err
	}
	rec.ID = id
	rec.Timestamp = stamp(rec.Timestamp, l.now)

	payload, err := json.Marshal(rec)
	if err != nil {
		return ServiceAccess{}, fmt.Errorf("marshal service access: %w", err)
	}
	if _, err := l.exec(ctx, []any{"RPUSH", l.userKey(rec.UserID, "access"), string(payload)}); err != nil {
		return ServiceAccess{}, err
	}
	return rec, nil
}

func (l *UpstashLog) ListAccess(ctx context.Context, userID string, limit int) ([]ServiceAccess, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	items, err := l.lrange(ctx, l.userKey(userID, "access"), ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	out := make([]ServiceAccess, 0, len(items))
	for _, item := range items {
		var rec ServiceAccess
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal service access: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (l *UpstashLog) userKey(userID, kind string) string {
	return l.keyPrefix + "user:" + userID + ":" + kind
}

func (l *UpstashLog) putTurn(ctx context.Context, turn Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	_, err = l.exec(ctx, []any{"SET", l.turnKey(turn.ID), string(payload)})
	return err
}

func (l *UpstashLog) turnKey(id int64) string {
	return l.keyPrefix + "turn:" + strconv.FormatInt(id, 10)
}

func (l *UpstashLog) incr(ctx context.Context, key string) (int64, error) {
	resp, err := l.exec(ctx, []any{"INCR", key})
	if err != nil {
		return 0, err
	}
	var n int64
	if err := json.Unmarshal(resp.Result, &n); err != nil {
		return 0, fmt.Errorf("decode INCR result: %w", err)
	}
	return n, nil
}

// lrange returns the last n entries of a list, oldest first.
func (l *UpstashLog) lrange(ctx context.Context, key string, n int) ([]string, error) {
	resp, err := l.exec(ctx, []any{"LRANGE", key, -n, -1})
	if err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal(resp.Result, &items); err != nil {
		return nil, fmt.Errorf("decode LRANGE result: %w", err)
	}
	return items, nil
}

func (l *UpstashLog) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	raw, err := l.post(ctx, l.baseURL, command)
	if err != nil {
		return nil, err
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

// execTx sends commands through the /multi-exec endpoint so they run as one
// MULTI/EXEC block. Per-command errors are returned in the results.
func (l *UpstashLog) execTx(ctx context.Context, commands [][]any) ([]redisRESTResponse, error) {
	if len(commands) == 0 {
		return nil, errors.New("empty redis transaction")
	}

	raw, err := l.post(ctx, l.baseURL+"/multi-exec", commands)
	if err != nil {
		return nil, err
	}

	var results []redisRESTResponse
	if err := json.Unmarshal(raw, &results); err != nil {
		var aborted redisRESTResponse
		if jsonErr := json.Unmarshal(raw, &aborted); jsonErr == nil && aborted.Error != "" {
			return nil, errors.New(aborted.Error)
		}
		return nil, fmt.Errorf("decode redis transaction response: %w", err)
	}
	if len(results) != len(commands) {
		return nil, fmt.Errorf("redis transaction returned %d results for %d commands", len(results), len(commands))
	}
	return results, nil
}

func (l *UpstashLog) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
