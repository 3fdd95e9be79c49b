package contract

import "encoding/json"

// Exchange is one prior user/agent message pair.
type Exchange struct {
	UserMessage   string `json:"user_message"`
	AgentResponse string `json:"agent_response"`
}

type EligibilityInfo struct {
	IncomeLevel     string `json:"income_level,omitempty"`
	Age             *int   `json:"age,omitempty"`
	FamilySize      *int   `json:"family_size,omitempty"`
	Residency       string `json:"residency,omitempty"`
	InsuranceStatus string `json:"insurance_status,omitempty"`
}

// UserContext is optional caller-supplied context rendered ahead of the user message.
type UserContext struct {
	Location           string           `json:"location,omitempty"`
	Latitude           *float64         `json:"latitude,omitempty"`
	Longitude          *float64         `json:"longitude,omitempty"`
	Needs              []string         `json:"needs,omitempty"`
	Eligibility        *EligibilityInfo `json:"eligibility_info,omitempty"`
	AccessibilityNeeds []string         `json:"accessibility_needs,omitempty"`
}

type TurnRequest struct {
	UserID      string       `json:"user_id"`
	Message     string       `json:"message"`
	History     []Exchange   `json:"history,omitempty"`
	UserContext *UserContext `json:"user_context,omitempty"`
}

type TurnResult struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	ToolsUsed []string `json:"tools_used"`
	UserID    string   `json:"user_id"`
	TurnID    int64    `json:"turn_id,omitempty"`
	Aborted   bool     `json:"aborted,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type AgentRequest struct {
	Input   string     `json:"input"`
	History []Exchange `json:"history,omitempty"`
}

// AgentResponse carries ToolsUsed even when Run fails, so callers can audit
// partial cycles.
type AgentResponse struct {
	Message    string   `json:"message"`
	ToolsUsed  []string `json:"tools_used"`
	Aborted    bool     `json:"aborted,omitempty"`
	Iterations int      `json:"iterations"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Content renders the result as the tool message fed back to the model.
func (r ToolResult) Content() string {
	payload := map[string]any{"tool": r.Tool}
	if r.Error != "" {
		payload["error"] = r.Error
	} else {
		payload["result"] = r.Result
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return `{"tool":"` + r.Tool + `","error":"result is not serialisable"}`
	}
	return string(raw)
}
