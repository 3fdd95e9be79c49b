package tool

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"
	contactx "github.com/tanpawarit/Community-Resource-Navigator/agent/contact"
	eligibilityx "github.com/tanpawarit/Community-Resource-Navigator/agent/eligibility"
)

type eligibilityArgs struct {
	ServiceID       serviceID `json:"service_id"`
	IncomeLevel     string    `json:"income_level"`
	FamilySize      *int      `json:"family_size"`
	Age             *int      `json:"age"`
	Residency       string    `json:"residency"`
	InsuranceStatus string    `json:"insurance_status"`
}

type eligibilityTool struct {
	evaluator *eligibilityx.Evaluator
}

func (eligibilityTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolCheckEligibility,
		Desc: "Check whether the user appears to meet a service's eligibility rules. Returns barriers found and documents to bring.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"service_id":       {Type: schema.Integer, Desc: "Service id to check", Required: true},
			"income_level":     {Type: schema.String, Desc: "Income tier", Enum: []string{"very_low", "low", "moderate", "medium", "moderate_high", "high"}},
			"family_size":      {Type: schema.Integer, Desc: "Number of family members"},
			"age":              {Type: schema.Integer, Desc: "User age in years"},
			"residency":        {Type: schema.String, Desc: "Where the user lives, e.g. a city or state"},
			"insurance_status": {Type: schema.String, Desc: "uninsured, underinsured or insured"},
		}),
	}
}

func (t eligibilityTool) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var in eligibilityArgs
	if err := decodeArgs(raw, &in); err != nil {
		return nil, err
	}
	if err := requireServiceID(in.ServiceID); err != nil {
		return nil, err
	}
	return t.evaluator.Check(ctx, int64(in.ServiceID), eligibilityx.UserAttributes{
		IncomeLevel:     strings.TrimSpace(in.IncomeLevel),
		FamilySize:      in.FamilySize,
		Age:             in.Age,
		Residency:       strings.TrimSpace(in.Residency),
		InsuranceStatus: strings.TrimSpace(in.InsuranceStatus),
	})
}

type contactArgs struct {
	ServiceID     serviceID `json:"service_id"`
	ContactMethod string    `json:"contact_method"`
	PreferredDate string    `json:"preferred_date"`
}

type contactTool struct {
	generator *contactx.Generator
}

func (contactTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGetContactInstructions,
		Desc: "Get step-by-step instructions for contacting a service by phone, in person or online.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"service_id":     {Type: schema.Integer, Desc: "Service id to contact", Required: true},
			"contact_method": {Type: schema.String, Desc: "How the user wants to make contact (default phone)", Enum: []string{"phone", "in_person", "online"}},
			"preferred_date": {Type: schema.String, Desc: "Preferred appointment date, YYYY-MM-DD"},
		}),
	}
}

func (t contactTool) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var in contactArgs
	if err := decodeArgs(raw, &in); err != nil {
		return nil, err
	}
	if err := requireServiceID(in.ServiceID); err != nil {
		return nil, err
	}
	method, err := contactx.ParseMethod(in.ContactMethod)
	if err != nil {
		return nil, err
	}
	return t.generator.ForService(ctx, int64(in.ServiceID), method, strings.TrimSpace(in.PreferredDate))
}
