package eligibility

import (
	"context"
	"fmt"
	"strings"

	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
)

// BaselineDocument is always listed as required.
const BaselineDocument = "valid identification"

// defaultIncomeRank applies to unrecognised tiers; ranks above it are outside
// the default eligible band.
const defaultIncomeRank = 2

var incomeRanks = map[string]int{
	"very_low":      1,
	"low":           2,
	"moderate":      2,
	"medium":        2,
	"moderate_high": 3,
	"high":          4,
}

// IncomeRank maps an income tier onto the ordinal scale.
func IncomeRank(tier string) int {
	if r, ok := incomeRanks[strings.ToLower(strings.TrimSpace(tier))]; ok {
		return r
	}
	return defaultIncomeRank
}

// UserAttributes are supplied fresh for every check and never persisted.
type UserAttributes struct {
	IncomeLevel     string `json:"income_level,omitempty"`
	FamilySize      *int   `json:"family_size,omitempty"`
	Age             *int   `json:"age,omitempty"`
	Residency       string `json:"residency,omitempty"`
	InsuranceStatus string `json:"insurance_status,omitempty"`
}

type Verdict struct {
	ServiceID       int64                     `json:"service_id"`
	ServiceName     string                    `json:"service_name"`
	Eligible        bool                      `json:"eligible"`
	Violations      []string                  `json:"barriers"`
	DocumentsNeeded []string                  `json:"documents_needed"`
	Requirements    catalogx.EligibilityRules `json:"requirements"`
	Notes           string                    `json:"notes"`
}

// Evaluate checks attrs against the service rules. Every rule is applied;
// a violation never short-circuits the remaining checks.
func Evaluate(svc catalogx.ServiceRecord, attrs UserAttributes) Verdict {
	rules := svc.Eligibility
	violations := make([]string, 0, 4)

	if attrs.Age != nil {
		if rules.AgeMinimum != nil && *attrs.Age < *rules.AgeMinimum {
			violations = append(violations, fmt.Sprintf("Minimum age requirement: %d", *rules.AgeMinimum))
		}
		if rules.AgeMaximum != nil && *attrs.Age > *rules.AgeMaximum {
			violations = append(violations, fmt.Sprintf("Maximum age requirement: %d", *rules.AgeMaximum))
		}
	}

	// Coarse ordinal signal only; dollar thresholds are not modelled.
	if rules.IncomeLimit != "" && strings.TrimSpace(attrs.IncomeLevel) != "" {
		if IncomeRank(attrs.IncomeLevel) > defaultIncomeRank {
			violations = append(violations, fmt.Sprintf("Income limit: %s", rules.IncomeLimit))
		}
	}

	residency := strings.TrimSpace(rules.Residency)
	userResidency := strings.TrimSpace(attrs.Residency)
	if residency != "" && !strings.EqualFold(residency, "any") && userResidency != "" {
		if !strings.EqualFold(residency, userResidency) {
			violations = append(violations, fmt.Sprintf("Residency requirement: %s", residency))
		}
	}

	v := Verdict{
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		Eligible:        len(violations) == 0,
		Violations:      violations,
		DocumentsNeeded: documents(rules.RequiredDocuments),
		Requirements:    rules,
	}
	if v.Eligible {
		v.Notes = eligibleNote(svc)
	} else {
		v.Notes = "You may not meet all requirements. Call to discuss your situation with staff, they may still be able to help."
	}
	return v
}

func eligibleNote(svc catalogx.ServiceRecord) string {
	if phone := strings.TrimSpace(svc.Phone); phone != "" {
		return fmt.Sprintf("You appear to meet the requirements. Call %s to apply or visit in person.", phone)
	}
	return "You appear to meet the requirements. Contact the service directly to apply or visit in person."
}

func documents(required []string) []string {
	out := []string{BaselineDocument}
	seen := map[string]struct{}{BaselineDocument: {}}
	for _, d := range required {
		key := strings.ToLower(strings.TrimSpace(d))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(d))
	}
	return out
}

// Evaluator resolves services from the catalog before evaluating.
type Evaluator struct {
	store catalogx.Store
}

func NewEvaluator(store catalogx.Store) *Evaluator {
	return &Evaluator{store: store}
}

// Check returns catalog.ErrServiceNotFound for unknown ids. Deactivated
// services are still evaluated.
func (e *Evaluator) Check(ctx context.Context, serviceID int64, attrs UserAttributes) (Verdict, error) {
	svc, err := e.store.Get(ctx, serviceID)
	if err != nil {
		return Verdict{}, err
	}
	return Evaluate(svc, attrs), nil
}
