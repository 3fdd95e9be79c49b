package orchestratornode

import (
	"fmt"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Community-Resource-Navigator/agent/contract"
)

func BuildInput(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Input = in.Message
	if block := FormatUserContext(in.UserContext); block != "" {
		in.Input = block + "\n\nUser message: " + in.Message
	}
	return in, nil
}

// FormatUserContext renders present fields one per line under a
// "User Context:" heading. It returns "" when nothing is present.
func FormatUserContext(uc *contractx.UserContext) string {
	if uc == nil {
		return ""
	}

	var parts []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("Location", uc.Location)
	if uc.Latitude != nil && uc.Longitude != nil {
		add("Coordinates", fmt.Sprintf("%s, %s",
			strconv.FormatFloat(*uc.Latitude, 'f', -1, 64),
			strconv.FormatFloat(*uc.Longitude, 'f', -1, 64)))
	}
	add("Needs", joinNonEmpty(uc.Needs))
	if e := uc.Eligibility; e != nil {
		add("Income Level", e.IncomeLevel)
		if e.Age != nil {
			add("Age", strconv.Itoa(*e.Age))
		}
		if e.FamilySize != nil {
			add("Family Size", strconv.Itoa(*e.FamilySize))
		}
		add("Residency", e.Residency)
		add("Insurance Status", e.InsuranceStatus)
	}
	add("Accessibility Needs", joinNonEmpty(uc.AccessibilityNeeds))

	if len(parts) == 0 {
		return ""
	}
	return "User Context:\n" + strings.Join(parts, "\n")
}

func joinNonEmpty(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return strings.Join(out, ", ")
}
