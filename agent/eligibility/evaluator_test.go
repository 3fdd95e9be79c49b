package eligibility

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
)

func ptr[T any](v T) *T {
	return &v
}

func service(rules catalogx.EligibilityRules) catalogx.ServiceRecord {
	return catalogx.ServiceRecord{
		ID:          7,
		Name:        "Youth Drop-in",
		Category:    catalogx.CategoryYouth,
		Phone:       "+91-11-2345-6789",
		Eligibility: rules,
		IsActive:    true,
	}
}

func TestEvaluateEmptyRulesAlwaysEligible(t *testing.T) {
	t.Parallel()

	v := Evaluate(service(catalogx.EligibilityRules{}), UserAttributes{
		IncomeLevel: "high",
		Age:         ptr(99),
		Residency:   "Anywhere",
	})
	if !v.Eligible {
		t.Fatal("expected eligible")
	}
	if len(v.Violations) != 0 {
		t.Fatalf("unexpected violations: %#v", v.Violations)
	}
	if !reflect.DeepEqual(v.DocumentsNeeded, []string{BaselineDocument}) {
		t.Fatalf("unexpected documents: %#v", v.DocumentsNeeded)
	}
	if !strings.Contains(v.Notes, "+91-11-2345-6789") {
		t.Fatalf("eligible note must point at the service phone: %q", v.Notes)
	}
}

func TestEvaluateAgeMinimum(t *testing.T) {
	t.Parallel()

	v := Evaluate(service(catalogx.EligibilityRules{AgeMinimum: ptr(18)}), UserAttributes{Age: ptr(16)})
	if v.Eligible {
		t.Fatal("expected ineligible")
	}
	if len(v.Violations) != 1 || !strings.Contains(v.Violations[0], "18") {
		t.Fatalf("unexpected violations: %#v", v.Violations)
	}
	if !strings.Contains(v.Notes, "staff") {
		t.Fatalf("ineligible note must suggest talking to staff: %q", v.Notes)
	}
}

func TestEvaluateAgeMaximum(t *testing.T) {
	t.Parallel()

	v := Evaluate(service(catalogx.EligibilityRules{AgeMaximum: ptr(24)}), UserAttributes{Age: ptr(30)})
	if v.Eligible || !strings.Contains(v.Violations[0], "24") {
		t.Fatalf("unexpected verdict: %#v", v)
	}
}

func TestEvaluateResidency(t *testing.T) {
	t.Parallel()

	user := UserAttributes{Residency: "Mumbai"}

	v := Evaluate(service(catalogx.EligibilityRules{Residency: "Delhi"}), user)
	if v.Eligible || len(v.Violations) != 1 || !strings.Contains(v.Violations[0], "Delhi") {
		t.Fatalf("expected residency violation, got %#v", v)
	}

	v = Evaluate(service(catalogx.EligibilityRules{Residency: "Any"}), user)
	if !v.Eligible || len(v.Violations) != 0 {
		t.Fatalf("expected no residency violation, got %#v", v)
	}
}

func TestEvaluateIncomeIsOrdinal(t *testing.T) {
	t.Parallel()

	rules := catalogx.EligibilityRules{IncomeLimit: "200% FPL"}
	for _, tier := range []string{"very_low", "low", "moderate", "medium", "unknown_tier"} {
		if v := Evaluate(service(rules), UserAttributes{IncomeLevel: tier}); !v.Eligible {
			t.Fatalf("tier %q should be inside the default band: %#v", tier, v.Violations)
		}
	}
	for _, tier := range []string{"moderate_high", "HIGH"} {
		v := Evaluate(service(rules), UserAttributes{IncomeLevel: tier})
		if v.Eligible || !strings.Contains(v.Violations[0], "200% FPL") {
			t.Fatalf("tier %q should violate the income limit: %#v", tier, v)
		}
	}
}

func TestEvaluateCollectsAllViolations(t *testing.T) {
	t.Parallel()

	rules := catalogx.EligibilityRules{
		AgeMinimum:        ptr(18),
		IncomeLimit:       "low",
		Residency:         "Delhi",
		RequiredDocuments: []string{"Proof of address", "Valid Identification", "proof of address"},
	}
	v := Evaluate(service(rules), UserAttributes{Age: ptr(15), IncomeLevel: "high", Residency: "Pune"})
	if len(v.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %#v", v.Violations)
	}
	if !strings.HasPrefix(v.Violations[0], "Minimum age") ||
		!strings.HasPrefix(v.Violations[1], "Income limit") ||
		!strings.HasPrefix(v.Violations[2], "Residency") {
		t.Fatalf("unexpected violation order: %#v", v.Violations)
	}
	if !reflect.DeepEqual(v.DocumentsNeeded, []string{BaselineDocument, "Proof of address"}) {
		t.Fatalf("unexpected documents: %#v", v.DocumentsNeeded)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	t.Parallel()

	svc := service(catalogx.EligibilityRules{AgeMinimum: ptr(18), Residency: "Delhi"})
	attrs := UserAttributes{Age: ptr(16), Residency: "Mumbai"}
	if !reflect.DeepEqual(Evaluate(svc, attrs), Evaluate(svc, attrs)) {
		t.Fatal("evaluate must be idempotent")
	}
}

func TestEvaluatorCheckNotFound(t *testing.T) {
	t.Parallel()

	store, err := catalogx.NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	_, err = NewEvaluator(store).Check(context.Background(), 404, UserAttributes{})
	if !errors.Is(err, catalogx.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}
