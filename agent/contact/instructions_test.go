package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
)

var clinic = catalogx.ServiceRecord{
	ID:             3,
	Name:           "Free Clinic",
	Category:       catalogx.CategoryHealth,
	Address:        "12 MG Road, Hyderabad",
	Phone:          "+91-40-1111-2222",
	Website:        "https://clinic.example.org",
	OperatingHours: map[string]string{"monday": "9AM-5PM"},
	IsActive:       true,
}

func TestForPhone(t *testing.T) {
	t.Parallel()

	out, err := For(clinic, MethodPhone, "")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if !strings.Contains(out.Instructions, "+91-40-1111-2222") || !strings.Contains(out.Instructions, "your preferred date") {
		t.Fatalf("unexpected instructions: %q", out.Instructions)
	}
	if out.Hours["monday"] != "9AM-5PM" {
		t.Fatalf("expected hours, got %#v", out.Hours)
	}

	out, err = For(clinic, MethodPhone, "2026-11-02")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if !strings.Contains(out.Instructions, "2026-11-02") {
		t.Fatalf("expected preferred date in instructions: %q", out.Instructions)
	}
	if out.Confirmation != "Request for Free Clinic has been recorded." {
		t.Fatalf("unexpected confirmation: %q", out.Confirmation)
	}
}

func TestForInPerson(t *testing.T) {
	t.Parallel()

	out, err := For(clinic, MethodInPerson, "")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if out.Address != clinic.Address || !strings.Contains(out.Instructions, "proof of address") {
		t.Fatalf("unexpected instructions: %#v", out)
	}
}

func TestForOnlineFallsBackToPhone(t *testing.T) {
	t.Parallel()

	out, err := For(clinic, MethodOnline, "")
	if err != nil {
		t.Fatalf("For() error = %v", err)
	}
	if !strings.Contains(out.Instructions, clinic.Website) || !strings.Contains(out.Instructions, clinic.Phone) {
		t.Fatalf("unexpected instructions: %q", out.Instructions)
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	if m, err := ParseMethod(""); err != nil || m != MethodPhone {
		t.Fatalf("ParseMethod(\"\") = %q, %v", m, err)
	}
	if m, err := ParseMethod("In-Person"); err != nil || m != MethodInPerson {
		t.Fatalf("ParseMethod(In-Person) = %q, %v", m, err)
	}
	if _, err := ParseMethod("carrier pigeon"); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestGeneratorNotFound(t *testing.T) {
	t.Parallel()

	store, err := catalogx.NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	_, err = NewGenerator(store).ForService(context.Background(), 1, MethodPhone, "")
	if !errors.Is(err, catalogx.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}
