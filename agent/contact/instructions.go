package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"

	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
)

var ErrUnsupportedMethod = errors.New("unsupported contact method")

type Method string

const (
	MethodPhone    Method = "phone"
	MethodInPerson Method = "in_person"
	MethodOnline   Method = "online"
)

// ParseMethod defaults to phone when raw is blank. "in-person" is accepted as
// an alias of in_person.
func ParseMethod(raw string) (Method, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_") {
	case "", string(MethodPhone):
		return MethodPhone, nil
	case string(MethodInPerson):
		return MethodInPerson, nil
	case string(MethodOnline):
		return MethodOnline, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, raw)
	}
}

type Instructions struct {
	ServiceID     int64             `json:"service_id"`
	ServiceName   string            `json:"service_name"`
	ContactMethod Method            `json:"contact_method"`
	Instructions  string            `json:"instructions"`
	Phone         string            `json:"phone,omitempty"`
	Address       string            `json:"address,omitempty"`
	Website       string            `json:"website,omitempty"`
	Hours         map[string]string `json:"hours,omitempty"`
	Confirmation  string            `json:"confirmation_message"`
}

// For builds next-step instructions for svc. It does not record anything.
func For(svc catalogx.ServiceRecord, method Method, preferredDate string) (Instructions, error) {
	out := Instructions{
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		ContactMethod: method,
		Confirmation:  fmt.Sprintf("Request for %s has been recorded.", svc.Name),
	}

	switch method {
	case MethodPhone:
		when := strings.TrimSpace(preferredDate)
		if when == "" {
			when = "your preferred date"
		}
		out.Phone = svc.Phone
		out.Hours = svc.OperatingHours
		out.Instructions = fmt.Sprintf("Call %s to schedule an appointment. Ask about availability for %s.", orUnknown(svc.Phone, "the service"), when)
	case MethodInPerson:
		out.Address = svc.Address
		out.Hours = svc.OperatingHours
		out.Instructions = fmt.Sprintf("Visit %s during operating hours. Bring a valid ID and proof of address.", orUnknown(svc.Address, "the service"))
	case MethodOnline:
		out.Website = svc.Website
		out.Phone = svc.Phone
		if strings.TrimSpace(svc.Website) == "" {
			out.Instructions = fmt.Sprintf("This service has no website listed. Call %s for more information.", orUnknown(svc.Phone, "the service"))
		} else {
			out.Instructions = fmt.Sprintf("Visit %s to schedule or call %s for more information.", svc.Website, orUnknown(svc.Phone, "the service"))
		}
	default:
		return Instructions{}, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	return out, nil
}

func orUnknown(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

type Generator struct {
	store catalogx.Store
}

func NewGenerator(store catalogx.Store) *Generator {
	return &Generator{store: store}
}

func (g *Generator) ForService(ctx context.Context, serviceID int64, method Method, preferredDate string) (Instructions, error) {
	svc, err := g.store.Get(ctx, serviceID)
	if err != nil {
		return Instructions{}, err
	}
	return For(svc, method, preferredDate)
}
