package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	geox "github.com/tanpawarit/Community-Resource-Navigator/agent/geo"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrUnknownCategory = errors.New("unknown service category")
	ErrInvalidService  = errors.New("invalid service record")
)

type Category string

const (
	CategoryShelter        Category = "shelter"
	CategoryFood           Category = "food"
	CategoryHealth         Category = "health"
	CategoryEmployment     Category = "employment"
	CategoryMentalHealth   Category = "mental_health"
	CategoryLegal          Category = "legal"
	CategorySubstanceAbuse Category = "substance_abuse"
	CategoryYouth          Category = "youth"
)

var categories = []Category{
	CategoryShelter,
	CategoryFood,
	CategoryHealth,
	CategoryEmployment,
	CategoryMentalHealth,
	CategoryLegal,
	CategorySubstanceAbuse,
	CategoryYouth,
}

// Categories returns the fixed category enumeration in declaration order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory matches raw case-insensitively against the enumeration.
func ParseCategory(raw string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range categories {
		if string(c) == needle {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

// ServiceRecord is a single community-service listing.
type ServiceRecord struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Category         Category          `json:"category"`
	Address          string            `json:"address"`
	Latitude         *float64          `json:"latitude,omitempty"`
	Longitude        *float64          `json:"longitude,omitempty"`
	Phone            string            `json:"phone,omitempty"`
	Website          string            `json:"website,omitempty"`
	OperatingHours   map[string]string `json:"operating_hours,omitempty"`
	Eligibility      EligibilityRules  `json:"eligibility_criteria"`
	ServicesProvided []string          `json:"services_provided,omitempty"`
	IsActive         bool              `json:"is_active"`
	LastVerified     time.Time         `json:"last_verified"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Location returns the record coordinates, or false when either is unknown.
func (s ServiceRecord) Location() (geox.Point, bool) {
	if s.Latitude == nil || s.Longitude == nil {
		return geox.Point{}, false
	}
	return geox.Point{Latitude: *s.Latitude, Longitude: *s.Longitude}, true
}

func (s ServiceRecord) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if _, err := ParseCategory(string(s.Category)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidService, err)
	}
	if (s.Latitude == nil) != (s.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrInvalidService)
	}
	return nil
}

// EligibilityRules holds optional constraints. A zero value means unconstrained.
type EligibilityRules struct {
	AgeMinimum        *int        `json:"age_minimum,omitempty"`
	AgeMaximum        *int        `json:"age_maximum,omitempty"`
	IncomeLimit       IncomeLimit `json:"income_limit,omitempty"`
	Residency         string      `json:"residency,omitempty"`
	RequiredDocuments []string    `json:"required_documents,omitempty"`
}

func (r EligibilityRules) IsEmpty() bool {
	return r.AgeMinimum == nil &&
		r.AgeMaximum == nil &&
		r.IncomeLimit == "" &&
		strings.TrimSpace(r.Residency) == "" &&
		len(r.RequiredDocuments) == 0
}

// IncomeLimit is a free-form limit label. Catalog data carries it either as
// text ("200% FPL") or as a bare number.
type IncomeLimit string

func (l *IncomeLimit) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = IncomeLimit(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("income_limit must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("income_limit must be a string or number: %w", err)
	}
	*l = IncomeLimit(n.String())
	return nil
}

// Filter narrows a catalog query. Empty fields are ignored.
type Filter struct {
	ActiveOnly bool
	Category   Category
	Keyword    string
}

// Matches applies the filter to a single record: category equality and a
// case-insensitive substring match on name, description or address.
func (f Filter) Matches(s ServiceRecord) bool {
	if f.ActiveOnly && !s.IsActive {
		return false
	}
	if f.Category != "" && !strings.EqualFold(string(s.Category), string(f.Category)) {
		return false
	}
	keyword := strings.ToLower(strings.TrimSpace(f.Keyword))
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), keyword) ||
		strings.Contains(strings.ToLower(s.Description), keyword) ||
		strings.Contains(strings.ToLower(s.Address), keyword)
}
