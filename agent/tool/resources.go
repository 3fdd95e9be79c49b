package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"
	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
	geox "github.com/tanpawarit/Community-Resource-Navigator/agent/geo"
	matchingx "github.com/tanpawarit/Community-Resource-Navigator/agent/matching"
)

// ResourceSummary is one search hit as returned to the model.
type ResourceSummary struct {
	ID                  int64                     `json:"id"`
	Name                string                    `json:"name"`
	Description         string                    `json:"description"`
	Category            catalogx.Category         `json:"category"`
	Address             string                    `json:"address"`
	Phone               string                    `json:"phone,omitempty"`
	Website             string                    `json:"website,omitempty"`
	OperatingHours      map[string]string         `json:"operating_hours,omitempty"`
	ServicesProvided    []string                  `json:"services_provided,omitempty"`
	EligibilityCriteria catalogx.EligibilityRules `json:"eligibility_criteria"`
	DistanceMiles       *float64                  `json:"distance_miles,omitempty"`
}

func categoryEnum() []string {
	cats := catalogx.Categories()
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, string(c))
	}
	return out
}

type searchArgs struct {
	Category    string   `json:"category"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusMiles float64  `json:"radius_miles"`
	Keywords    string   `json:"keywords"`
}

type searchTool struct {
	engine *matchingx.Engine
}

func (searchTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolSearchResources,
		Desc: "Search community resources by category, location and keywords. Returns up to 10 active services, nearest first when coordinates are given.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"category":     {Type: schema.String, Desc: "Type of service", Enum: categoryEnum()},
			"latitude":     {Type: schema.Number, Desc: "User latitude in degrees, used with longitude"},
			"longitude":    {Type: schema.Number, Desc: "User longitude in degrees, used with latitude"},
			"radius_miles": {Type: schema.Number, Desc: "Search radius in miles (default 5.0)"},
			"keywords":     {Type: schema.String, Desc: "Free text matched against name, description and address"},
		}),
	}
}

func (t searchTool) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var in searchArgs
	if err := decodeArgs(raw, &in); err != nil {
		return nil, err
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, fmt.Errorf("%w: latitude and longitude must be provided together", errInvalidArgs)
	}

	q := matchingx.Query{
		Category:    in.Category,
		Keywords:    in.Keywords,
		RadiusMiles: in.RadiusMiles,
	}
	if in.Latitude != nil {
		q.Center = &geox.Point{Latitude: *in.Latitude, Longitude: *in.Longitude}
	}
	return runSearch(ctx, t.engine, q)
}

type nearbyArgs struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusMiles float64  `json:"radius_miles"`
	Category    string   `json:"category"`
}

type nearbyTool struct {
	engine *matchingx.Engine
}

func (nearbyTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGetNearbyResources,
		Desc: "Find active resources within a radius of a coordinate, sorted by distance.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"latitude":     {Type: schema.Number, Desc: "User latitude in degrees", Required: true},
			"longitude":    {Type: schema.Number, Desc: "User longitude in degrees", Required: true},
			"radius_miles": {Type: schema.Number, Desc: "Search radius in miles (default 5.0)"},
			"category":     {Type: schema.String, Desc: "Optional category filter", Enum: categoryEnum()},
		}),
	}
}

func (t nearbyTool) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var in nearbyArgs
	if err := decodeArgs(raw, &in); err != nil {
		return nil, err
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", errInvalidArgs)
	}
	return runSearch(ctx, t.engine, matchingx.Query{
		Category:    in.Category,
		Center:      &geox.Point{Latitude: *in.Latitude, Longitude: *in.Longitude},
		RadiusMiles: in.RadiusMiles,
	})
}

func runSearch(ctx context.Context, engine *matchingx.Engine, q matchingx.Query) ([]ResourceSummary, error) {
	matches, err := engine.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]ResourceSummary, 0, len(matches))
	for _, m := range matches {
		s := m.Service
		out = append(out, ResourceSummary{
			ID:                  s.ID,
			Name:                s.Name,
			Description:         s.Description,
			Category:            s.Category,
			Address:             s.Address,
			Phone:               s.Phone,
			Website:             s.Website,
			OperatingHours:      s.OperatingHours,
			ServicesProvided:    s.ServicesProvided,
			EligibilityCriteria: s.Eligibility,
			DistanceMiles:       m.DistanceMiles,
		})
	}
	return out, nil
}

type detailsArgs struct {
	ServiceID serviceID `json:"service_id"`
}

type detailsTool struct {
	store catalogx.Store
}

func (detailsTool) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: ToolGetServiceDetails,
		Desc: "Get complete information about one service, including hours, eligibility criteria and when it was last verified.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"service_id": {Type: schema.Integer, Desc: "Service id from a search result", Required: true},
		}),
	}
}

func (t detailsTool) Invoke(ctx context.Context, raw json.RawMessage) (any, error) {
	var in detailsArgs
	if err := decodeArgs(raw, &in); err != nil {
		return nil, err
	}
	if err := requireServiceID(in.ServiceID); err != nil {
		return nil, err
	}
	return t.store.Get(ctx, int64(in.ServiceID))
}
