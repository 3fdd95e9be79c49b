package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	catalogx "github.com/tanpawarit/Community-Resource-Navigator/agent/catalog"
	geox "github.com/tanpawarit/Community-Resource-Navigator/agent/geo"
)

const (
	DefaultRadiusMiles = 5.0
	MaxResults         = 10
)

var ErrInvalidQuery = errors.New("invalid search query")

type Query struct {
	Category    string
	Keywords    string
	Center      *geox.Point
	RadiusMiles float64
}

// Match is a ranked search hit. DistanceMiles is set only when the query had a center.
type Match struct {
	Service       catalogx.ServiceRecord
	DistanceMiles *float64
}

type Engine struct {
	store catalogx.Store
}

func NewEngine(store catalogx.Store) *Engine {
	return &Engine{store: store}
}

// Search filters active records by category and keywords and, when a center
// is given, drops anything beyond the radius and orders by distance. Ties keep
// catalog order. At most MaxResults matches are returned.
func (e *Engine) Search(ctx context.Context, q Query) ([]Match, error) {
	filter := catalogx.Filter{
		ActiveOnly: true,
		Keyword:    strings.TrimSpace(q.Keywords),
	}
	if strings.TrimSpace(q.Category) != "" {
		cat, err := catalogx.ParseCategory(q.Category)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		filter.Category = cat
	}

	radius := q.RadiusMiles
	if radius == 0 {
		radius = DefaultRadiusMiles
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: radius_miles must be positive", ErrInvalidQuery)
	}

	records, err := e.store.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	if q.Center == nil {
		out := make([]Match, 0, min(len(records), MaxResults))
		for _, rec := range records {
			if len(out) == MaxResults {
				break
			}
			out = append(out, Match{Service: rec})
		}
		return out, nil
	}

	type ranked struct {
		rec      catalogx.ServiceRecord
		distance float64
		rounded  float64
	}
	candidates := make([]ranked, 0, len(records))
	for _, rec := range records {
		loc, ok := rec.Location()
		if !ok {
			continue
		}
		d := geox.Distance(*q.Center, loc)
		// The radius applies to the reported distance.
		r := geox.RoundMiles(d)
		if r > radius {
			continue
		}
		candidates = append(candidates, ranked{rec: rec, distance: d, rounded: r})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > MaxResults {
		candidates = candidates[:MaxResults]
	}
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		d := c.rounded
		out = append(out, Match{Service: c.rec, DistanceMiles: &d})
	}
	return out, nil
}
