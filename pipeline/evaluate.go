package pipeline

import (
	"sort"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
)

// RouteAgreement counts labelled trips of one observed route.
type RouteAgreement struct {
	RouteID  string
	Trips    int
	Agreeing int
}

// Evaluation compares matched routes with the route labels carried by the
// input (e.g. the route_id of GTFS-RT vehicle positions).
type Evaluation struct {
	Trips    int
	Failed   int
	Labelled int
	// Transit counts labelled trips with at least one transit segment.
	Transit  int
	Agreeing int
	PerRoute []RouteAgreement
}

// AgreementRate is Agreeing / Labelled, 0 when nothing was labelled.
func (e Evaluation) AgreementRate() float64 {
	if e.Labelled == 0 {
		return 0
	}
	return float64(e.Agreeing) / float64(e.Labelled)
}

// Evaluate scores results against their observed route labels. A labelled
// trip agrees when any of its transit segments rides the observed route_id.
func Evaluate(results []TripResult) Evaluation {
	var e Evaluation
	per := make(map[string]*RouteAgreement)
	for _, r := range results {
		e.Trips++
		if r.Err != nil {
			e.Failed++
			continue
		}
		observed := r.Itinerary.ObservedRouteID
		if observed == "" {
			continue
		}
		e.Labelled++
		ra := per[observed]
		if ra == nil {
			ra = &RouteAgreement{RouteID: observed}
			per[observed] = ra
		}
		ra.Trips++

		transit, agree := false, false
		for _, s := range r.Itinerary.Segments {
			if s.Mode != itinerary.ModeTransit {
				continue
			}
			transit = true
			if s.RouteID == observed {
				agree = true
			}
		}
		if transit {
			e.Transit++
		}
		if agree {
			e.Agreeing++
			ra.Agreeing++
		}
	}
	for _, ra := range per {
		e.PerRoute = append(e.PerRoute, *ra)
	}
	sort.Slice(e.PerRoute, func(i, j int) bool { return e.PerRoute[i].RouteID < e.PerRoute[j].RouteID })
	return e
}
