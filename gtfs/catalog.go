package gtfs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

var (
	ErrDuplicateStop  = errors.New("gtfs: duplicate stop id")
	ErrDuplicateRoute = errors.New("gtfs: duplicate route key")
	ErrUnknownStop    = errors.New("gtfs: route references unknown stop")
	ErrShapeTooShort  = errors.New("gtfs: route shape needs at least two points")
	ErrNoStops        = errors.New("gtfs: route has no stops")
)

// Stop is a boarding location from stops.txt.
type Stop struct {
	ID       string
	Name     string
	Location geo.Point
}

// Route is one published variant of a line: a single shape with the ordered
// stops served along it. A GTFS route usually yields one Route per direction.
type Route struct {
	Key         string // unique within the catalog
	RouteID     string // route_id shared by all variants of the line
	ShortName   string
	LongName    string
	Type        int // GTFS route_type
	DirectionID string
	ShapeID     string
	Shape       []geo.Point
	StopIDs     []string
	BBox        geo.BBox
}

// DisplayName returns the short name, falling back to the long name and then
// the route id.
func (r *Route) DisplayName() string {
	switch {
	case r.ShortName != "":
		return r.ShortName
	case r.LongName != "":
		return r.LongName
	default:
		return r.RouteID
	}
}

// Catalog is the immutable reference data the matcher reads: flat route and
// stop tables with key lookups. Routes are addressed by their index in Routes.
//
// Thread safety: safe for concurrent reads once built.
type Catalog struct {
	AgencyID string
	Routes   []Route
	Stops    []Stop

	routeIdx map[string]int
	stopIdx  map[string]int
}

func (c *Catalog) reindex() {
	c.routeIdx = make(map[string]int, len(c.Routes))
	for i := range c.Routes {
		c.routeIdx[c.Routes[i].Key] = i
	}
	c.stopIdx = make(map[string]int, len(c.Stops))
	for i := range c.Stops {
		c.stopIdx[c.Stops[i].ID] = i
	}
}

// Len returns the number of routes.
func (c *Catalog) Len() int { return len(c.Routes) }

// Route returns the route at catalog index i.
func (c *Catalog) Route(i int) *Route { return &c.Routes[i] }

// RouteIndex looks up a route by key.
func (c *Catalog) RouteIndex(key string) (int, bool) {
	i, ok := c.routeIdx[key]
	return i, ok
}

// Stop looks up a stop by id.
func (c *Catalog) Stop(id string) (Stop, bool) {
	i, ok := c.stopIdx[id]
	if !ok {
		return Stop{}, false
	}
	return c.Stops[i], true
}

// RouteStops returns the ordered stops of route i.
func (c *Catalog) RouteStops(i int) []Stop {
	r := &c.Routes[i]
	out := make([]Stop, 0, len(r.StopIDs))
	for _, id := range r.StopIDs {
		if s, ok := c.Stop(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// Sibling returns the opposite-direction variant of route i: same RouteID,
// different DirectionID. The variant with the most stops wins, then the lowest
// index.
func (c *Catalog) Sibling(i int) (int, bool) {
	r := &c.Routes[i]
	best := -1
	for j := range c.Routes {
		o := &c.Routes[j]
		if j == i || o.RouteID != r.RouteID || o.DirectionID == r.DirectionID {
			continue
		}
		if best < 0 || len(o.StopIDs) > len(c.Routes[best].StopIDs) {
			best = j
		}
	}
	return best, best >= 0
}

// Builder assembles a Catalog and enforces its invariants.
type Builder struct {
	c *Catalog
}

// NewBuilder starts an empty catalog for agencyID.
func NewBuilder(agencyID string) *Builder {
	c := &Catalog{AgencyID: agencyID}
	c.reindex()
	return &Builder{c: c}
}

// AddStop registers a stop.
func (b *Builder) AddStop(s Stop) error {
	if _, ok := b.c.stopIdx[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStop, s.ID)
	}
	b.c.stopIdx[s.ID] = len(b.c.Stops)
	b.c.Stops = append(b.c.Stops, s)
	return nil
}

// AddRoute registers a route variant. Stops must be added first. An empty Key
// defaults to RouteID; the bounding box is computed from the shape.
func (b *Builder) AddRoute(r Route) error {
	if r.Key == "" {
		r.Key = r.RouteID
	}
	if _, ok := b.c.routeIdx[r.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Key)
	}
	if len(r.Shape) < 2 {
		return fmt.Errorf("%w: %s", ErrShapeTooShort, r.Key)
	}
	if len(r.StopIDs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoStops, r.Key)
	}
	for _, id := range r.StopIDs {
		if _, ok := b.c.stopIdx[id]; !ok {
			return fmt.Errorf("%w: route %s stop %s", ErrUnknownStop, r.Key, id)
		}
	}
	r.Shape = append([]geo.Point(nil), r.Shape...)
	r.StopIDs = append([]string(nil), r.StopIDs...)
	r.BBox = geo.BoundsOf(r.Shape)
	b.c.routeIdx[r.Key] = len(b.c.Routes)
	b.c.Routes = append(b.c.Routes, r)
	return nil
}

// Build returns the catalog. The builder must not be used afterwards.
func (b *Builder) Build() *Catalog {
	c := b.c
	b.c = nil
	return c
}

// RouteKeys returns all route keys in sorted order.
func (c *Catalog) RouteKeys() []string {
	keys := make([]string, 0, len(c.Routes))
	for _, r := range c.Routes {
		keys = append(keys, r.Key)
	}
	sort.Strings(keys)
	return keys
}
