// Package spatial indexes catalog routes by bounding box so a trip leg only
// has to be compared against routes that pass near it.
//
// Thread safety: an Index is read-only after NewIndex and can be queried from
// any number of goroutines without locking.
package spatial

import (
	"sort"

	"github.com/tidwall/rtree"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfs"
)

// Index is an R-tree over route bounding boxes keyed by catalog index, plus
// each route's shape densified for sequence matching.
type Index struct {
	tree    rtree.RTreeG[int]
	shapes  [][]geo.Point
	catalog *gtfs.Catalog
}

// NewIndex builds the index for every route of c. Shapes are densified so that
// consecutive vertices are at most spacing degrees apart; spacing <= 0 keeps
// them as published.
func NewIndex(c *gtfs.Catalog, spacing float64) *Index {
	idx := &Index{
		shapes:  make([][]geo.Point, c.Len()),
		catalog: c,
	}
	for i := 0; i < c.Len(); i++ {
		r := c.Route(i)
		idx.tree.Insert(r.BBox.Min(), r.BBox.Max(), i)
		idx.shapes[i] = geo.Densify(r.Shape, spacing)
	}
	return idx
}

// Catalog returns the indexed catalog.
func (x *Index) Catalog() *gtfs.Catalog { return x.catalog }

// Len returns the number of indexed routes.
func (x *Index) Len() int { return len(x.shapes) }

// Shape returns the densified shape of route i. Callers must not modify it.
func (x *Index) Shape(i int) []geo.Point { return x.shapes[i] }

// Candidates returns the catalog indices of routes whose bounding box
// intersects box grown by bufferMeters, in ascending order. No match yields
// an empty result.
func (x *Index) Candidates(box geo.BBox, bufferMeters float64) []int {
	q := box.ExpandMeters(bufferMeters)
	var out []int
	x.tree.Search(q.Min(), q.Max(), func(_, _ [2]float64, i int) bool {
		out = append(out, i)
		return true
	})
	sort.Ints(out)
	return out
}
