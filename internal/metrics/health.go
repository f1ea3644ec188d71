package metrics

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

type healthResponse struct {
	Status        string `json:"status"`
	CatalogRoutes int    `json:"catalog_routes"`
	LastTripEpoch int64  `json:"last_trip_epoch"`
}

// Health tracks liveness of a batch run for the /health endpoint.
type Health struct {
	catalogRoutes int
	lastTrip      atomic.Int64
}

func NewHealth(catalogRoutes int) *Health {
	return &Health{catalogRoutes: catalogRoutes}
}

// TripDone records that a trip finished at t.
func (h *Health) TripDone(t time.Time) { h.lastTrip.Store(t.Unix()) }

func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	status := "ok"
	if h.catalogRoutes == 0 {
		status = "empty_catalog"
	}
	resp := healthResponse{
		Status:        status,
		CatalogRoutes: h.catalogRoutes,
		LastTripEpoch: h.lastTrip.Load(),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
