package pipeline

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
)

// conditionInfo holds aggregated information about a specific condition
type conditionInfo struct {
	count    int
	examples []string
}

// ConditionAggregator collects conditions during a batch and outputs consolidated summaries
type ConditionAggregator struct {
	mu         sync.Mutex
	conditions map[itinerary.Condition]*conditionInfo
}

// NewConditionAggregator creates a new condition aggregator
func NewConditionAggregator() *ConditionAggregator {
	return &ConditionAggregator{
		conditions: make(map[itinerary.Condition]*conditionInfo),
	}
}

// Add records a condition occurrence with an example ID
func (a *ConditionAggregator) Add(c itinerary.Condition, exampleID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	info := a.conditions[c]
	if info == nil {
		info = &conditionInfo{examples: make([]string, 0, 3)}
		a.conditions[c] = info
	}
	info.count++

	// Store up to 3 examples
	if len(info.examples) < 3 {
		info.examples = append(info.examples, exampleID)
	}
}

// Count returns how often c was recorded.
func (a *ConditionAggregator) Count(c itinerary.Condition) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if info := a.conditions[c]; info != nil {
		return info.count
	}
	return 0
}

// Examples returns up to three example ids recorded for c.
func (a *ConditionAggregator) Examples(c itinerary.Condition) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if info := a.conditions[c]; info != nil {
		return append([]string(nil), info.examples...)
	}
	return nil
}

// Counts returns a snapshot of all counts.
func (a *ConditionAggregator) Counts() map[itinerary.Condition]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[itinerary.Condition]int, len(a.conditions))
	for c, info := range a.conditions {
		out[c] = info.count
	}
	return out
}

// LogAll outputs all collected conditions in consolidated format
func (a *ConditionAggregator) LogAll(agencyID string) {
	for _, line := range a.Summary(agencyID) {
		log.Printf("%s", line)
	}
}

// Summary returns one message per recorded condition in pipeline stage order.
func (a *ConditionAggregator) Summary(agencyID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([]itinerary.Condition, 0, len(a.conditions))
	for c := range a.conditions {
		keys = append(keys, c)
	}
	itinerary.SortConditions(keys)

	lines := make([]string, 0, len(keys))
	for _, c := range keys {
		lines = append(lines, formatConditionMessage(c, agencyID, a.conditions[c]))
	}
	return lines
}

// formatConditionMessage creates a human-readable condition message
func formatConditionMessage(c itinerary.Condition, agencyID string, info *conditionInfo) string {
	var description, action string

	switch c {
	case itinerary.InsufficientData:
		description = "trips with fewer than two usable GPS fixes"
		action = "Skipping trip"
	case itinerary.DegenerateLeg:
		description = "legs too short to match"
		action = "Excluding leg from matching"
	case itinerary.NoCandidateRoutes:
		description = "legs with no route nearby"
		action = "Classifying leg as walking"
	case itinerary.BelowSimilarityThreshold:
		description = "legs whose best route score is below the threshold"
		action = "Classifying leg as walking"
	case itinerary.ApproximateStopResolution:
		description = "legs with an endpoint farther than the stop buffer from any stop"
		action = "Using the nearest stop on the route"
	case itinerary.DirectionAmbiguous:
		description = "legs whose stops resolve against the route direction"
		action = "Keeping the best scoring route variant"
	default:
		description = "unknown condition"
		action = "Keeping result as is"
	}

	return fmt.Sprintf("Catalog %s has %s (%d occurrences). %s. Examples: %s",
		agencyID, description, info.count, action, strings.Join(info.examples, ", "))
}
