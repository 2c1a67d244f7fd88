package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Priority is an urgency class governing dispatch order. Lower numeric rank
// is dispatched first.
type Priority int

// Priority levels in ascending rank order. BATCH is the only level routed to
// the batch processor pool; all others route to the worker pool.
const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityBatch
)

// NumPriorities is the number of defined priority levels.
const NumPriorities = int(PriorityBatch) + 1

// Priorities returns all priority levels in ascending rank order.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, PriorityBatch}
}

// Valid reports whether p is one of the defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityCritical && p <= PriorityBatch
}

// String returns the level's canonical name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	case PriorityBatch:
		return "BATCH"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(p))
	}
}

// ParsePriority converts a level name to a Priority. Matching is
// case-insensitive. Returns ErrInvalidPriority for unrecognized names.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return PriorityCritical, nil
	case "HIGH":
		return PriorityHigh, nil
	case "MEDIUM":
		return PriorityMedium, nil
	case "LOW":
		return PriorityLow, nil
	case "BATCH":
		return PriorityBatch, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// MarshalJSON encodes the priority as its canonical name.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a priority from its name.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParsePriority(name)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
