package memory

import (
	"time"

	"github.com/google/uuid"
)

// Edge is a directed, weighted, typed relationship as seen from its source.
// Weight is not clamped; conventionally it lies in [0, 1]. RelationType is a
// free-form label such as "relates_to" or "derived_from".
type Edge struct {
	TargetID     uuid.UUID `json:"target_id"`
	RelationType string    `json:"relation_type"`
	Weight       float32   `json:"weight"`
	CreatedAt    time.Time `json:"created_at"`
}

// InboundEdge is the same relationship as seen from its target.
type InboundEdge struct {
	SourceID     uuid.UUID `json:"source_id"`
	RelationType string    `json:"relation_type"`
	Weight       float32   `json:"weight"`
	CreatedAt    time.Time `json:"created_at"`
}
