// Package audit keeps an append-only secondary record of every mutating
// action. Writes never block or fail the primary workflow: a lost audit
// entry degrades observability, not correctness.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/idhini/core"
)

var NowFunc = time.Now // mockable

type (
	Record struct {
		ID         string            `json:"id"`
		ActorID    string            `json:"actor_id"`
		Action     string            `json:"action"`
		EntityType string            `json:"entity_type"`
		EntityID   string            `json:"entity_id"`
		Metadata   map[string]string `json:"metadata,omitempty"`
		CreatedAt  time.Time         `json:"created_at"` // UTC
	}

	// Sink is the external append-only write contract.
	Sink interface {
		Append(ctx context.Context, rec Record) error
	}

	Recorder struct {
		sink     Sink
		reporter core.Reporter
	}
)

func NewRecorder(sink Sink, reporter core.Reporter) *Recorder {
	return &Recorder{sink: sink, reporter: reporter}
}

// Record appends an audit entry. Fire-and-forget: sink failures are
// reported on the side channel and never returned to the caller.
func (r *Recorder) Record(ctx context.Context, actorID, action, entityType, entityID string, metadata map[string]string) {
	rec := Record{
		ID:         uuid.New().String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		CreatedAt:  NowFunc().UTC(),
	}
	if err := r.sink.Append(ctx, rec); err != nil {
		r.reporter.Report(fmt.Sprintf("audit: append %s %s/%s", action, entityType, entityID), err)
	}
}
