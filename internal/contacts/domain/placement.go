package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Placement is one pipeline membership: which stage the contact sits in and
// its ordinal position within that stage's column. A contact holds at most
// one Placement per pipeline.
type Placement struct {
	PipelineID uuid.UUID
	StageID    uuid.UUID
	Position   *int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UpsertPlacement applies an entry to a placement set keyed by pipeline ID:
// an existing membership for the same pipeline is updated in place, otherwise
// the entry is appended. The returned previous value is nil for a new
// membership. The at-most-one-entry-per-pipeline invariant holds by
// construction.
func UpsertPlacement(set []Placement, entry Placement) ([]Placement, *Placement) {
	for i, p := range set {
		if p.PipelineID == entry.PipelineID {
			previous := p
			entry.CreatedAt = p.CreatedAt
			set[i] = entry
			return set, &previous
		}
	}
	return append(set, entry), nil
}

// MoveLedger resolves what a committed placement move records in the ledger.
// A first membership in the pipeline yields PIPELINE_ADDED and a stage change
// yields PIPELINE_STAGE_UPDATED with the old and new stage/order. An
// order-only reorder within the same stage returns nil: the placement row
// updates but no ledger entry is written, since stage membership did not
// change.
func MoveLedger(previous *Placement, entry Placement) ActivityDetails {
	if previous == nil {
		return PipelineAddedDetails{
			PipelineID: entry.PipelineID,
			StageID:    entry.StageID,
			Position:   entry.Position,
		}
	}
	if previous.StageID == entry.StageID {
		return nil
	}
	return StageUpdatedDetails{
		PipelineID:  entry.PipelineID,
		OldStageID:  previous.StageID,
		NewStageID:  entry.StageID,
		OldPosition: previous.Position,
		NewPosition: entry.Position,
	}
}

// SortForStage orders placements the way a stage column is displayed:
// ascending by position, entries without a position last, ties broken by
// most recent update first.
func SortForStage(set []Placement) {
	sort.SliceStable(set, func(i, j int) bool {
		a, b := set[i], set[j]
		switch {
		case a.Position == nil && b.Position == nil:
			return a.UpdatedAt.After(b.UpdatedAt)
		case a.Position == nil:
			return false
		case b.Position == nil:
			return true
		case *a.Position != *b.Position:
			return *a.Position < *b.Position
		default:
			return a.UpdatedAt.After(b.UpdatedAt)
		}
	})
}
