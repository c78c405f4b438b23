package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }

func TestUpsertPlacement_NewPipelineAppends(t *testing.T) {
	pipelineID := uuid.New()
	entry := Placement{PipelineID: pipelineID, StageID: uuid.New(), Position: intPtr(1)}

	set, previous := UpsertPlacement(nil, entry)

	if previous != nil {
		t.Fatalf("expected no previous placement, got %+v", previous)
	}
	if len(set) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(set))
	}
	if set[0].PipelineID != pipelineID {
		t.Fatalf("expected pipeline %s, got %s", pipelineID, set[0].PipelineID)
	}
}

func TestUpsertPlacement_SamePipelineReplacesInPlace(t *testing.T) {
	pipelineID := uuid.New()
	oldStage := uuid.New()
	newStage := uuid.New()
	created := time.Now().Add(-time.Hour)

	set := []Placement{{PipelineID: pipelineID, StageID: oldStage, Position: intPtr(3), CreatedAt: created}}
	set, previous := UpsertPlacement(set, Placement{PipelineID: pipelineID, StageID: newStage, Position: intPtr(1)})

	if len(set) != 1 {
		t.Fatalf("expected 1 placement after upsert, got %d", len(set))
	}
	if previous == nil || previous.StageID != oldStage {
		t.Fatalf("expected previous stage %s, got %+v", oldStage, previous)
	}
	if set[0].StageID != newStage {
		t.Fatalf("expected stage %s, got %s", newStage, set[0].StageID)
	}
	if !set[0].CreatedAt.Equal(created) {
		t.Fatalf("expected original CreatedAt to be preserved")
	}
}

func TestUpsertPlacement_OtherPipelineUntouched(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	stage := uuid.New()

	set := []Placement{{PipelineID: first, StageID: stage}}
	set, previous := UpsertPlacement(set, Placement{PipelineID: second, StageID: uuid.New()})

	if previous != nil {
		t.Fatalf("expected no previous placement for a different pipeline")
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(set))
	}
	if set[0].PipelineID != first || set[0].StageID != stage {
		t.Fatalf("existing placement was modified: %+v", set[0])
	}
}

func TestMoveLedger_NewMembership(t *testing.T) {
	entry := Placement{PipelineID: uuid.New(), StageID: uuid.New(), Position: intPtr(2)}

	details := MoveLedger(nil, entry)

	added, ok := details.(PipelineAddedDetails)
	if !ok {
		t.Fatalf("expected PipelineAddedDetails, got %T", details)
	}
	if added.PipelineID != entry.PipelineID || added.StageID != entry.StageID || *added.Position != 2 {
		t.Fatalf("unexpected details %+v", added)
	}
}

func TestMoveLedger_StageChange(t *testing.T) {
	pipelineID := uuid.New()
	previous := Placement{PipelineID: pipelineID, StageID: uuid.New(), Position: intPtr(1)}
	entry := Placement{PipelineID: pipelineID, StageID: uuid.New(), Position: intPtr(3)}

	details := MoveLedger(&previous, entry)

	updated, ok := details.(StageUpdatedDetails)
	if !ok {
		t.Fatalf("expected StageUpdatedDetails, got %T", details)
	}
	if updated.OldStageID != previous.StageID || updated.NewStageID != entry.StageID {
		t.Fatalf("unexpected stages %+v", updated)
	}
	if *updated.OldPosition != 1 || *updated.NewPosition != 3 {
		t.Fatalf("unexpected positions %+v", updated)
	}
}

func TestMoveLedger_OrderOnlyReorderWritesNothing(t *testing.T) {
	pipelineID := uuid.New()
	stageID := uuid.New()
	previous := Placement{PipelineID: pipelineID, StageID: stageID, Position: intPtr(1)}
	entry := Placement{PipelineID: pipelineID, StageID: stageID, Position: intPtr(5)}

	if details := MoveLedger(&previous, entry); details != nil {
		t.Fatalf("expected no ledger entry for a same-stage reorder, got %+v", details)
	}
}

func TestSortForStage_PositionAscendingNilLast(t *testing.T) {
	now := time.Now()
	set := []Placement{
		{Position: nil, UpdatedAt: now},
		{Position: intPtr(2), UpdatedAt: now},
		{Position: intPtr(1), UpdatedAt: now},
	}

	SortForStage(set)

	if *set[0].Position != 1 || *set[1].Position != 2 {
		t.Fatalf("expected positions 1,2 first, got %v,%v", set[0].Position, set[1].Position)
	}
	if set[2].Position != nil {
		t.Fatalf("expected unpositioned placement last")
	}
}

func TestSortForStage_TieBrokenByRecency(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	oldStage := uuid.New()
	newStage := uuid.New()

	set := []Placement{
		{StageID: oldStage, Position: intPtr(1), UpdatedAt: older},
		{StageID: newStage, Position: intPtr(1), UpdatedAt: newer},
	}

	SortForStage(set)

	if set[0].StageID != newStage {
		t.Fatalf("expected the more recently updated placement first")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane.Doe@Example.COM "); got != "jane.doe@example.com" {
		t.Fatalf("expected jane.doe@example.com, got %q", got)
	}
	if got := NormalizeEmail(""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
