package entity

import (
	"fmt"
	"strings"
)

// BoardStage is a stage column with its leads in display order.
type BoardStage struct {
	Stage
	Leads []Lead `json:"leads"`
}

// Board is the in-memory kanban view of a pipeline. It is a transient copy of
// the store's rows; the store stays authoritative.
type Board struct {
	PipelineID string       `json:"pipeline_id"`
	Stages     []BoardStage `json:"stages"`
}

// NewBoard groups leads under their stages. Stages and leads are expected in
// position order already. Leads pointing at a stage outside the pipeline are
// left out.
func NewBoard(pipelineID string, stages []Stage, leads []Lead) *Board {
	b := &Board{PipelineID: pipelineID, Stages: make([]BoardStage, len(stages))}
	byStage := make(map[string]int, len(stages))
	for i, s := range stages {
		b.Stages[i] = BoardStage{Stage: s, Leads: []Lead{}}
		byStage[s.ID] = i
	}
	for _, l := range leads {
		if i, ok := byStage[l.StageID]; ok {
			b.Stages[i].Leads = append(b.Stages[i].Leads, l)
		}
	}
	return b
}

// Clone returns a deep copy used as the last known-good snapshot.
func (b *Board) Clone() *Board {
	c := &Board{PipelineID: b.PipelineID, Stages: make([]BoardStage, len(b.Stages))}
	for i, s := range b.Stages {
		leads := make([]Lead, len(s.Leads))
		for j, l := range s.Leads {
			if l.Tags != nil {
				l.Tags = append([]string(nil), l.Tags...)
			}
			leads[j] = l
		}
		c.Stages[i] = BoardStage{Stage: s.Stage, Leads: leads}
	}
	return c
}

// Locate returns the stage and lead indexes of leadID.
func (b *Board) Locate(leadID string) (stageIdx, leadIdx int, ok bool) {
	for i, s := range b.Stages {
		for j, l := range s.Leads {
			if l.ID == leadID {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

func (b *Board) stageIndex(stageID string) int {
	for i, s := range b.Stages {
		if s.ID == stageID {
			return i
		}
	}
	return -1
}

// Stage returns the column with the given id.
func (b *Board) Stage(stageID string) (*BoardStage, bool) {
	i := b.stageIndex(stageID)
	if i < 0 {
		return nil, false
	}
	return &b.Stages[i], true
}

// DropTarget is where a dragged card was released: a stage column or another
// lead acting as insertion anchor. Exactly one field is set.
type DropTarget struct {
	StageID string
	LeadID  string
}

// ParseDropTarget reads the drag-and-drop ids "stage-<id>" and "lead-<id>".
func ParseDropTarget(overID string) (DropTarget, error) {
	switch {
	case strings.HasPrefix(overID, "stage-") && len(overID) > len("stage-"):
		return DropTarget{StageID: strings.TrimPrefix(overID, "stage-")}, nil
	case strings.HasPrefix(overID, "lead-") && len(overID) > len("lead-"):
		return DropTarget{LeadID: strings.TrimPrefix(overID, "lead-")}, nil
	}
	return DropTarget{}, fmt.Errorf("invalid drop target %q", overID)
}

// Move describes a persisted card move.
type Move struct {
	LeadID      string `json:"lead_id"`
	FromStageID string `json:"from_stage_id"`
	ToStageID   string `json:"to_stage_id"`
	Position    int    `json:"position"`
	// Order lists the target column's lead ids after the move; positions are
	// renumbered from it.
	Order []string `json:"order"`
}

// Move splices leadID out of its stage and into the target stage: at the end
// of the column when dropped on a stage, right after the anchor when dropped
// on a lead. Dropping on the lead's own stage is still a move.
func (b *Board) Move(leadID string, target DropTarget) (Move, error) {
	si, li, ok := b.Locate(leadID)
	if !ok {
		return Move{}, fmt.Errorf("lead %s: %w", leadID, ErrNotFound)
	}
	if target.LeadID == leadID {
		return Move{}, ErrNoopMove
	}

	var ti int
	if target.StageID != "" {
		if ti = b.stageIndex(target.StageID); ti < 0 {
			return Move{}, fmt.Errorf("stage %s: %w", target.StageID, ErrNotFound)
		}
	} else {
		if ti, _, ok = b.Locate(target.LeadID); !ok {
			return Move{}, fmt.Errorf("lead %s: %w", target.LeadID, ErrNotFound)
		}
	}

	src := b.Stages[si].Leads
	lead := src[li]
	b.Stages[si].Leads = append(src[:li:li], src[li+1:]...)

	dst := b.Stages[ti].Leads
	pos := len(dst)
	if target.LeadID != "" {
		for j, l := range dst {
			if l.ID == target.LeadID {
				pos = j + 1
				break
			}
		}
	}

	move := Move{
		LeadID:      leadID,
		FromStageID: b.Stages[si].ID,
		ToStageID:   b.Stages[ti].ID,
		Position:    pos,
	}
	lead.StageID = move.ToStageID
	lead.Position = pos

	out := make([]Lead, 0, len(dst)+1)
	out = append(out, dst[:pos]...)
	out = append(out, lead)
	out = append(out, dst[pos:]...)
	move.Order = make([]string, len(out))
	for j := range out {
		out[j].Position = j
		move.Order[j] = out[j].ID
	}
	b.Stages[ti].Leads = out
	return move, nil
}

// CanDeleteStage rejects removing a stage that still holds leads or the last
// stage of the pipeline.
func (b *Board) CanDeleteStage(stageID string) error {
	s, ok := b.Stage(stageID)
	if !ok {
		return fmt.Errorf("stage %s: %w", stageID, ErrNotFound)
	}
	if len(s.Leads) > 0 {
		return ErrStageHasLeads
	}
	if len(b.Stages) <= 1 {
		return ErrLastStage
	}
	return nil
}

// NextStagePosition is one past the highest stage position, 0 for an empty board.
func (b *Board) NextStagePosition() int {
	max := -1
	for _, s := range b.Stages {
		if s.Position > max {
			max = s.Position
		}
	}
	return max + 1
}
