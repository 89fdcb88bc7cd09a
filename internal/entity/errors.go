package entity

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrDuplicateLead = errors.New("duplicate lead")

	ErrStageHasLeads = errors.New("stage still holds leads")
	ErrLastStage     = errors.New("pipeline must keep at least one stage")
	ErrNoopMove      = errors.New("lead dropped on itself")
)
