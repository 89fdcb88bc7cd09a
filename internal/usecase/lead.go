package usecase

import (
	"context"
	"errors"
	"log"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

type LeadUseCase struct {
	Leads      entity.LeadRepositoryInterface
	Stages     entity.StageRepositoryInterface
	Pipelines  entity.PipelineRepositoryInterface
	Profiles   entity.ProfileRepositoryInterface
	Activities entity.ActivityRepositoryInterface
	Tasks      entity.TaskRepositoryInterface
	Access     *AccessPolicy
	Queue      QueueProducerInterface
}

func NewLeadUseCase(
	leads entity.LeadRepositoryInterface,
	stages entity.StageRepositoryInterface,
	pipelines entity.PipelineRepositoryInterface,
	profiles entity.ProfileRepositoryInterface,
	activities entity.ActivityRepositoryInterface,
	tasks entity.TaskRepositoryInterface,
	access *AccessPolicy,
	queue QueueProducerInterface,
) *LeadUseCase {
	return &LeadUseCase{
		Leads:      leads,
		Stages:     stages,
		Pipelines:  pipelines,
		Profiles:   profiles,
		Activities: activities,
		Tasks:      tasks,
		Access:     access,
		Queue:      queue,
	}
}

// LeadDetail is the lead drawer: the lead with its timeline, newest first,
// and its tasks by due date.
type LeadDetail struct {
	Lead       *entity.Lead          `json:"lead"`
	Activities []entity.LeadActivity `json:"activities"`
	Tasks      []entity.Task         `json:"tasks"`
}

func (uc *LeadUseCase) CreateLead(ctx context.Context, actor Actor, in LeadInput) (*entity.Lead, error) {
	var errs []ValidationError
	if strings.TrimSpace(in.PipelineID) == "" {
		errs = append(errs, ValidationError{Field: "pipeline_id", Message: "pipeline_id is required"})
	}
	if strings.TrimSpace(in.StageID) == "" {
		errs = append(errs, ValidationError{Field: "stage_id", Message: "stage_id is required"})
	}
	errs = append(errs, validateLeadFields(in)...)
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if err := uc.Access.RequirePipeline(ctx, actor, in.PipelineID); err != nil {
		return nil, err
	}
	pipeline, err := uc.Pipelines.FindByID(ctx, in.PipelineID)
	if err != nil {
		return nil, storeError(err, "pipeline")
	}
	if pipeline.IsArchived {
		return nil, notFound("pipeline not found")
	}
	stage, err := uc.Stages.FindByID(ctx, in.StageID)
	if err != nil {
		return nil, storeError(err, "stage")
	}
	if stage.PipelineID != in.PipelineID {
		return nil, validationFailed([]ValidationError{{Field: "stage_id", Message: "stage does not belong to the pipeline"}})
	}

	lead := &entity.Lead{
		PipelineID: in.PipelineID,
		StageID:    stage.ID,
		Source:     entity.SourceManual,
		Outcome:    entity.OutcomeOpen,
	}
	applyLeadInput(lead, in)
	if in.Position != nil {
		lead.Position = *in.Position
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		return nil, storeError(err, "lead")
	}
	if tags := normalizeTags(in.Tags); len(tags) > 0 {
		if err := uc.Leads.AddTags(ctx, lead.ID, tags); err != nil {
			log.Printf("⚠️ failed to tag lead %s: %v", lead.ID, err)
		} else {
			lead.Tags = tags
		}
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityCreated, nil, strPtr(actor.UserID))

	if lead.AssigneeUserID != nil {
		uc.notifyAssignee(ctx, lead)
	}
	return lead, nil
}

// UpdateLead rewrites every editable field of the lead.
func (uc *LeadUseCase) UpdateLead(ctx context.Context, actor Actor, in LeadInput) (*entity.Lead, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, validationFailed([]ValidationError{{Field: "id", Message: "id is required"}})
	}
	if errs := validateLeadFields(in); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead, err := uc.lead(ctx, actor, in.ID)
	if err != nil {
		return nil, err
	}
	before := *lead
	applyLeadInput(lead, in)
	if lead.Source == "" {
		lead.Source = entity.SourceManual
	}

	if err := uc.Leads.Update(ctx, lead); err != nil {
		return nil, storeError(err, "lead")
	}

	by := strPtr(actor.UserID)
	if !sameString(before.AssigneeUserID, lead.AssigneeUserID) {
		appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityAssigneeChange, map[string]any{
			"old_assignee_id": before.AssigneeUserID,
			"new_assignee_id": lead.AssigneeUserID,
		}, by)
		if lead.AssigneeUserID != nil {
			uc.notifyAssignee(ctx, lead)
		}
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityFieldEdit, map[string]any{
		"fields": changedFields(&before, lead),
	}, by)
	return lead, nil
}

func (uc *LeadUseCase) ChangeAssignee(ctx context.Context, actor Actor, leadID, assigneeID string) (*entity.Lead, error) {
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	next := selectValue(assigneeID)
	if sameString(lead.AssigneeUserID, next) {
		return lead, nil
	}
	if next != nil {
		if _, err := uc.Profiles.FindByID(ctx, *next); err != nil {
			return nil, storeError(err, "assignee")
		}
	}

	if err := uc.Leads.UpdateAssignee(ctx, lead.ID, next); err != nil {
		return nil, storeError(err, "lead")
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityAssigneeChange, map[string]any{
		"old_assignee_id": lead.AssigneeUserID,
		"new_assignee_id": next,
	}, strPtr(actor.UserID))

	lead.AssigneeUserID = next
	if next != nil {
		uc.notifyAssignee(ctx, lead)
	}
	return lead, nil
}

// AddNote appends note to the lead's notes, separated by a blank line.
func (uc *LeadUseCase) AddNote(ctx context.Context, actor Actor, leadID, note string) (*entity.Lead, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, validationFailed([]ValidationError{{Field: "note", Message: "note is required"}})
	}
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	notes := note
	if lead.Notes != nil && *lead.Notes != "" {
		notes = *lead.Notes + "\n\n" + note
	}
	if err := uc.Leads.UpdateNotes(ctx, lead.ID, &notes); err != nil {
		return nil, storeError(err, "lead")
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityNoteAdded, map[string]any{"note": note}, strPtr(actor.UserID))

	lead.Notes = &notes
	return lead, nil
}

func (uc *LeadUseCase) AddTag(ctx context.Context, actor Actor, leadID, tag string) (*entity.Lead, error) {
	tag = entity.NormalizeTag(tag)
	if tag == "" {
		return nil, validationFailed([]ValidationError{{Field: "tag", Message: "tag is required"}})
	}
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(lead.Tags, tag) {
		return nil, conflict("tag already exists on this lead", entity.ErrConflict)
	}

	if err := uc.Leads.AddTags(ctx, lead.ID, []string{tag}); err != nil {
		if errors.Is(err, entity.ErrConflict) {
			return nil, conflict("tag already exists on this lead", err)
		}
		return nil, storeError(err, "tag")
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityTagAdded, map[string]any{"tag": tag}, strPtr(actor.UserID))

	lead.Tags = append(lead.Tags, tag)
	return lead, nil
}

func (uc *LeadUseCase) RemoveTag(ctx context.Context, actor Actor, leadID, tag string) (*entity.Lead, error) {
	tag = entity.NormalizeTag(tag)
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	if err := uc.Leads.RemoveTag(ctx, lead.ID, tag); err != nil {
		return nil, storeError(err, "tag")
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityTagRemoved, map[string]any{"tag": tag}, strPtr(actor.UserID))

	lead.Tags = slices.DeleteFunc(lead.Tags, func(t string) bool { return t == tag })
	return lead, nil
}

func (uc *LeadUseCase) SetOutcome(ctx context.Context, actor Actor, leadID, outcome string) (*entity.Lead, error) {
	o, err := entity.ParseLeadOutcome(outcome)
	if err != nil {
		return nil, validationFailed([]ValidationError{{Field: "outcome", Message: err.Error()}})
	}
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	if err := uc.Leads.UpdateOutcome(ctx, lead.ID, o); err != nil {
		return nil, storeError(err, "lead")
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityFieldEdit, map[string]any{
		"fields":  []string{"outcome"},
		"outcome": o,
	}, strPtr(actor.UserID))

	lead.Outcome = o
	return lead, nil
}

func (uc *LeadUseCase) DeleteLead(ctx context.Context, actor Actor, leadID string) error {
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return err
	}
	return storeError(uc.Leads.Delete(ctx, lead.ID), "lead")
}

func (uc *LeadUseCase) GetLead(ctx context.Context, actor Actor, leadID string) (*LeadDetail, error) {
	lead, err := uc.lead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	detail := &LeadDetail{Lead: lead}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		detail.Activities, err = uc.Activities.ListByLead(gctx, lead.ID)
		return storeError(err, "activities")
	})
	g.Go(func() (err error) {
		detail.Tasks, err = uc.Tasks.ListByLead(gctx, lead.ID)
		return storeError(err, "tasks")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListLeads returns every lead the actor can see, newest first.
func (uc *LeadUseCase) ListLeads(ctx context.Context, actor Actor) ([]entity.Lead, error) {
	filter := entity.LeadFilter{}
	if !actor.IsAdmin() {
		filter.MemberUserID = actor.UserID
	}
	leads, err := uc.Leads.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "leads")
	}
	return leads, nil
}

// lead loads a lead the actor may access.
func (uc *LeadUseCase) lead(ctx context.Context, actor Actor, id string) (*entity.Lead, error) {
	lead, err := uc.Leads.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "lead")
	}
	if err := uc.Access.RequirePipeline(ctx, actor, lead.PipelineID); err != nil {
		return nil, err
	}
	return lead, nil
}

func (uc *LeadUseCase) notifyAssignee(ctx context.Context, lead *entity.Lead) {
	profile, err := uc.Profiles.FindByID(ctx, *lead.AssigneeUserID)
	if err != nil {
		log.Printf("⚠️ assignee %s of lead %s not found: %v", *lead.AssigneeUserID, lead.ID, err)
	}
	publish(ctx, uc.Queue, queue.EventLeadAssigned, lead, profile)
}

func validateLeadFields(in LeadInput) []ValidationError {
	var errs []ValidationError
	if strings.TrimSpace(in.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "title is required"})
	}
	if email := strings.TrimSpace(in.Email); email != "" && !isEmail(email) {
		errs = append(errs, ValidationError{Field: "email", Message: "invalid email"})
	}
	if in.Value.Invalid {
		errs = append(errs, ValidationError{Field: "valor", Message: "expected a number"})
	}
	return errs
}

func applyLeadInput(lead *entity.Lead, in LeadInput) {
	lead.Title = strings.TrimSpace(in.Title)
	lead.Email = entity.NullIfEmpty(in.Email)
	lead.Phone = entity.NullIfEmpty(in.Phone)
	lead.PhoneCountryCode = countryCodeFor(lead.Phone, in.PhoneCountryCode)
	lead.WhatsApp = whatsAppFor(lead.Phone, lead.PhoneCountryCode, in.WhatsApp)
	lead.Website = entity.NullIfEmpty(in.Website)
	if s := strings.TrimSpace(in.Source); s != "" {
		lead.Source = s
	}
	lead.Notes = entity.NullIfEmpty(in.Notes)
	lead.AssigneeUserID = selectValue(in.AssigneeUserID)
	lead.Summary = entity.NullIfEmpty(in.Summary)
	lead.Nationality = selectValue(in.Nationality)
	lead.Value = in.Value.Value
}

// whatsAppFor derives the WhatsApp number from the phone and its country
// code. Without a phone the explicit value is kept.
func whatsAppFor(phone, countryCode *string, explicit string) *string {
	if phone == nil || countryCode == nil {
		return entity.NullIfEmpty(explicit)
	}
	return entity.NullIfEmpty(entity.FullPhone(*countryCode, *phone))
}

func changedFields(before, after *entity.Lead) []string {
	var fields []string
	add := func(name string, changed bool) {
		if changed {
			fields = append(fields, name)
		}
	}
	add("title", before.Title != after.Title)
	add("email", !sameString(before.Email, after.Email))
	add("phone", !sameString(before.Phone, after.Phone))
	add("phone_country_code", !sameString(before.PhoneCountryCode, after.PhoneCountryCode))
	add("whatsapp", !sameString(before.WhatsApp, after.WhatsApp))
	add("website", !sameString(before.Website, after.Website))
	add("source", before.Source != after.Source)
	add("notes", !sameString(before.Notes, after.Notes))
	add("assignee_user_id", !sameString(before.AssigneeUserID, after.AssigneeUserID))
	add("resumo", !sameString(before.Summary, after.Summary))
	add("nacionalidade", !sameString(before.Nationality, after.Nationality))
	add("valor", !sameFloat(before.Value, after.Value))
	if fields == nil {
		fields = []string{}
	}
	return fields
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
