package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/xavierca1/pipeline-crm/internal/entity"
	"github.com/xavierca1/pipeline-crm/internal/infra/queue"
)

const maxTitleLength = 500

// IngestLeadInput is the body posted by the automation workflow. The
// English aliases are accepted alongside the original field names.
type IngestLeadInput struct {
	PipelineID       string   `json:"pipeline_id"`
	Title            string   `json:"title"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	PhoneCountryCode string   `json:"phone_country_code"`
	WhatsApp         string   `json:"whatsapp"`
	Website          string   `json:"website"`
	Source           string   `json:"source"`
	Notes            string   `json:"notes"`
	Nacionalidade    string   `json:"nacionalidade"`
	Nationality      string   `json:"nationality"`
	Resumo           string   `json:"resumo"`
	Summary          string   `json:"summary"`
	Valor            Amount   `json:"valor"`
	Value            Amount   `json:"value"`
	Tags             []string `json:"tags"`
}

func (in IngestLeadInput) Validate() []ValidationError {
	var errs []ValidationError
	if in.PipelineID == "" {
		errs = append(errs, ValidationError{Field: "pipeline_id", Message: "Required"})
	} else if !isUUID(in.PipelineID) {
		errs = append(errs, ValidationError{Field: "pipeline_id", Message: "Invalid uuid"})
	}
	switch n := utf8.RuneCountInString(in.Title); {
	case n == 0:
		errs = append(errs, ValidationError{Field: "title", Message: "Required"})
	case n > maxTitleLength:
		errs = append(errs, ValidationError{Field: "title", Message: "String must contain at most 500 character(s)"})
	}
	if in.Email != "" && !isEmail(in.Email) {
		errs = append(errs, ValidationError{Field: "email", Message: "Invalid email"})
	}
	if in.Website != "" && !isURL(in.Website) {
		errs = append(errs, ValidationError{Field: "website", Message: "Invalid url"})
	}
	if in.Valor.Invalid {
		errs = append(errs, ValidationError{Field: "valor", Message: "Expected number"})
	}
	if in.Value.Invalid {
		errs = append(errs, ValidationError{Field: "value", Message: "Expected number"})
	}
	return errs
}

type IngestedLead struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	PipelineID string `json:"pipeline_id"`
	StageID    string `json:"stage_id"`
}

type IngestLeadOutput struct {
	Success bool         `json:"success"`
	Lead    IngestedLead `json:"lead"`
}

type IngestLeadUseCase struct {
	Token       string
	DedupeField entity.DedupeField

	Pipelines  entity.PipelineRepositoryInterface
	Stages     entity.StageRepositoryInterface
	Leads      entity.LeadRepositoryInterface
	Activities entity.ActivityRepositoryInterface
	Queue      QueueProducerInterface
}

func NewIngestLeadUseCase(
	token string,
	dedupeField entity.DedupeField,
	pipelines entity.PipelineRepositoryInterface,
	stages entity.StageRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	activities entity.ActivityRepositoryInterface,
	queue QueueProducerInterface,
) *IngestLeadUseCase {
	if dedupeField == "" {
		dedupeField = entity.DedupeEmail
	}
	return &IngestLeadUseCase{
		Token:       token,
		DedupeField: dedupeField,
		Pipelines:   pipelines,
		Stages:      stages,
		Leads:       leads,
		Activities:  activities,
		Queue:       queue,
	}
}

// Authorize checks the shared secret. With no secret configured every call
// is rejected.
func (uc *IngestLeadUseCase) Authorize(token string) error {
	if uc.Token == "" || token == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(uc.Token)) != 1 {
		return &DomainError{Code: CodeUnauthorized, Message: "Invalid or missing API token"}
	}
	return nil
}

// Execute places the lead in the first stage of the pipeline, rejecting it
// when another lead of the pipeline already holds the same dedupe value.
func (uc *IngestLeadUseCase) Execute(ctx context.Context, in IngestLeadInput) (*IngestLeadOutput, error) {
	if errs := in.Validate(); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	pipeline, err := uc.Pipelines.FindByID(ctx, in.PipelineID)
	if err != nil && !errors.Is(err, entity.ErrNotFound) {
		return nil, storeError(err, "pipeline")
	}
	if pipeline == nil || pipeline.IsArchived {
		return nil, notFound("Pipeline not found or archived")
	}

	stage, err := uc.Stages.First(ctx, pipeline.ID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, invalid("Pipeline has no stages")
	}
	if err != nil {
		return nil, storeError(err, "stages")
	}

	lead := uc.buildLead(in, stage)

	if lead.DedupeValue(uc.DedupeField) != "" {
		err = uc.Leads.CreateDeduplicated(ctx, lead, uc.DedupeField)
	} else {
		err = uc.Leads.Create(ctx, lead)
	}
	if errors.Is(err, entity.ErrDuplicateLead) {
		return nil, conflict("Lead with this "+string(uc.DedupeField)+" already exists in pipeline", err)
	}
	if err != nil {
		return nil, technical("Failed to create lead", err)
	}

	if tags := normalizeTags(in.Tags); len(tags) > 0 {
		if err := uc.Leads.AddTags(ctx, lead.ID, tags); err != nil {
			log.Printf("⚠️ failed to tag ingested lead %s: %v", lead.ID, err)
		}
	}
	appendActivity(ctx, uc.Activities, lead.ID, entity.ActivityCreated, map[string]any{"source": lead.Source}, nil)
	publish(ctx, uc.Queue, queue.EventLeadIngested, lead, nil)

	return &IngestLeadOutput{
		Success: true,
		Lead: IngestedLead{
			ID:         lead.ID,
			Title:      lead.Title,
			PipelineID: lead.PipelineID,
			StageID:    lead.StageID,
		},
	}, nil
}

func (uc *IngestLeadUseCase) buildLead(in IngestLeadInput, stage *entity.Stage) *entity.Lead {
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = entity.SourceIngest
	}
	value := in.Valor.Value
	if value == nil {
		value = in.Value.Value
	}

	lead := &entity.Lead{
		PipelineID:  stage.PipelineID,
		StageID:     stage.ID,
		Title:       in.Title,
		Email:       entity.NullIfEmpty(in.Email),
		Phone:       entity.NullIfEmpty(in.Phone),
		WhatsApp:    entity.NullIfEmpty(in.WhatsApp),
		Website:     entity.NullIfEmpty(in.Website),
		Source:      source,
		Notes:       entity.NullIfEmpty(in.Notes),
		Summary:     entity.NullIfEmpty(firstNonEmpty(in.Resumo, in.Summary)),
		Nationality: entity.NullIfEmpty(firstNonEmpty(in.Nacionalidade, in.Nationality)),
		Value:       value,
		Outcome:     entity.OutcomeOpen,
		Position:    0,
	}
	lead.PhoneCountryCode = countryCodeFor(lead.Phone, in.PhoneCountryCode)
	return lead
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
