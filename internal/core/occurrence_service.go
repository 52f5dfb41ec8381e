package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/ports/repository"
)

const maxJustificationLength = 2000

// OccurrenceStore is what the occurrence workflow needs from persistence.
type OccurrenceStore interface {
	repository.OccurrenceRepository
	repository.JustificationRepository
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetSector(ctx context.Context, id string) (*model.Sector, error)
}

// JustifyInput is an employee's answer to an occurrence.
type JustifyInput struct {
	OccurrenceID string                       `json:"occurrenceId"`
	Text         string                       `json:"text"`
	Category     *model.JustificationCategory `json:"category,omitempty"`
	NotifyHR     bool                         `json:"notifyHR"`
}

type OccurrenceService struct {
	repo      OccurrenceStore
	publisher messaging.Publisher
	now       func() time.Time
}

func NewOccurrenceService(repo OccurrenceStore, p messaging.Publisher) *OccurrenceService {
	return &OccurrenceService{repo: repo, publisher: p, now: time.Now}
}

func (s *OccurrenceService) List(ctx context.Context, f model.OccurrenceFilter) ([]model.Occurrence, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, f.Status)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown occurrence type %q", ErrInvalidInput, f.Type)
	}
	return s.repo.ListOccurrences(ctx, f)
}

// Get returns the occurrence with its employee, sector and justifications.
func (s *OccurrenceService) Get(ctx context.Context, id string) (*model.OccurrenceDetail, error) {
	occ, err := s.repo.GetOccurrence(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.OccurrenceDetail{Occurrence: *occ}
	if emp, err := s.repo.GetEmployee(ctx, occ.EmployeeID); err == nil {
		detail.Employee = emp
		if sector, err := s.repo.GetSector(ctx, emp.SectorID); err == nil {
			detail.Sector = sector
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	detail.Justifications, err = s.repo.ListJustifications(ctx, model.JustificationFilter{OccurrenceID: id})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *OccurrenceService) Stats(ctx context.Context, date time.Time) (*model.OccurrenceStats, error) {
	return s.repo.OccurrenceStats(ctx, date)
}

// Ack marks an OPEN occurrence as seen.
func (s *OccurrenceService) Ack(ctx context.Context, id string) (*model.Occurrence, error) {
	occ, err := s.repo.GetOccurrence(ctx, id)
	if err != nil {
		return nil, err
	}
	if occ.Status != model.StatusOccurrenceOpen {
		return nil, ErrOccurrenceAlreadyProcessed
	}
	return s.repo.UpdateOccurrenceStatus(ctx, id, model.StatusOccurrenceAck, nil)
}

// Resolve applies a manager decision. Approving closes the occurrence; asking
// for an adjustment or more details keeps it in ACK for the employee.
func (s *OccurrenceService) Resolve(ctx context.Context, id string, action model.ResolveAction, note *string) (*model.Occurrence, error) {
	occ, err := s.repo.GetOccurrence(ctx, id)
	if err != nil {
		return nil, err
	}
	if occ.Status == model.StatusOccurrenceResolved {
		return nil, ErrOccurrenceAlreadyResolved
	}

	switch action {
	case model.ActionApprove:
		return s.repo.UpdateOccurrenceStatus(ctx, id, model.StatusOccurrenceResolved, note)
	case model.ActionAdjust, model.ActionRequestDetails:
		return s.repo.UpdateOccurrenceStatus(ctx, id, model.StatusOccurrenceAck, note)
	default:
		return nil, ErrInvalidAction
	}
}

// Justify records an employee's justification, acknowledges the occurrence,
// tells the manager and, when asked to, escalates to HR.
func (s *OccurrenceService) Justify(ctx context.Context, in JustifyInput) (*model.Justification, error) {
	text := strings.TrimSpace(in.Text)
	if in.OccurrenceID == "" {
		return nil, fmt.Errorf("%w: occurrenceId is required", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(text); n == 0 || n > maxJustificationLength {
		return nil, fmt.Errorf("%w: text must have between 1 and %d characters", ErrInvalidInput, maxJustificationLength)
	}
	if in.Category != nil && !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, *in.Category)
	}

	occ, err := s.repo.GetOccurrence(ctx, in.OccurrenceID)
	if err != nil {
		return nil, err
	}

	j := &model.Justification{
		OccurrenceID: occ.ID,
		EmployeeID:   occ.EmployeeID,
		Date:         occ.Date,
		Text:         text,
		Category:     in.Category,
		NotifyHR:     in.NotifyHR,
	}
	if err := s.repo.AddJustification(ctx, j); err != nil {
		return nil, fmt.Errorf("store justification: %w", err)
	}

	day := dateKey(occ.Date)
	notification := messaging.NotificationEvent{
		Kind:            messaging.KindJustificationSubmitted,
		OccurrenceID:    occ.ID,
		EmployeeID:      occ.EmployeeID,
		Date:            day,
		Type:            occ.Type,
		Minutes:         occ.Minutes,
		JustificationID: j.ID,
		OccurredAt:      s.now().UTC(),
	}
	if err := s.publisher.PublishNotification(ctx, notification); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("justification_id", j.ID).Msg("Failed to publish manager notification")
	}

	if in.NotifyHR {
		escalation := messaging.EscalationEvent{
			OccurrenceID:    occ.ID,
			JustificationID: j.ID,
			EmployeeID:      occ.EmployeeID,
			Date:            day,
			Type:            occ.Type,
			Minutes:         occ.Minutes,
			Hours:           messaging.MinutesToHours(occ.Minutes),
			Text:            text,
			OccurredAt:      s.now().UTC(),
		}
		if in.Category != nil {
			escalation.Category = string(*in.Category)
		}
		if err := s.publisher.PublishEscalation(ctx, escalation); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("justification_id", j.ID).Msg("Failed to publish HR escalation")
		}
	}
	return j, nil
}

// SendDailySummaries publishes one summary per employee listing the OPEN
// occurrences of day, and returns how many were published.
func (s *OccurrenceService) SendDailySummaries(ctx context.Context, day time.Time) (int, error) {
	open, err := s.repo.ListOccurrences(ctx, model.OccurrenceFilter{Date: &day, Status: model.StatusOccurrenceOpen})
	if err != nil {
		return 0, fmt.Errorf("list open occurrences: %w", err)
	}

	byEmployee := map[string][]messaging.SummaryItem{}
	employees := []string{}
	for _, o := range open {
		if _, ok := byEmployee[o.EmployeeID]; !ok {
			employees = append(employees, o.EmployeeID)
		}
		byEmployee[o.EmployeeID] = append(byEmployee[o.EmployeeID], messaging.SummaryItem{
			OccurrenceID: o.ID,
			Type:         o.Type,
			Minutes:      o.Minutes,
		})
	}

	published := 0
	for _, employeeID := range employees {
		event := messaging.NotificationEvent{
			Kind:        messaging.KindDailySummary,
			EmployeeID:  employeeID,
			Date:        dateKey(day),
			Occurrences: byEmployee[employeeID],
			OccurredAt:  s.now().UTC(),
		}
		if err := s.publisher.PublishNotification(ctx, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("employee_id", employeeID).Msg("Failed to publish daily summary")
			continue
		}
		published++
	}

	log.Ctx(ctx).Info().
		Str("date", dateKey(day)).
		Int("open", len(open)).
		Int("summaries", published).
		Msg("Daily summaries published")
	return published, nil
}

func (s *OccurrenceService) ListJustifications(ctx context.Context, f model.JustificationFilter) ([]model.Justification, error) {
	return s.repo.ListJustifications(ctx, f)
}

func (s *OccurrenceService) GetJustification(ctx context.Context, id string) (*model.Justification, error) {
	return s.repo.GetJustification(ctx, id)
}
