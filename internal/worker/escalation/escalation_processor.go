package escalation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"timesheet.service/internal/core"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/worker"
	"timesheet.service/internal/worker/chat"
)

type Store interface {
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetSector(ctx context.Context, id string) (*model.Sector, error)
	HasNotification(ctx context.Context, occurrenceID string, channel model.NotificationChannel) (bool, error)
	HasJustificationNotification(ctx context.Context, justificationID string, channel model.NotificationChannel) (bool, error)
	LogNotification(ctx context.Context, n model.NotificationLog) error
}

// Processor mails HR about escalated justifications and, when a chat
// channel is configured, posts a short notice there too.
type Processor struct {
	emailService core.EmailService
	repo         Store
	hrEmail      string
	chat         chat.Client
	hrChannel    string
}

// NewProcessor sets up a new processor for HR escalations. client may be nil
// when no HR chat channel is used.
func NewProcessor(emailService core.EmailService, repo Store, hrEmail string, client chat.Client, hrChannel string) *Processor {
	return &Processor{
		emailService: emailService,
		repo:         repo,
		hrEmail:      hrEmail,
		chat:         client,
		hrChannel:    hrChannel,
	}
}

func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.EscalationEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal escalation event")
		return false, 0, err
	}
	retry := worker.Backoff(worker.ReceiveCount(msg))

	// Every justification escalates on its own.
	var sent bool
	var err error
	if event.JustificationID != "" {
		sent, err = p.repo.HasJustificationNotification(ctx, event.JustificationID, model.ChannelHR)
	} else {
		sent, err = p.repo.HasNotification(ctx, event.OccurrenceID, model.ChannelHR)
	}
	if err != nil {
		return true, retry, fmt.Errorf("check notification log: %w", err)
	}
	if sent {
		log.Ctx(ctx).Info().
			Str("occurrence_id", event.OccurrenceID).
			Str("justification_id", event.JustificationID).
			Msg("HR already notified. Skipping.")
		return false, 0, nil
	}

	employee, err := p.repo.GetEmployee(ctx, event.EmployeeID)
	if errors.Is(err, core.ErrNotFound) {
		return false, 0, fmt.Errorf("employee %s: %w", event.EmployeeID, err)
	}
	if err != nil {
		return true, retry, fmt.Errorf("load employee: %w", err)
	}

	escalation := core.Escalation{
		EmployeeName: employee.Name,
		Date:         event.Date,
		Type:         event.Type,
		Minutes:      event.Minutes,
		Hours:        event.Hours,
		Category:     event.Category,
		Text:         event.Text,
	}
	if sector, err := p.repo.GetSector(ctx, employee.SectorID); err == nil {
		escalation.SectorName = sector.Name
	}

	if err := p.emailService.SendEscalation(ctx, p.hrEmail, escalation); err != nil {
		return true, retry, fmt.Errorf("send escalation email: %w", err)
	}

	var ref *string
	if p.chat != nil && p.hrChannel != "" {
		text := fmt.Sprintf("HR review requested: %s, %s on %s (%s h).",
			employee.Name, worklog.FormatMinutes(event.Minutes), event.Date, event.Hours.StringFixed(2))
		if ts, err := p.chat.PostMessage(ctx, p.hrChannel, text); err != nil {
			log.Ctx(ctx).Warn().Err(err).Msg("Failed to post HR chat notice")
		} else {
			ref = &ts
		}
	}

	entry := model.NotificationLog{EmployeeID: employee.ID, Channel: model.ChannelHR, MessageRef: ref}
	if id := event.OccurrenceID; id != "" {
		entry.OccurrenceID = &id
	}
	if id := event.JustificationID; id != "" {
		entry.JustificationID = &id
	}
	if err := p.repo.LogNotification(ctx, entry); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to record HR notification")
	}
	return false, 0, nil
}
