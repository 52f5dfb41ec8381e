package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"timesheet.service/internal/core"
	"timesheet.service/internal/core/model"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/internal/ports/messaging"
	"timesheet.service/internal/ports/repository"
	"timesheet.service/internal/worker"
	"timesheet.service/internal/worker/chat"
)

// Store is what the processor reads and writes.
type Store interface {
	GetEmployee(ctx context.Context, id string) (*model.Employee, error)
	GetSector(ctx context.Context, id string) (*model.Sector, error)
	repository.NotificationRepository
}

// Processor delivers notification events as chat direct messages.
type Processor struct {
	repo Store
	chat chat.Client
}

func NewProcessor(repo Store, client chat.Client) *Processor {
	return &Processor{repo: repo, chat: client}
}

// Process sends one notification. Events that can never be delivered are
// dropped; chat or database failures are retried with backoff.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.NotificationEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal notification event")
		return false, 0, err
	}

	var channel model.NotificationChannel
	switch event.Kind {
	case messaging.KindOccurrenceOpened, messaging.KindDailySummary:
		channel = model.ChannelEmployee
	case messaging.KindJustificationSubmitted:
		channel = model.ChannelManager
	default:
		return false, 0, fmt.Errorf("unknown notification kind %q", event.Kind)
	}

	logger := log.Ctx(ctx).With().Str("occurrence_id", event.OccurrenceID).Str("channel", string(channel)).Logger()
	retry := worker.Backoff(worker.ReceiveCount(msg))

	sent, err := p.alreadySent(ctx, event, channel)
	if err != nil {
		return true, retry, fmt.Errorf("check notification log: %w", err)
	}
	if sent {
		logger.Info().Msg("Notification already sent. Skipping.")
		return false, 0, nil
	}

	employee, err := p.repo.GetEmployee(ctx, event.EmployeeID)
	if errors.Is(err, core.ErrNotFound) {
		return false, 0, fmt.Errorf("employee %s: %w", event.EmployeeID, err)
	}
	if err != nil {
		return true, retry, fmt.Errorf("load employee: %w", err)
	}

	recipient, text, err := p.compose(ctx, event, employee)
	if err != nil {
		return true, retry, err
	}
	if recipient == "" {
		logger.Warn().Msg("No chat recipient configured, notification dropped")
		return false, 0, nil
	}

	ref, err := p.chat.PostMessage(ctx, recipient, text)
	if err != nil {
		return true, retry, err
	}

	occurrenceID, justificationID := event.OccurrenceID, event.JustificationID
	entry := model.NotificationLog{EmployeeID: employee.ID, Channel: channel, MessageRef: &ref}
	if occurrenceID != "" {
		entry.OccurrenceID = &occurrenceID
	}
	if justificationID != "" {
		entry.JustificationID = &justificationID
	}
	// The message is out; a retry here would send it twice.
	if err := p.repo.LogNotification(ctx, entry); err != nil {
		logger.Error().Err(err).Msg("Failed to record notification")
	}
	return false, 0, nil
}

// alreadySent looks a delivery up by justification when the event carries
// one and by occurrence otherwise. Daily summaries have neither.
func (p *Processor) alreadySent(ctx context.Context, event messaging.NotificationEvent, channel model.NotificationChannel) (bool, error) {
	switch {
	case event.JustificationID != "":
		return p.repo.HasJustificationNotification(ctx, event.JustificationID, channel)
	case event.OccurrenceID != "":
		return p.repo.HasNotification(ctx, event.OccurrenceID, channel)
	}
	return false, nil
}

func (p *Processor) compose(ctx context.Context, event messaging.NotificationEvent, employee *model.Employee) (string, string, error) {
	switch event.Kind {
	case messaging.KindOccurrenceOpened, messaging.KindDailySummary:
		if employee.ChatUserID == nil {
			return "", "", nil
		}
		if event.Kind == messaging.KindDailySummary {
			return *employee.ChatUserID, SummaryMessage(event), nil
		}
		return *employee.ChatUserID, EmployeeMessage(event), nil
	}

	sector, err := p.repo.GetSector(ctx, employee.SectorID)
	if errors.Is(err, core.ErrNotFound) {
		return "", "", nil
	}
	if err != nil {
		return "", "", fmt.Errorf("load sector: %w", err)
	}
	if sector.ManagerChatUserID == "" || sector.ManagerChatUserID == core.PendingManager {
		return "", "", nil
	}
	return sector.ManagerChatUserID, ManagerMessage(event, employee.Name), nil
}

func describe(t worklog.OccurrenceType, minutes int) string {
	switch t {
	case worklog.OccurrenceLate:
		return fmt.Sprintf("late arrival (%s)", worklog.FormatMinutes(minutes))
	case worklog.OccurrenceOver:
		return fmt.Sprintf("overtime (%s)", worklog.FormatMinutes(minutes))
	case worklog.OccurrenceUnder:
		return fmt.Sprintf("hours short (%s)", worklog.FormatMinutes(minutes))
	case worklog.OccurrenceIncomplete:
		return "incomplete punches"
	}
	return string(t)
}

// EmployeeMessage is the direct message an employee gets for a new occurrence.
func EmployeeMessage(e messaging.NotificationEvent) string {
	return fmt.Sprintf("Timesheet %s: %s was recorded. Please acknowledge it or send a justification.",
		e.Date, describe(e.Type, e.Minutes))
}

// ManagerMessage tells the sector manager a justification is waiting.
func ManagerMessage(e messaging.NotificationEvent, employeeName string) string {
	return fmt.Sprintf("%s sent a justification for %s on %s. Please review it.",
		employeeName, describe(e.Type, e.Minutes), e.Date)
}

// SummaryMessage lists the day's open occurrences in one direct message.
func SummaryMessage(e messaging.NotificationEvent) string {
	var b strings.Builder
	noun := "occurrences"
	if len(e.Occurrences) == 1 {
		noun = "occurrence"
	}
	fmt.Fprintf(&b, "Timesheet %s: you have %d open %s.\n", e.Date, len(e.Occurrences), noun)
	for _, item := range e.Occurrences {
		fmt.Fprintf(&b, "- %s\n", describe(item.Type, item.Minutes))
	}
	b.WriteString("Please acknowledge or justify them.")
	return b.String()
}
