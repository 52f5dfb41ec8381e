package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"timesheet.service/internal/core/worklog"
	"timesheet.service/pkg/telemetry"
)

// Escalation is what HR receives when an employee asks for their
// justification to be reviewed.
type Escalation struct {
	EmployeeName string
	SectorName   string
	Date         string
	Type         worklog.OccurrenceType
	Minutes      int
	Hours        decimal.Decimal
	Category     string
	Text         string
}

type EmailService interface {
	SendEscalation(ctx context.Context, to string, e Escalation) error
}

// SESClient is the part of the SES API the mailer uses.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendEscalation(ctx context.Context, to string, e Escalation) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_escalation_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.EmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employeeId", empID))
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(fmt.Sprintf("Timesheet justification for review: %s (%s)", e.EmployeeName, e.Date)),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(escalationBody(e)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}

func escalationBody(e Escalation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Employee: %s\n", e.EmployeeName)
	if e.SectorName != "" {
		fmt.Fprintf(&b, "Sector: %s\n", e.SectorName)
	}
	fmt.Fprintf(&b, "Date: %s\n", e.Date)
	fmt.Fprintf(&b, "Occurrence: %s (%s, %s h)\n", e.Type, worklog.FormatMinutes(e.Minutes), e.Hours.StringFixed(2))
	if e.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", e.Category)
	}
	fmt.Fprintf(&b, "\nJustification:\n%s\n", e.Text)
	return b.String()
}
