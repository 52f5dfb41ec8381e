package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender               MessageSender
	notificationQueueURL string
	escalationQueueURL   string
}

func NewProducer(sender MessageSender, notificationQueueURL, escalationQueueURL string) *Producer {
	return &Producer{
		sender:               sender,
		notificationQueueURL: notificationQueueURL,
		escalationQueueURL:   escalationQueueURL,
	}
}

func NewSQSProducer(client SQSClient, notificationQueueURL, escalationQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, notificationQueueURL, escalationQueueURL)
}

func (p *Producer) PublishNotification(ctx context.Context, event NotificationEvent) error {
	return p.publish(ctx, p.notificationQueueURL, event.EmployeeID, event)
}

func (p *Producer) PublishEscalation(ctx context.Context, event EscalationEvent) error {
	return p.publish(ctx, p.escalationQueueURL, event.EmployeeID, event)
}

func (p *Producer) publish(ctx context.Context, destination, employeeID string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if employeeID != "" {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
