package telemetry

import (
	"context"
	"encoding/json"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type employeeIDKey struct{}

// WithEmployeeID stores the employee a unit of work is about.
func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, employeeIDKey{}, employeeID)
}

// EmployeeIDFromContext returns the id stored by WithEmployeeID, or "".
func EmployeeIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(employeeIDKey{}).(string)
	return id
}

// MessageAttributes renders the trace context of ctx as SQS message
// attributes for the producer side.
func MessageAttributes(ctx context.Context) map[string]types.MessageAttributeValue {
	carrier := attributeCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier
}

// StartConsumerSpan continues the producer's trace for msg. When the body
// names an employee, the span and the returned context carry it.
func StartConsumerSpan(ctx context.Context, queue string, msg types.Message) (context.Context, trace.Span) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, attributeCarrier(msg.MessageAttributes))

	ctx, span := otel.Tracer("timesheet/worker").Start(ctx, "sqs.process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "aws_sqs"),
			attribute.String("messaging.source.name", queue),
			attribute.String("messaging.message.id", aws.ToString(msg.MessageId)),
		),
	)

	var body struct {
		EmployeeID string `json:"employeeId"`
	}
	if json.Unmarshal([]byte(aws.ToString(msg.Body)), &body) == nil && body.EmployeeID != "" {
		span.SetAttributes(attribute.String("app.employeeId", body.EmployeeID))
		ctx = WithEmployeeID(ctx, body.EmployeeID)
	}
	return ctx, span
}

// attributeCarrier adapts SQS message attributes to a TextMapCarrier. Set
// needs a non-nil map.
type attributeCarrier map[string]types.MessageAttributeValue

func (c attributeCarrier) Get(key string) string {
	return aws.ToString(c[key].StringValue)
}

func (c attributeCarrier) Set(key, value string) {
	c[key] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(value)}
}

func (c attributeCarrier) Keys() []string {
	return slices.Collect(maps.Keys(c))
}
