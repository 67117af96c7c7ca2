package streaming

import (
	"context"

	"complyguard-lab/internal/domain/models"
)

// EventBusPublisher implements services.EventPublisher using the EventBus
type EventBusPublisher struct {
	eventBus *EventBus
}

// NewEventBusPublisher creates a new publisher adapter
func NewEventBusPublisher(eventBus *EventBus) *EventBusPublisher {
	return &EventBusPublisher{eventBus: eventBus}
}

// publish fans an event out to the bus: NATS when connected, plus all
// local subscribers (the WebSocket hub among them)
func (p *EventBusPublisher) publish(ctx context.Context, event *ComplianceEvent) error {
	if p.eventBus == nil {
		return nil
	}
	return p.eventBus.Publish(ctx, event)
}

// PublishAssessmentCompleted publishes an assessment completion event
func (p *EventBusPublisher) PublishAssessmentCompleted(ctx context.Context, result *models.AssessmentResult) error {
	return p.publish(ctx, NewAssessmentEvent(result))
}

// PublishGapDetected publishes a gap detection event
func (p *EventBusPublisher) PublishGapDetected(ctx context.Context, gap *models.ComplianceGap) error {
	return p.publish(ctx, NewGapEvent(gap))
}

// PublishBreachAssessed publishes a breach assessment event
func (p *EventBusPublisher) PublishBreachAssessed(ctx context.Context, incident *models.BreachIncident) error {
	return p.publish(ctx, NewIncidentEvent(EventTypeBreachAssessed, incident))
}

// PublishBreachReported publishes a breach report tracking event
func (p *EventBusPublisher) PublishBreachReported(ctx context.Context, incident *models.BreachIncident, report *models.NotificationReport) error {
	event := NewIncidentEvent(EventTypeBreachReported, incident)
	event.Channel = string(report.Channel)
	onTime := report.OnTime
	event.OnTime = &onTime
	event.Deadline = &report.Deadline
	return p.publish(ctx, event)
}

// PublishDeadlineOverdue publishes a missed-deadline event
func (p *EventBusPublisher) PublishDeadlineOverdue(ctx context.Context, incident *models.BreachIncident) error {
	return p.publish(ctx, NewIncidentEvent(EventTypeDeadlineOverdue, incident))
}
