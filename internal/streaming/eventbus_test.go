package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complyguard-lab/internal/domain/models"
	"complyguard-lab/pkg/logger"
)

func busLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestEventBusPublishReachesSubscribers(t *testing.T) {
	bus := NewEventBus(nil, busLogger())
	ctx := context.Background()

	ch, unsubscribe := bus.Subscribe(ctx, &Subscription{})
	require.Equal(t, 1, bus.SubscriberCount())

	event := &ComplianceEvent{ID: "evt-1", Type: EventTypeGapDetected, FrameworkID: "gdpr"}
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case got := <-ch:
		assert.Equal(t, event, got)
	case <-time.After(time.Second):
		t.Fatal("published event never reached the subscriber")
	}

	unsubscribe()
	assert.Equal(t, 0, bus.SubscriberCount())
	_, open := <-ch
	assert.False(t, open, "unsubscribe closes the channel")

	// Unsubscribing twice is a no-op
	unsubscribe()
}

func TestEventBusPublishDropsWhenSubscriberFull(t *testing.T) {
	bus := NewEventBus(nil, busLogger())
	ctx := context.Background()

	ch, unsubscribe := bus.Subscribe(ctx, &Subscription{})
	defer unsubscribe()

	// Fill the buffer past capacity; Publish must never block
	for i := 0; i < 150; i++ {
		require.NoError(t, bus.Publish(ctx, &ComplianceEvent{ID: "evt", Type: EventTypeGapDetected}))
	}
	assert.Equal(t, 100, len(ch))
}

func TestEventSubjects(t *testing.T) {
	p := &NATSPublisher{}

	assert.Equal(t, "compliance.gap_detected.gdpr",
		p.getSubject(&ComplianceEvent{Type: EventTypeGapDetected, FrameworkID: "gdpr"}))
	assert.Equal(t, "compliance.breach_assessed.HIGH",
		p.getSubject(&ComplianceEvent{Type: EventTypeBreachAssessed, RiskBucket: models.RiskBucketHigh}))
	assert.Equal(t, "compliance.assessment_completed.sess-1",
		p.getSubject(&ComplianceEvent{Type: EventTypeAssessmentCompleted, SessionID: "sess-1"}))
	assert.Equal(t, "compliance.deadline_overdue.all",
		p.getSubject(&ComplianceEvent{Type: EventTypeDeadlineOverdue}))
}
