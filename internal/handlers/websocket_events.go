package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/common"
	"github.com/ternarybob/narrato/internal/interfaces"
	"github.com/ternarybob/narrato/internal/models"
	"github.com/ternarybob/narrato/internal/services/hub"
	"golang.org/x/time/rate"
)

// EventSubscriber bridges the internal event bus to the notification hub.
// Progress events can be throttled; terminal events always go through.
type EventSubscriber struct {
	hub               *hub.Hub
	logger            arbor.ILogger
	progressThrottler *rate.Limiter
}

// NewEventSubscriber creates the bus-to-hub bridge
func NewEventSubscriber(h *hub.Hub, config *common.WebSocketConfig, logger arbor.ILogger) *EventSubscriber {
	s := &EventSubscriber{
		hub:    h,
		logger: logger,
	}

	if config != nil && len(config.ThrottleIntervals) > 0 {
		if intervalStr, ok := config.ThrottleIntervals["progress"]; ok {
			if duration, err := time.ParseDuration(intervalStr); err == nil {
				s.progressThrottler = rate.NewLimiter(rate.Every(duration), 1)
				logger.Debug().
					Str("interval", intervalStr).
					Msg("Throttler initialized for progress events")
			} else {
				logger.Warn().
					Err(err).
					Str("interval", intervalStr).
					Msg("Failed to parse progress throttle interval - throttler disabled")
			}
		}
	}

	return s
}

// Register subscribes the bridge to every job event type
func (s *EventSubscriber) Register(events interfaces.EventService) error {
	for _, eventType := range []interfaces.EventType{
		interfaces.EventJobStarted,
		interfaces.EventJobProgress,
		interfaces.EventJobCompleted,
		interfaces.EventJobFailed,
	} {
		if err := events.Subscribe(eventType, s.handleEvent); err != nil {
			return err
		}
	}
	return nil
}

func (s *EventSubscriber) handleEvent(ctx context.Context, event interfaces.Event) error {
	jobEvent, ok := event.Payload.(*models.JobEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", event.Payload)
	}

	// Throttle only non-terminal progress chatter; subscribers always see
	// the terminal outcome.
	if event.Type == interfaces.EventJobProgress && s.progressThrottler != nil {
		if !s.progressThrottler.Allow() {
			return nil
		}
	}

	s.hub.Publish(jobEvent)
	return nil
}
