package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"doc-assistant-be/internal/model"
	"doc-assistant-be/internal/pkg/logger"
	"doc-assistant-be/pkg/events"
	pktNats "doc-assistant-be/pkg/nats"
)

// NotificationDelivery pushes transient notifications to connected UIs.
// The websocket hub implements it.
type NotificationDelivery interface {
	Broadcast(notification model.Notification)
}

// NotificationService relays document lifecycle events from the NATS
// bus to connected UIs. With several instances behind a load balancer,
// an ingest handled elsewhere still surfaces here through the stream.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "doc-assistant-notifications", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := eventTypeFromSubject(event.EventType())
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", typeCode), map[string]interface{}{"type": typeCode})

	notification, ok := s.buildNotification(typeCode, event.Payload())
	if !ok {
		// Unrecognized lifecycle events pass through silently
		return nil
	}

	s.delivery.Broadcast(notification)
	return nil
}

func (s *NotificationService) buildNotification(typeCode string, payload map[string]interface{}) (model.Notification, bool) {
	fileName, _ := payload["file_name"].(string)

	switch typeCode {
	case events.TypeDocumentIngested:
		return model.Notification{
			Type:      "document_ingested",
			Title:     "Document ingested",
			Message:   fmt.Sprintf("%s was added to the document store", fileName),
			CreatedAt: time.Now(),
		}, true
	case events.TypeDocumentEmbedded:
		return model.Notification{
			Type:      "document_embedded",
			Title:     "Document ready",
			Message:   fmt.Sprintf("%s is now searchable", fileName),
			CreatedAt: time.Now(),
		}, true
	case events.TypeDocumentDeleted:
		return model.Notification{
			Type:      "document_deleted",
			Title:     "Document removed",
			Message:   "A document was removed from the store",
			CreatedAt: time.Now(),
		}, true
	default:
		return model.Notification{}, false
	}
}

// eventTypeFromSubject strips the stream prefix: "events.DOCUMENT_INGESTED"
// -> "DOCUMENT_INGESTED".
func eventTypeFromSubject(subject string) string {
	if i := strings.LastIndex(subject, "."); i >= 0 {
		return subject[i+1:]
	}
	return subject
}
