package websocket

import (
	"context"
	"log"

	"eldercare-server/models"
	"eldercare-server/services"
)

// Publish routes a lifecycle event to the connected users who care about it.
// Offline users simply miss it; delivery never blocks the caller.
func (h *Hub) Publish(_ context.Context, event services.Event) error {
	message := &Message{
		Type:      string(event.Type),
		Data:      event,
		Timestamp: event.OccurredAt,
	}

	switch event.Type {
	case services.EventNeedCreated:
		n := h.SendToRole(models.RoleProvider, message, 0)
		log.Printf("📡 Need %d broadcasted to %d providers", event.EntityID, n)

	case services.EventTaskAccepted, services.EventTaskCompleted:
		n := h.SendToRole(models.RoleAdmin, message, 0)
		log.Printf("📡 %s for task %d sent to %d admins", event.Type, event.EntityID, n)

	case services.EventFeedbackSubmitted:
		if event.ProviderID != 0 {
			h.SendToUser(event.ProviderID, message)
		}
		h.SendToRole(models.RoleAdmin, message, 0)

	default:
		log.Printf("⚠️ No route for event type %s", event.Type)
	}
	return nil
}

var _ services.EventPublisher = (*Hub)(nil)
