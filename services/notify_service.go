package services

import (
	"context"
	"log"

	pubnub "github.com/pubnub/go"

	"waitline/models"
	"waitline/utils"
)

// NotificationService fans domain events out to PubNub channels. Customers
// subscribe to their own channel, location displays to the queue channel.
// Publishing goes through a circuit breaker so a provider outage degrades to
// dropped notifications instead of stalled queue operations.
type NotificationService struct {
	pubnub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewNotificationService(pn *pubnub.PubNub) *NotificationService {
	return &NotificationService{
		pubnub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub"),
	}
}

// Dispatch publishes each event. Delivery failures are logged and dropped;
// the queue operation already committed.
func (s *NotificationService) Dispatch(ctx context.Context, events []models.Event) {
	if s.pubnub == nil {
		return
	}

	for _, event := range events {
		switch e := event.(type) {
		case models.CustomerJoinedQueueEvent:
			s.publish(ctx, customerChannel(e.CustomerID), map[string]any{
				"type":     "queue_joined",
				"queue_id": e.QueueID,
				"token":    e.Token,
				"position": e.Position,
			})
		case models.CustomerCalledFromQueueEvent:
			s.publish(ctx, customerChannel(e.CustomerID), map[string]any{
				"type":     "called",
				"queue_id": e.QueueID,
				"token":    e.Token,
				"message":  "You're up! Please come to the counter.",
			})
			s.publish(ctx, queueChannel(e.QueueID), map[string]any{
				"type":  "token_called",
				"token": e.Token,
			})
		case models.ServiceCompletedEvent:
			s.publish(ctx, customerChannel(e.CustomerID), map[string]any{
				"type":     "service_completed",
				"queue_id": e.QueueID,
			})
		case models.CustomerNoShowEvent:
			s.publish(ctx, customerChannel(e.CustomerID), map[string]any{
				"type":     "marked_no_show",
				"queue_id": e.QueueID,
				"message":  "You were marked as a no-show. Please rejoin the queue.",
			})
		case models.LateCustomersRemovedEvent:
			s.publish(ctx, queueChannel(e.QueueID), map[string]any{
				"type":  "late_customers_removed",
				"count": e.Count,
			})
		case models.CustomerCheckedInEvent, models.CustomerCancelledEvent,
			models.QueueActivatedEvent, models.QueueDeactivatedEvent:
			// No customer-facing delivery for these; they only feed displays
			// through the board cache.
		}
	}
}

func (s *NotificationService) publish(ctx context.Context, channel string, message map[string]any) {
	_, err := s.breaker.Execute(ctx, func() (interface{}, error) {
		_, _, err := s.pubnub.Publish().
			Channel(channel).
			Message(message).
			Execute()
		return nil, err
	})
	if err != nil {
		log.Printf("Error publishing to channel %s: %v", channel, err)
	}
}

func customerChannel(customerID string) string {
	return "customer-" + customerID
}

func queueChannel(queueID string) string {
	return "queue-" + queueID
}
