package types

import "time"

// NotificationEvent is the payload published to the notification broker
// after a successful transaction state transition. Delivery is handled by a
// separate notifier service; publishing is fire-and-forget.
type NotificationEvent struct {
	Kind          string    `json:"kind"`
	SenderID      string    `json:"sender_id"`
	ReceiverID    string    `json:"receiver_id"`
	TransactionID string    `json:"transaction_id"`
	DonationID    string    `json:"donation_id"`
	RequestID     string    `json:"request_id"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}
