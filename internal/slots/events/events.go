// Package events connects the slot service to Kafka: payment confirmations in, booking notices out.
package events

const (
	EventPaymentSucceeded = "payment.succeeded"
	EventSlotsBooked      = "slots.booked"

	source = "slots"
)

// partitionKey keeps every event for one resource day on the same partition, in order.
func partitionKey(resourceID, dateKey string) string {
	return resourceID + "/" + dateKey
}
