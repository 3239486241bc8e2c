// Package queue defines message payloads exchanged over the message broker.
package queue

import "time"

// EmailEvent is published for every outbound email when the queue mail
// transport is selected. cmd/mailer consumes it and delivers over SMTP.
type EmailEvent struct {
	Kind     string    `json:"kind"` // reset_code, reset_link, booking_notification
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	QueuedAt time.Time `json:"queued_at"`
}
