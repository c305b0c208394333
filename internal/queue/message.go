// Package queue publishes domain events to RabbitMQ and consumes them to
// fan out follower notifications.
package queue

import "time"

// Queue names. Routing keys equal queue names on the default exchange.
const (
	EventCreatedQueue          = "event.created"
	VerificationRequestedQueue = "user.verification_requested"
)

// EventCreated is published after a festival is stored. It carries the
// line-up ids so the consumer can find followers without re-reading the
// event.
type EventCreated struct {
	EventID     uint64    `json:"eventId"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	StartDate   time.Time `json:"startDate"`
	TeacherIDs  []uint64  `json:"teacherIds"`
	MusicianIDs []uint64  `json:"musicianIds"`
	CreatedBy   uint64    `json:"createdBy"`
}

// VerificationRequested asks the mailer to deliver an e-mail verification
// link. Token is the raw one-time token; only its hash is stored.
type VerificationRequested struct {
	UserID    uint64    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
