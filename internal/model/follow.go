package model

import (
	"strings"
	"time"
)

// TargetType is what a user follows.
type TargetType string

const (
	TargetEvent    TargetType = "EVENT"
	TargetTeacher  TargetType = "TEACHER"
	TargetMusician TargetType = "MUSICIAN"
)

// ParseTargetType accepts any casing and the plural path forms used in
// URLs ("teachers", "events").
func ParseTargetType(s string) (TargetType, bool) {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "S") {
	case "EVENT":
		return TargetEvent, true
	case "TEACHER":
		return TargetTeacher, true
	case "MUSICIAN":
		return TargetMusician, true
	}
	return "", false
}

// Follow is a row in the `follows` table. A user follows a target at
// most once.
type Follow struct {
	ID         uint64     `json:"id"`
	UserID     uint64     `json:"-"`
	TargetType TargetType `json:"targetType"`
	TargetID   uint64     `json:"targetId"`
	TargetName string     `json:"targetName"`
	TargetSlug string     `json:"targetSlug"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Notification is a message for a single user, e.g. "Gordon Webster was
// booked for Lindy Shock 2027".
type Notification struct {
	ID        uint64     `json:"id"`
	UserID    uint64     `json:"-"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Link      string     `json:"link"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Notification kinds.
const (
	NotifyEventAnnounced = "EVENT_ANNOUNCED"
)
