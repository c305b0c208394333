package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/swing-festival-finder/internal/metrics"
	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/repository"
)

// FollowerFinder resolves who follows a set of targets.
type FollowerFinder interface {
	FollowersOf(ctx context.Context, targets []repository.Target) ([]uint64, error)
}

// NotificationWriter stores notifications in bulk.
type NotificationWriter interface {
	CreateMany(ctx context.Context, ns []model.Notification) (int64, error)
}

// Notifier turns an EventCreated message into one notification per
// follower of the event's teachers and musicians. The submitter is not
// notified about their own event.
type Notifier struct {
	follows FollowerFinder
	notes   NotificationWriter
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewNotifier(f FollowerFinder, n NotificationWriter, log *zap.Logger, m *metrics.Metrics) *Notifier {
	return &Notifier{follows: f, notes: n, log: log, metrics: m}
}

func (n *Notifier) HandleEventCreated(ctx context.Context, ev EventCreated) error {
	targets := make([]repository.Target, 0, len(ev.TeacherIDs)+len(ev.MusicianIDs))
	for _, id := range ev.TeacherIDs {
		targets = append(targets, repository.Target{Type: model.TargetTeacher, ID: id})
	}
	for _, id := range ev.MusicianIDs {
		targets = append(targets, repository.Target{Type: model.TargetMusician, ID: id})
	}
	if len(targets) == 0 {
		return nil
	}

	users, err := n.follows.FollowersOf(ctx, targets)
	if err != nil {
		return fmt.Errorf("followers: %w", err)
	}

	title := "New festival: " + ev.Name
	body := fmt.Sprintf("%s in %s starts %s and features artists you follow.",
		ev.Name, place(ev), ev.StartDate.Format("2 Jan 2006"))
	link := "/events/" + ev.Slug

	notes := make([]model.Notification, 0, len(users))
	for _, uid := range users {
		if uid == ev.CreatedBy {
			continue
		}
		notes = append(notes, model.Notification{
			UserID: uid,
			Kind:   model.NotifyEventAnnounced,
			Title:  title,
			Body:   body,
			Link:   link,
		})
	}
	if len(notes) == 0 {
		return nil
	}

	created, err := n.notes.CreateMany(ctx, notes)
	if err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}
	n.metrics.NotificationsCreated(created)
	n.log.Info("notified followers",
		zap.Uint64("event_id", ev.EventID),
		zap.Int64("notifications", created))
	return nil
}

func place(ev EventCreated) string {
	switch {
	case ev.City != "" && ev.Country != "":
		return ev.City + ", " + ev.Country
	case ev.City != "":
		return ev.City
	case ev.Country != "":
		return ev.Country
	}
	return "an unannounced location"
}
