package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
)

// NotificationRepo stores per-user notifications.
type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// List returns a page of the user's notifications, newest first.
func (r *NotificationRepo) List(ctx context.Context, userID uint64, unreadOnly bool, page pagination.Request) ([]model.Notification, int64, error) {
	where := "user_id = ?"
	if unreadOnly {
		where += " AND read_at IS NULL"
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications WHERE "+where, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Notification{}, 0, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, kind, title, body, link, read_at, created_at
		FROM notifications WHERE `+where+`
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Notification, 0, page.Limit)
	for rows.Next() {
		var (
			n      model.Notification
			readAt sql.NullTime
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Link, &readAt, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if readAt.Valid {
			t := readAt.Time
			n.ReadAt = &t
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead marks one notification read. ErrNotFound when it does not
// exist, ErrForbidden when it belongs to another user. Marking an
// already read notification is a no-op.
func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM notifications WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = UTC_TIMESTAMP() WHERE id = ? AND read_at IS NULL", id)
	return err
}

// MarkAllRead marks every unread notification of the user and returns
// how many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = UTC_TIMESTAMP() WHERE user_id = ? AND read_at IS NULL", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// notificationBatch bounds rows per INSERT; five placeholders per row
// must stay under MySQL's 65535 per statement.
var notificationBatch = 1000

// CreateMany inserts ns in batches of multi-row INSERTs inside one
// transaction, so a fan-out is stored completely or not at all.
func (r *NotificationRepo) CreateMany(ctx context.Context, ns []model.Notification) (int64, error) {
	if len(ns) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	for start := 0; start < len(ns); start += notificationBatch {
		batch := ns[start:min(start+notificationBatch, len(ns))]
		values := make([]string, len(batch))
		args := make([]any, 0, len(batch)*5)
		for i, n := range batch {
			values[i] = "(?,?,?,?,?)"
			args = append(args, n.UserID, n.Kind, n.Title, n.Body, n.Link)
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO notifications (user_id, kind, title, body, link) VALUES "+strings.Join(values, ","),
			args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, tx.Commit()
}
