package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/swing-festival-finder/internal/model"
	"github.com/iliyamo/swing-festival-finder/internal/pagination"
	"github.com/iliyamo/swing-festival-finder/internal/search"
)

// Target identifies something a user can follow.
type Target struct {
	Type model.TargetType
	ID   uint64
}

// FollowRepo manages the follows table.
type FollowRepo struct {
	db *sql.DB
}

func NewFollowRepo(db *sql.DB) *FollowRepo { return &FollowRepo{db: db} }

// targetTables maps a target type to the table holding it.
var targetTables = map[model.TargetType]string{
	model.TargetEvent:    "events",
	model.TargetTeacher:  "teachers",
	model.TargetMusician: "musicians",
}

// TargetExists reports whether the followed row exists.
func (r *FollowRepo) TargetExists(ctx context.Context, t Target) (bool, error) {
	table, ok := targetTables[t.Type]
	if !ok {
		return false, nil
	}
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ? LIMIT 1", t.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create follows t for userID. Following twice gives ErrAlreadyFollowing.
func (r *FollowRepo) Create(ctx context.Context, userID uint64, t Target) (model.Follow, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO follows (user_id, target_type, target_id) VALUES (?,?,?)",
		userID, string(t.Type), t.ID)
	if err != nil {
		return model.Follow{}, mapWriteErr(err, ErrAlreadyFollowing)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Follow{}, err
	}
	rows, err := r.list(ctx, "f.id = ?", []any{uint64(id)}, 1, 0)
	if err != nil {
		return model.Follow{}, err
	}
	if len(rows) == 0 {
		return model.Follow{}, ErrNotFound
	}
	return rows[0], nil
}

// Delete unfollows t; ErrNotFound when userID was not following it.
func (r *FollowRepo) Delete(ctx context.Context, userID uint64, t Target) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM follows WHERE user_id=? AND target_type=? AND target_id=?",
		userID, string(t.Type), t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of the user's follows, newest first. An empty
// kind lists every target type.
func (r *FollowRepo) List(ctx context.Context, userID uint64, kind model.TargetType, page pagination.Request) ([]model.Follow, int64, error) {
	where := "f.user_id = ?"
	args := []any{userID}
	if kind != "" {
		where += " AND f.target_type = ?"
		args = append(args, string(kind))
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM follows f WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.Follow{}, 0, nil
	}
	out, err := r.list(ctx, where, args, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *FollowRepo) list(ctx context.Context, where string, args []any, limit, offset int) ([]model.Follow, error) {
	q := `SELECT f.id, f.user_id, f.target_type, f.target_id, f.created_at,
			COALESCE(e.name, t.name, m.name, ''), COALESCE(e.slug, t.slug, m.slug, '')
		FROM follows f
		LEFT JOIN events e    ON f.target_type = 'EVENT'    AND e.id = f.target_id
		LEFT JOIN teachers t  ON f.target_type = 'TEACHER'  AND t.id = f.target_id
		LEFT JOIN musicians m ON f.target_type = 'MUSICIAN' AND m.id = f.target_id
		WHERE ` + where + `
		ORDER BY f.created_at DESC, f.id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Follow{}
	for rows.Next() {
		var (
			f    model.Follow
			kind string
		)
		if err := rows.Scan(&f.ID, &f.UserID, &kind, &f.TargetID, &f.CreatedAt, &f.TargetName, &f.TargetSlug); err != nil {
			return nil, err
		}
		f.TargetType = model.TargetType(kind)
		out = append(out, f)
	}
	return out, rows.Err()
}

// FollowersOf returns the distinct ids of users following any of targets.
func (r *FollowRepo) FollowersOf(ctx context.Context, targets []Target) ([]uint64, error) {
	byType := map[model.TargetType][]any{}
	var order []model.TargetType
	for _, t := range targets {
		if _, ok := byType[t.Type]; !ok {
			order = append(order, t.Type)
		}
		byType[t.Type] = append(byType[t.Type], t.ID)
	}
	if len(order) == 0 {
		return nil, nil
	}

	ors := make([]string, 0, len(order))
	var args []any
	for _, kind := range order {
		ids := byType[kind]
		ors = append(ors, "(target_type = ? AND target_id IN ("+search.Placeholders(len(ids))+"))")
		args = append(args, string(kind))
		args = append(args, ids...)
	}
	q := "SELECT DISTINCT user_id FROM follows WHERE " + strings.Join(ors, " OR ") + " ORDER BY user_id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
