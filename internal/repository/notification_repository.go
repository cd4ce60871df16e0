package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/travel-booking-admin/internal/model"
)

// NotificationRepo stores notifications and the per-user read markers in
// user_notification_status.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

const notificationColumns = `n.id, n.title, n.message, n.type, n.target_user_type, n.target_user_id, n.created_at,
       n.expires_at, n.is_active, n.action_url, n.icon_url, n.created_by`

// targetingClause is the four-way OR deciding which notifications a user
// sees.  Arguments: role, role, user id.
const targetingClause = `(n.target_user_type = 'ALL_USERS'
        OR (n.target_user_type = 'NORMAL_USERS' AND ? = 'USER')
        OR (n.target_user_type = 'ACTIVITY_OWNERS' AND ? = 'ACTIVITY_OWNER')
        OR (n.target_user_type = 'SPECIFIC_USER' AND n.target_user_id = ?))`

const visibleClause = `n.is_active = 1 AND (n.expires_at IS NULL OR n.expires_at > ?)`

// Create inserts n and fills its id and created_at.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (title, message, type, target_user_type, target_user_id, expires_at, is_active,
		                            action_url, icon_url, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		n.Title, n.Message, string(n.Type), string(n.TargetUserType), nullUint(n.TargetUserID), nullTime(n.ExpiresAt),
		n.IsActive, n.ActionURL, n.IconURL, nullUint(n.CreatedBy))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.Get(ctx, uint64(id))
	if err != nil {
		return err
	}
	*n = created
	return nil
}

// Update overwrites the editable columns of n.
func (r *NotificationRepo) Update(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET title=?, message=?, type=?, target_user_type=?, target_user_id=?, expires_at=?,
		        is_active=?, action_url=?, icon_url=?
		 WHERE id=?`,
		n.Title, n.Message, string(n.Type), string(n.TargetUserType), nullUint(n.TargetUserID), nullTime(n.ExpiresAt),
		n.IsActive, n.ActionURL, n.IconURL, n.ID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	updated, err := r.Get(ctx, n.ID)
	if err != nil {
		return err
	}
	*n = updated
	return nil
}

// Get returns a notification by id, or ErrNotFound.
func (r *NotificationRepo) Get(ctx context.Context, id uint64) (model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications n WHERE n.id=?", id))
	if err != nil {
		return model.Notification{}, notFound(err)
	}
	return n, nil
}

// ListForUser returns the visible notifications targeting the user, newest
// first, with the user's read state, plus the total before paging.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, role string, now time.Time, limit, offset int) ([]model.UserNotification, int64, error) {
	base := " FROM notifications n WHERE " + visibleClause + " AND " + targetingClause
	args := []any{now, role, role, userID}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + notificationColumns + `, COALESCE(s.is_read, 0), s.read_at
	      FROM notifications n
	      LEFT JOIN user_notification_status s ON s.notification_id = n.id AND s.user_id = ?
	      WHERE ` + visibleClause + " AND " + targetingClause + `
	      ORDER BY n.created_at DESC, n.id DESC
	      LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, userID, now, role, role, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.UserNotification{}
	for rows.Next() {
		var (
			un     model.UserNotification
			readAt sql.NullTime
		)
		n, err := scanNotification(rows, &un.IsRead, &readAt)
		if err != nil {
			return nil, 0, err
		}
		un.Notification = n
		if readAt.Valid {
			un.ReadAt = &readAt.Time
		}
		out = append(out, un)
	}
	return out, total, rows.Err()
}

// UnreadCount counts visible notifications targeting the user without a
// read marker.
func (r *NotificationRepo) UnreadCount(ctx context.Context, userID uint64, role string, now time.Time) (int64, error) {
	q := `SELECT COUNT(*)
	      FROM notifications n
	      LEFT JOIN user_notification_status s ON s.notification_id = n.id AND s.user_id = ?
	      WHERE ` + visibleClause + " AND " + targetingClause + ` AND (s.is_read IS NULL OR s.is_read = 0)`
	var n int64
	err := r.db.QueryRowContext(ctx, q, userID, now, role, role, userID).Scan(&n)
	return n, err
}

// MarkRead creates or updates the read marker for (notification, user).
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID, userID uint64, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_notification_status (notification_id, user_id, is_read, read_at) VALUES (?,?,1,?)
		 ON DUPLICATE KEY UPDATE is_read = 1, read_at = VALUES(read_at)`,
		notificationID, userID, at)
	return err
}

// MarkAllRead marks every visible notification targeting the user as read
// and returns how many markers were written.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64, role string, now time.Time) (int64, error) {
	q := `INSERT INTO user_notification_status (notification_id, user_id, is_read, read_at)
	      SELECT n.id, ?, 1, ? FROM notifications n
	      WHERE ` + visibleClause + " AND " + targetingClause + `
	      ON DUPLICATE KEY UPDATE is_read = 1, read_at = VALUES(read_at)`
	res, err := r.db.ExecContext(ctx, q, userID, now, now, role, role, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListActive returns every active notification for the admin view, newest
// first, plus the total before paging.
func (r *NotificationRepo) ListActive(ctx context.Context, limit, offset int) ([]model.Notification, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications n WHERE n.is_active = 1").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications n WHERE n.is_active = 1 ORDER BY n.created_at DESC, n.id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []model.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// Deactivate soft-deletes a notification.
func (r *NotificationRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE notifications SET is_active = 0 WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeactivateExpired soft-deletes active notifications whose expiry has
// passed and returns how many were affected.
func (r *NotificationRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_active = 0 WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at <= ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scanNotification scans the notification columns followed by any extra
// destinations selected after them.
func scanNotification(s rowScanner, extra ...any) (model.Notification, error) {
	var (
		n         model.Notification
		typ, tgt  string
		targetID  sql.NullInt64
		expiresAt sql.NullTime
		createdBy sql.NullInt64
	)
	dest := []any{&n.ID, &n.Title, &n.Message, &typ, &tgt, &targetID, &n.CreatedAt,
		&expiresAt, &n.IsActive, &n.ActionURL, &n.IconURL, &createdBy}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return model.Notification{}, err
	}
	n.Type = model.NotificationType(typ)
	n.TargetUserType = model.TargetUserType(tgt)
	if targetID.Valid {
		id := uint64(targetID.Int64)
		n.TargetUserID = &id
	}
	if expiresAt.Valid {
		n.ExpiresAt = &expiresAt.Time
	}
	if createdBy.Valid {
		id := uint64(createdBy.Int64)
		n.CreatedBy = &id
	}
	return n, nil
}
