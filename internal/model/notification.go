package model

import "time"

// NotificationType classifies a notification for display.
type NotificationType string

const (
	NotificationOffer               NotificationType = "OFFER"
	NotificationAlert               NotificationType = "ALERT"
	NotificationUpdate              NotificationType = "UPDATE"
	NotificationSystem              NotificationType = "SYSTEM"
	NotificationBookingConfirmation NotificationType = "BOOKING_CONFIRMATION"
	NotificationBookingCompleted    NotificationType = "BOOKING_COMPLETED"
	NotificationPaymentSuccess      NotificationType = "PAYMENT_SUCCESS"
)

// NotificationTypes lists every notification type.
var NotificationTypes = []NotificationType{
	NotificationOffer, NotificationAlert, NotificationUpdate, NotificationSystem,
	NotificationBookingConfirmation, NotificationBookingCompleted, NotificationPaymentSuccess,
}

// TargetUserType selects the cohort that sees a notification.
type TargetUserType string

const (
	TargetAllUsers       TargetUserType = "ALL_USERS"
	TargetNormalUsers    TargetUserType = "NORMAL_USERS"
	TargetActivityOwners TargetUserType = "ACTIVITY_OWNERS"
	TargetSpecificUser   TargetUserType = "SPECIFIC_USER"
)

// TargetUserTypes lists every target cohort.
var TargetUserTypes = []TargetUserType{TargetAllUsers, TargetNormalUsers, TargetActivityOwners, TargetSpecificUser}

// ValidNotificationType reports whether t is a known type.
func ValidNotificationType(t NotificationType) bool {
	for _, k := range NotificationTypes {
		if k == t {
			return true
		}
	}
	return false
}

// ValidTargetUserType reports whether t is a known target cohort.
func ValidTargetUserType(t TargetUserType) bool {
	for _, k := range TargetUserTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Notification is a broadcast or targeted message.  Read state is kept per
// user in UserNotificationStatus.
type Notification struct {
	ID             uint64           `json:"id"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	TargetUserType TargetUserType   `json:"targetUserType"`
	TargetUserID   *uint64          `json:"targetUserId,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	ExpiresAt      *time.Time       `json:"expiresAt,omitempty"`
	IsActive       bool             `json:"isActive"`
	ActionURL      string           `json:"actionUrl,omitempty"`
	IconURL        string           `json:"iconUrl,omitempty"`
	CreatedBy      *uint64          `json:"createdBy,omitempty"`
}

// Targets applies the four-way targeting rule: ALL_USERS matches everyone,
// NORMAL_USERS only role USER, ACTIVITY_OWNERS only role ACTIVITY_OWNER and
// SPECIFIC_USER only the user whose id equals TargetUserID.
func (n Notification) Targets(userID uint64, role string) bool {
	switch n.TargetUserType {
	case TargetAllUsers:
		return true
	case TargetNormalUsers:
		return role == RoleUser
	case TargetActivityOwners:
		return role == RoleActivityOwner
	case TargetSpecificUser:
		return n.TargetUserID != nil && *n.TargetUserID == userID
	}
	return false
}

// VisibleAt reports whether the notification is active and unexpired at now.
func (n Notification) VisibleAt(now time.Time) bool {
	if !n.IsActive {
		return false
	}
	return n.ExpiresAt == nil || n.ExpiresAt.After(now)
}

// UserNotification is a notification as seen by one user.
type UserNotification struct {
	Notification
	IsRead bool       `json:"isRead"`
	ReadAt *time.Time `json:"readAt,omitempty"`
}

// UserNotificationStatus is the lazily created read marker for a
// (notification, user) pair.
type UserNotificationStatus struct {
	ID             uint64     // user_notification_status.id
	NotificationID uint64     // user_notification_status.notification_id
	UserID         uint64     // user_notification_status.user_id
	IsRead         bool       // user_notification_status.is_read
	ReadAt         *time.Time // user_notification_status.read_at
}
