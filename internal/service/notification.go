package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// NotificationInput is the writable part of a notification.
type NotificationInput struct {
	Title          string
	Message        string
	Type           string
	TargetUserType string
	TargetUserID   *uint64
	ExpiresAt      *time.Time
	ActionURL      string
	IconURL        string
	IsActive       *bool
}

// NotificationService creates targeted notifications, tracks per-user read
// state and turns booking and offer events into notifications.
type NotificationService struct {
	store       NotificationStore
	users       UserStore
	systemActor uint64
	log         *zap.Logger
	now         func() time.Time
}

// NewNotificationService wires the dispatcher.  systemActor is recorded as
// the creator of event-driven notifications; zero records none.
func NewNotificationService(store NotificationStore, users UserStore, systemActor uint64, log *zap.Logger) *NotificationService {
	return &NotificationService{store: store, users: users, systemActor: systemActor, log: log, now: time.Now}
}

// Create validates and stores a notification.  actorID nil means the system
// raised it.
func (s *NotificationService) Create(ctx context.Context, in NotificationInput, actorID *uint64) (model.Notification, error) {
	n, err := s.build(ctx, model.Notification{IsActive: true}, in)
	if err != nil {
		return model.Notification{}, err
	}
	switch {
	case actorID != nil:
		id := *actorID
		n.CreatedBy = &id
	case s.systemActor != 0:
		id := s.systemActor
		n.CreatedBy = &id
	}
	if err := s.store.Create(ctx, &n); err != nil {
		return model.Notification{}, err
	}
	s.log.Info("notification created",
		zap.Uint64("notification_id", n.ID), zap.String("type", string(n.Type)),
		zap.String("target", string(n.TargetUserType)))
	return n, nil
}

// Update overwrites the editable fields of an existing notification.
func (s *NotificationService) Update(ctx context.Context, id uint64, in NotificationInput) (model.Notification, error) {
	cur, err := s.get(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}
	n, err := s.build(ctx, cur, in)
	if err != nil {
		return model.Notification{}, err
	}
	if err := s.store.Update(ctx, &n); err != nil {
		if repository.IsNotFound(err) {
			return model.Notification{}, notFoundf("Notification not found")
		}
		return model.Notification{}, err
	}
	return n, nil
}

func (s *NotificationService) build(ctx context.Context, n model.Notification, in NotificationInput) (model.Notification, error) {
	if strings.TrimSpace(in.Title) == "" {
		return n, invalidf("Title is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return n, invalidf("Message is required")
	}
	typ := model.NotificationType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !model.ValidNotificationType(typ) {
		return n, invalidf("Invalid notification type: %s", in.Type)
	}
	target := model.TargetUserType(strings.ToUpper(strings.TrimSpace(in.TargetUserType)))
	if target == "" {
		target = model.TargetAllUsers
	}
	if !model.ValidTargetUserType(target) {
		return n, invalidf("Invalid target user type: %s", in.TargetUserType)
	}

	n.TargetUserID = nil
	if target == model.TargetSpecificUser {
		if in.TargetUserID == nil || *in.TargetUserID == 0 {
			return n, invalidf("Target user ID is required for SPECIFIC_USER notifications")
		}
		ok, err := s.users.Exists(ctx, *in.TargetUserID)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, notFoundf("User not found with ID: %d", *in.TargetUserID)
		}
		id := *in.TargetUserID
		n.TargetUserID = &id
	}

	n.Title = strings.TrimSpace(in.Title)
	n.Message = in.Message
	n.Type = typ
	n.TargetUserType = target
	n.ExpiresAt = in.ExpiresAt
	n.ActionURL = in.ActionURL
	n.IconURL = in.IconURL
	if in.IsActive != nil {
		n.IsActive = *in.IsActive
	}
	return n, nil
}

// ListForUser pages the notifications visible to the user, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint64, role string, page, size int) (Page[model.UserNotification], error) {
	page, size, offset := normalizePage(page, size)
	items, total, err := s.store.ListForUser(ctx, userID, role, s.now().UTC(), size, offset)
	if err != nil {
		return Page[model.UserNotification]{}, err
	}
	return Page[model.UserNotification]{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint64, role string) (int64, error) {
	return s.store.UnreadCount(ctx, userID, role, s.now().UTC())
}

// MarkRead records that the user read a notification.  The notification
// must be visible to the user.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint64, role string) error {
	n, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	if !n.VisibleAt(now) || !n.Targets(userID, role) {
		return notFoundf("Notification not found")
	}
	return s.store.MarkRead(ctx, id, userID, now)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64, role string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID, role, s.now().UTC())
}

// ListAll pages the active notifications for administrators.
func (s *NotificationService) ListAll(ctx context.Context, page, size int) (Page[model.Notification], error) {
	page, size, offset := normalizePage(page, size)
	items, total, err := s.store.ListActive(ctx, size, offset)
	if err != nil {
		return Page[model.Notification]{}, err
	}
	return Page[model.Notification]{Items: items, Page: page, Size: size, Total: total}, nil
}

func (s *NotificationService) Get(ctx context.Context, id uint64) (model.Notification, error) {
	return s.get(ctx, id)
}

// Delete deactivates a notification; its read markers are kept.
func (s *NotificationService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFoundf("Notification not found")
		}
		return err
	}
	return nil
}

// CleanupExpired deactivates notifications whose expiry has passed.
func (s *NotificationService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired notifications deactivated", zap.Int64("count", n))
	}
	return n, nil
}

// RunCleanup calls CleanupExpired every interval until ctx is done.
func (s *NotificationService) RunCleanup(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.CleanupExpired(ctx); err != nil {
				s.log.Error("notification cleanup failed", zap.Error(err))
			}
		}
	}
}

func (s *NotificationService) Types() []model.NotificationType { return model.NotificationTypes }

func (s *NotificationService) TargetTypes() []model.TargetUserType { return model.TargetUserTypes }

// HandleBookingStatus notifies the booking's user of a confirmation or
// completion.  Other statuses are ignored.
func (s *NotificationService) HandleBookingStatus(ctx context.Context, ev model.BookingStatusEvent) error {
	uid := ev.UserID
	in := NotificationInput{
		TargetUserType: string(model.TargetSpecificUser),
		TargetUserID:   &uid,
		ActionURL:      "/bookings/" + ev.BookingID,
	}
	switch ev.Status {
	case model.StatusConfirmed:
		in.Type = string(model.NotificationBookingConfirmation)
		in.Title = "Booking Confirmed"
		in.Message = fmt.Sprintf("Your booking for %s has been confirmed. Booking ID: %s", ev.Title, ev.BookingID)
	case model.StatusCompleted:
		in.Type = string(model.NotificationBookingCompleted)
		in.Title = "Booking Completed"
		in.Message = fmt.Sprintf("Your booking for %s has been completed. Thank you for travelling with us! Booking ID: %s", ev.Title, ev.BookingID)
	default:
		return nil
	}
	_, err := s.Create(ctx, in, nil)
	return err
}

// HandleOfferPublished announces a new offer to every user.
func (s *NotificationService) HandleOfferPublished(ctx context.Context, ev model.OfferPublishedEvent) error {
	in := NotificationInput{
		Title:          "New Offer: " + ev.Title,
		Message:        fmt.Sprintf("A new offer has been added: %s (%s%% OFF)", ev.Title, formatPercent(ev.DiscountPercentage)),
		Type:           string(model.NotificationOffer),
		TargetUserType: string(model.TargetAllUsers),
		ActionURL:      fmt.Sprintf("/offers/%d", ev.OfferID),
		IconURL:        ev.Image,
	}
	_, err := s.Create(ctx, in, nil)
	return err
}

func (s *NotificationService) get(ctx context.Context, id uint64) (model.Notification, error) {
	n, err := s.store.Get(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.Notification{}, notFoundf("Notification not found")
		}
		return model.Notification{}, err
	}
	return n, nil
}

// formatPercent prints 15 as "15" and 12.5 as "12.5".
func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
