package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
	"github.com/iliyamo/travel-booking-admin/internal/utils"
)

const (
	defaultInstructions = "Please arrive 30 minutes before your scheduled activity time. Bring a valid ID and this booking confirmation. For any questions, contact our support team."
	itineraryTemplate   = "Your %s experience includes:\n- Welcome and safety briefing\n- Activity duration as specified\n- All necessary equipment provided\n- Professional guide assistance\n- Light refreshments (if included in package)"
	defaultCancellation = "Free cancellation up to 24 hours before the scheduled activity. Cancellations within 24 hours are subject to a 50% charge. No-shows will not receive any refund."
)

// CreateBookingInput is the customer's booking request.  TotalPrice and the
// breakdown are taken as given; no pricing is recomputed.
type CreateBookingInput struct {
	ActivityID         uint64
	PackageID          *uint64
	BookingDate        string
	BookingTime        string
	PeopleCounts       model.PeopleCounts
	TotalPersons       int
	BasePrice          float64
	ServiceFee         float64
	Tax                float64
	TotalPrice         float64
	PaymentMethod      string
	ContactEmail       string
	ContactPhone       string
	Title              string
	Location           string
	Image              string
	Description        string
	HasDiscount        bool
	DiscountPercentage float64
	OfferTitle         string
}

// VerifyResult is the outcome of a successful ticket scan.
type VerifyResult struct {
	Valid   bool              `json:"valid"`
	Message string            `json:"message"`
	Booking model.BookingView `json:"booking"`
}

// BookingEngine runs the booking lifecycle: creation under capacity,
// the status machine, ticket issue and verification.
type BookingEngine struct {
	users      UserStore
	activities ActivityStore
	bookings   BookingStore
	sink       EventSink
	log        *zap.Logger

	now    func() time.Time
	loc    *time.Location
	suffix func() string
}

func NewBookingEngine(users UserStore, activities ActivityStore, bookings BookingStore, sink EventSink, log *zap.Logger) *BookingEngine {
	if sink == nil {
		sink = NopSink{}
	}
	return &BookingEngine{
		users:      users,
		activities: activities,
		bookings:   bookings,
		sink:       sink,
		log:        log,
		now:        time.Now,
		loc:        time.Local,
		suffix:     func() string { return strings.ToUpper(uuid.NewString()[:8]) },
	}
}

// SetLocation sets the zone whose calendar decides which dates are in the
// past.  A nil loc keeps the server's local zone.
func (e *BookingEngine) SetLocation(loc *time.Location) {
	if loc != nil {
		e.loc = loc
	}
}

// Create validates the request, snapshots the activity and books the spots.
// The capacity check and the insert run in one locked transaction.
func (e *BookingEngine) Create(ctx context.Context, email string, in CreateBookingInput) (model.BookingView, error) {
	email = repository.NormalizeEmail(email)
	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.BookingView{}, notFoundf("User not found with email: %s", email)
		}
		return model.BookingView{}, err
	}

	date, err := parseBookingDate(in.BookingDate, e.now(), e.loc)
	if err != nil {
		return model.BookingView{}, err
	}

	act, err := e.activities.Get(ctx, in.ActivityID)
	if err != nil {
		if repository.IsNotFound(err) {
			return model.BookingView{}, notFoundf("Activity not found")
		}
		return model.BookingView{}, err
	}
	var pkg model.Package
	if in.PackageID != nil {
		p, ok := act.Package(*in.PackageID)
		if !ok {
			return model.BookingView{}, invalidf("Package %d does not belong to activity %d", *in.PackageID, act.ID)
		}
		pkg = p
	}

	persons := in.TotalPersons
	if persons == 0 {
		persons = in.PeopleCounts.Total()
	}
	if persons < 1 {
		return model.BookingView{}, invalidf("Number of people must be at least 1")
	}

	now := e.now()
	ms := now.UnixMilli()
	b := model.Booking{
		ID:                 fmt.Sprintf("TICK-%d-%s", ms, e.suffix()),
		OrderNumber:        fmt.Sprintf("ORD-%d-%s", ms, e.suffix()),
		UserID:             user.ID,
		ActivityID:         act.ID,
		PackageID:          in.PackageID,
		PackageName:        pkg.Name,
		Title:              firstNonEmpty(in.Title, act.Title),
		Location:           firstNonEmpty(in.Location, act.Location),
		Image:              firstNonEmpty(in.Image, act.Image),
		Description:        firstNonEmpty(in.Description, act.Description),
		BookingDate:        date,
		BookingTime:        in.BookingTime,
		Status:             model.StatusPending,
		BasePrice:          in.BasePrice,
		ServiceFee:         in.ServiceFee,
		Tax:                in.Tax,
		TotalPrice:         in.TotalPrice,
		TotalPersons:       persons,
		PeopleCounts:       in.PeopleCounts,
		PaymentMethod:      in.PaymentMethod,
		HasDiscount:        in.HasDiscount,
		DiscountPercentage: in.DiscountPercentage,
		OfferTitle:         in.OfferTitle,
		ContactEmail:       firstNonEmpty(in.ContactEmail, user.Email),
		ContactPhone:       in.ContactPhone,
		TicketInstructions: defaultInstructions,
		CancellationPolicy: defaultCancellation,
	}
	if b.PeopleCounts == nil {
		b.PeopleCounts = model.PeopleCounts{}
	}
	if b.ContactPhone == "" && user.PhoneNumber != nil {
		b.ContactPhone = *user.PhoneNumber
	}
	b.Itinerary = fmt.Sprintf(itineraryTemplate, b.Title)
	if b.QRCodeData, err = EncodeTicket(b, now); err != nil {
		return model.BookingView{}, err
	}

	snap, err := e.bookings.CreateWithinCapacity(ctx, &b)
	switch {
	case errors.Is(err, repository.ErrCapacityExceeded):
		e.log.Info("booking refused: capacity",
			zap.Uint64("activity_id", act.ID), zap.String("date", date),
			zap.Int("capacity", snap.Capacity), zap.Int("booked", snap.Booked),
			zap.Int("available", snap.Available()), zap.Int("requested", persons))
		return model.BookingView{}, conflictf("Not enough availability for the requested number of people")
	case errors.Is(err, repository.ErrNotFound):
		return model.BookingView{}, notFoundf("Activity not found")
	case errors.Is(err, repository.ErrConflict):
		return model.BookingView{}, conflictf("Booking reference collision, please retry")
	case err != nil:
		return model.BookingView{}, err
	}

	e.log.Info("booking created",
		zap.String("booking_id", b.ID), zap.Uint64("user_id", user.ID),
		zap.Uint64("activity_id", act.ID), zap.String("date", date), zap.Int("persons", persons))
	return viewOf(b, user, &act), nil
}

// Get returns one booking visible to the actor.
func (e *BookingEngine) Get(ctx context.Context, a Actor, id string) (model.BookingView, error) {
	b, err := e.load(ctx, id)
	if err != nil {
		return model.BookingView{}, err
	}
	if err := e.authorize(ctx, a, b); err != nil {
		return model.BookingView{}, err
	}
	return e.view(ctx, b), nil
}

// ListMine returns the actor's own bookings, optionally narrowed by status.
func (e *BookingEngine) ListMine(ctx context.Context, a Actor, status string) ([]model.BookingView, error) {
	f, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	uid := a.UserID
	f.UserID = &uid
	return e.list(ctx, f)
}

// ListAll returns every booking, optionally narrowed by status.
func (e *BookingEngine) ListAll(ctx context.Context, status string) ([]model.BookingView, error) {
	f, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	return e.list(ctx, f)
}

// ListForOwner returns bookings of activities created by ownerEmail.  An
// owner without activities gets an empty list.
func (e *BookingEngine) ListForOwner(ctx context.Context, ownerEmail, status string) ([]model.BookingView, error) {
	f, err := statusFilter(status)
	if err != nil {
		return nil, err
	}
	f.OwnerEmail = strings.TrimSpace(ownerEmail)
	if f.OwnerEmail == "" {
		return []model.BookingView{}, nil
	}
	return e.list(ctx, f)
}

// UpdateStatus moves a booking through the status machine.  Updating to the
// current status returns the booking unchanged.
func (e *BookingEngine) UpdateStatus(ctx context.Context, a Actor, id, status string) (model.BookingView, error) {
	next, ok := model.ParseBookingStatus(status)
	if !ok {
		return model.BookingView{}, invalidf("Invalid status: %s", status)
	}
	return e.transition(ctx, a, id, next)
}

// Cancel moves a booking to CANCELLED, freeing its spots.
func (e *BookingEngine) Cancel(ctx context.Context, a Actor, id string) (model.BookingView, error) {
	return e.transition(ctx, a, id, model.StatusCancelled)
}

// MarkCompleted moves a booking to COMPLETED.
func (e *BookingEngine) MarkCompleted(ctx context.Context, a Actor, id string) (model.BookingView, error) {
	return e.transition(ctx, a, id, model.StatusCompleted)
}

func (e *BookingEngine) transition(ctx context.Context, a Actor, id string, next model.BookingStatus) (model.BookingView, error) {
	b, err := e.load(ctx, id)
	if err != nil {
		return model.BookingView{}, err
	}
	if err := e.authorize(ctx, a, b); err != nil {
		return model.BookingView{}, err
	}

	cur := b.Status
	if cur == next {
		return e.view(ctx, b), nil
	}
	if cur == model.StatusCancelled && next == model.StatusCompleted {
		return model.BookingView{}, conflictf("Cannot mark cancelled booking as completed")
	}
	if !model.CanTransition(cur, next) {
		return model.BookingView{}, conflictf("Invalid status transition from %s to %s", cur, next)
	}

	if err := e.bookings.UpdateStatus(ctx, b.ID, next); err != nil {
		if repository.IsNotFound(err) {
			return model.BookingView{}, notFoundf("Booking not found for ID: %s", id)
		}
		return model.BookingView{}, err
	}
	b.Status = next
	b.UpdatedAt = e.now().UTC()
	e.log.Info("booking status changed",
		zap.String("booking_id", b.ID), zap.String("from", string(cur)), zap.String("to", string(next)),
		zap.Uint64("actor_id", a.UserID))

	if next == model.StatusConfirmed || next == model.StatusCompleted {
		e.sink.BookingStatusChanged(ctx, model.BookingStatusEvent{
			BookingID:   b.ID,
			OrderNumber: b.OrderNumber,
			UserID:      b.UserID,
			ActivityID:  b.ActivityID,
			Title:       b.Title,
			BookingDate: b.BookingDate,
			Status:      next,
			TotalPrice:  b.TotalPrice,
			OccurredAt:  e.now().UTC().Format(time.RFC3339),
		})
	}
	return e.view(ctx, b), nil
}

// VerifyQR checks a scanned ticket against the stored booking.  A booking
// without a stored ticket gets a fresh one before comparison.
func (e *BookingEngine) VerifyQR(ctx context.Context, a Actor, raw string) (VerifyResult, error) {
	claims, err := DecodeTicket(raw)
	if err != nil {
		return VerifyResult{}, err
	}
	b, err := e.load(ctx, claims.TicketID)
	if err != nil {
		return VerifyResult{}, err
	}
	if err := e.authorize(ctx, a, b); err != nil {
		return VerifyResult{}, err
	}
	if err := e.ensureTicket(ctx, &b); err != nil {
		return VerifyResult{}, err
	}
	if err := claims.Match(b); err != nil {
		return VerifyResult{}, err
	}
	if b.Status == model.StatusCancelled {
		return VerifyResult{}, invalidf("This ticket has been cancelled and is not valid")
	}
	return VerifyResult{Valid: true, Message: "QR code verified successfully", Booking: e.view(ctx, b)}, nil
}

// TicketPNG renders the booking's ticket as a QR image.
func (e *BookingEngine) TicketPNG(ctx context.Context, a Actor, id string) ([]byte, error) {
	b, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(ctx, a, b); err != nil {
		return nil, err
	}
	if err := e.ensureTicket(ctx, &b); err != nil {
		return nil, err
	}
	return utils.RenderQRPNG(b.QRCodeData, utils.QRSize)
}

// Delete removes a booking the actor may manage.
func (e *BookingEngine) Delete(ctx context.Context, a Actor, id string) error {
	b, err := e.load(ctx, id)
	if err != nil {
		return err
	}
	if err := e.authorize(ctx, a, b); err != nil {
		return err
	}
	if err := e.bookings.Delete(ctx, b.ID); err != nil {
		if repository.IsNotFound(err) {
			return notFoundf("Booking not found for ID: %s", id)
		}
		return err
	}
	e.log.Info("booking deleted", zap.String("booking_id", b.ID), zap.Uint64("actor_id", a.UserID))
	return nil
}

// DeleteAll removes every booking and returns the count.
func (e *BookingEngine) DeleteAll(ctx context.Context) (int64, error) {
	n, err := e.bookings.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	e.log.Warn("all bookings deleted", zap.Int64("count", n))
	return n, nil
}

func (e *BookingEngine) ensureTicket(ctx context.Context, b *model.Booking) error {
	if strings.TrimSpace(b.QRCodeData) != "" {
		return nil
	}
	data, err := EncodeTicket(*b, e.now())
	if err != nil {
		return err
	}
	if err := e.bookings.UpdateQRCode(ctx, b.ID, data); err != nil {
		return err
	}
	b.QRCodeData = data
	e.log.Info("ticket regenerated", zap.String("booking_id", b.ID))
	return nil
}

func (e *BookingEngine) load(ctx context.Context, id string) (model.Booking, error) {
	b, err := e.bookings.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		if repository.IsNotFound(err) {
			return model.Booking{}, notFoundf("Booking not found for ID: %s", id)
		}
		return model.Booking{}, err
	}
	return b, nil
}

// authorize applies the actor's scope to b.  Admins pass everywhere.
func (e *BookingEngine) authorize(ctx context.Context, a Actor, b model.Booking) error {
	if a.IsAdmin() {
		return nil
	}
	switch a.Scope {
	case ScopeSelf:
		if a.UserID != 0 && b.UserID == a.UserID {
			return nil
		}
		return forbiddenf("You can only access your own bookings")
	case ScopeOwner:
		if !a.IsOwner() {
			return forbiddenf("Access denied. Activity owner role required.")
		}
		act, err := e.activities.Get(ctx, b.ActivityID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}
		if err == nil && a.owns(act.CreatedBy) {
			return nil
		}
		return forbiddenf("You can only manage bookings for your own activities")
	}
	return forbiddenf("Access denied. Admin role required.")
}

func (e *BookingEngine) list(ctx context.Context, f repository.BookingFilter) ([]model.BookingView, error) {
	list, err := e.bookings.List(ctx, f)
	if err != nil {
		return nil, err
	}
	users := map[uint64]model.User{}
	acts := map[uint64]*model.Activity{}
	out := make([]model.BookingView, 0, len(list))
	for _, b := range list {
		u, ok := users[b.UserID]
		if !ok {
			u, _ = e.users.GetByID(ctx, b.UserID)
			users[b.UserID] = u
		}
		act, ok := acts[b.ActivityID]
		if !ok {
			act = e.activity(ctx, b.ActivityID)
			acts[b.ActivityID] = act
		}
		out = append(out, viewOf(b, u, act))
	}
	return out, nil
}

// view resolves the user and package features for one booking.  Missing
// users or activities leave those fields empty.
func (e *BookingEngine) view(ctx context.Context, b model.Booking) model.BookingView {
	u, err := e.users.GetByID(ctx, b.UserID)
	if err != nil && !repository.IsNotFound(err) {
		e.log.Warn("booking view: load user", zap.String("booking_id", b.ID), zap.Error(err))
	}
	return viewOf(b, u, e.activity(ctx, b.ActivityID))
}

func (e *BookingEngine) activity(ctx context.Context, id uint64) *model.Activity {
	act, err := e.activities.Get(ctx, id)
	if err != nil {
		if !repository.IsNotFound(err) {
			e.log.Warn("booking view: load activity", zap.Uint64("activity_id", id), zap.Error(err))
		}
		return nil
	}
	return &act
}

func viewOf(b model.Booking, u model.User, act *model.Activity) model.BookingView {
	v := model.BookingView{Booking: b, Features: []string{}, UserEmail: u.Email, UserName: u.FullName()}
	if act != nil && b.PackageID != nil {
		if p, ok := act.Package(*b.PackageID); ok && p.Features != nil {
			v.Features = p.Features
		}
	}
	return v
}

func statusFilter(status string) (repository.BookingFilter, error) {
	var f repository.BookingFilter
	if strings.TrimSpace(status) == "" {
		return f, nil
	}
	st, ok := model.ParseBookingStatus(status)
	if !ok {
		return f, invalidf("Invalid status: %s", status)
	}
	f.Status = st
	return f, nil
}

// parseBookingDate validates a YYYY-MM-DD date not before today, where
// today is now's calendar date in loc.
func parseBookingDate(s string, now time.Time, loc *time.Location) (string, error) {
	d, err := time.Parse(model.BookingDateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", invalidf("Invalid date format. Please use YYYY-MM-DD format")
	}
	y, m, day := now.In(loc).Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if d.Before(today) {
		return "", invalidf("Cannot book for past dates")
	}
	return d.Format(model.BookingDateLayout), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
