package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	byID map[uint64]model.User
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[uint64]model.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Exists(_ context.Context, id uint64) (bool, error) {
	_, ok := m.byID[id]
	return ok, nil
}

func (m *memUsers) List(context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUsers) Count(context.Context) (int64, error) { return int64(len(m.byID)), nil }

func (m *memUsers) UpdateRole(_ context.Context, id uint64, role string) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	m.byID[id] = u
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, u *model.User) error {
	if _, ok := m.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[u.ID] = *u
	return nil
}

// memActivities is an in-memory ActivityStore.
type memActivities struct {
	byID   map[uint64]model.Activity
	nextID uint64
}

func newMemActivities(acts ...model.Activity) *memActivities {
	m := &memActivities{byID: map[uint64]model.Activity{}, nextID: 100}
	for _, a := range acts {
		m.byID[a.ID] = a
	}
	return m
}

func (m *memActivities) Create(_ context.Context, a *model.Activity) error {
	m.nextID++
	a.ID = m.nextID
	for i := range a.Packages {
		m.nextID++
		a.Packages[i].ID = m.nextID
		a.Packages[i].ActivityID = a.ID
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memActivities) Update(_ context.Context, a *model.Activity) error {
	if _, ok := m.byID[a.ID]; !ok {
		return repository.ErrNotFound
	}
	m.byID[a.ID] = *a
	return nil
}

func (m *memActivities) Get(_ context.Context, id uint64) (model.Activity, error) {
	a, ok := m.byID[id]
	if !ok {
		return model.Activity{}, repository.ErrNotFound
	}
	return a, nil
}

func (m *memActivities) List(_ context.Context, f repository.ActivityFilter) ([]model.Activity, int64, error) {
	out := []model.Activity{}
	for _, a := range m.byID {
		if f.ActiveOnly && !a.Active {
			continue
		}
		if f.CreatedBy != "" && a.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Query != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(f.Query)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memActivities) Delete(_ context.Context, id uint64) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memActivities) DeleteAll(context.Context) (int64, error) {
	n := int64(len(m.byID))
	m.byID = map[uint64]model.Activity{}
	return n, nil
}

func (m *memActivities) Count(_ context.Context, createdBy string) (int64, error) {
	var n int64
	for _, a := range m.byID {
		if createdBy == "" || a.CreatedBy == createdBy {
			n++
		}
	}
	return n, nil
}

// memBookings is an in-memory BookingStore that applies the same capacity
// rule as the SQL implementation.
type memBookings struct {
	mu         sync.Mutex
	activities *memActivities
	byID       map[string]model.Booking
	order      []string
	qrUpdates  int
}

func newMemBookings(acts *memActivities) *memBookings {
	return &memBookings{activities: acts, byID: map[string]model.Booking{}}
}

func (m *memBookings) CreateWithinCapacity(_ context.Context, b *model.Booking) (repository.CapacitySnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var snap repository.CapacitySnapshot
	act, ok := m.activities.byID[b.ActivityID]
	if !ok {
		return snap, repository.ErrNotFound
	}
	snap.Capacity = act.Capacity()
	snap.Booked = m.booked(b.ActivityID, b.BookingDate, nil)
	if b.PackageID != nil {
		p, ok := act.Package(*b.PackageID)
		if !ok {
			return snap, repository.ErrNotFound
		}
		snap.Package = &repository.PackageLoad{
			ID:       p.ID,
			Capacity: p.Availability,
			Booked:   m.booked(b.ActivityID, b.BookingDate, b.PackageID),
		}
	}
	if b.TotalPersons > snap.Available() {
		return snap, repository.ErrCapacityExceeded
	}
	if _, dup := m.byID[b.ID]; dup {
		return snap, repository.ErrConflict
	}
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	m.byID[b.ID] = *b
	m.order = append(m.order, b.ID)
	return snap, nil
}

func (m *memBookings) booked(activityID uint64, date string, packageID *uint64) int {
	n := 0
	for _, b := range m.byID {
		if b.ActivityID != activityID || b.BookingDate != date || !b.Status.CountsCapacity() {
			continue
		}
		if packageID != nil && (b.PackageID == nil || *b.PackageID != *packageID) {
			continue
		}
		n += b.TotalPersons
	}
	return n
}

func (m *memBookings) BookedPersons(_ context.Context, activityID uint64, date string, packageID *uint64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.booked(activityID, date, packageID), nil
}

func (m *memBookings) Get(_ context.Context, id string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (m *memBookings) List(_ context.Context, f repository.BookingFilter) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for i := len(m.order) - 1; i >= 0; i-- {
		b, ok := m.byID[m.order[i]]
		if !ok {
			continue
		}
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.OwnerEmail != "" {
			act, ok := m.activities.byID[b.ActivityID]
			if !ok || act.CreatedBy != f.OwnerEmail {
				continue
			}
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id string, status model.BookingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.Status = status
	m.byID[id] = b
	return nil
}

func (m *memBookings) UpdateQRCode(_ context.Context, id, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.QRCodeData = data
	m.byID[id] = b
	m.qrUpdates++
	return nil
}

func (m *memBookings) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memBookings) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.byID))
	m.byID = map[string]model.Booking{}
	m.order = nil
	return n, nil
}

func (m *memBookings) Stats(_ context.Context, ownerEmail string) (repository.BookingStats, error) {
	list, _ := m.List(context.Background(), repository.BookingFilter{OwnerEmail: ownerEmail})
	st := repository.BookingStats{ByStatus: map[model.BookingStatus]int64{}}
	for _, b := range list {
		st.Total++
		st.ByStatus[b.Status]++
		if b.Status != model.StatusCancelled {
			st.Revenue += b.TotalPrice
		}
	}
	return st, nil
}

func (m *memBookings) RevenueByActivity(context.Context, string) ([]repository.ActivityRevenue, error) {
	return []repository.ActivityRevenue{}, nil
}

// recordingSink captures events synchronously.
type recordingSink struct {
	mu       sync.Mutex
	bookings []model.BookingStatusEvent
	offers   []model.OfferPublishedEvent
}

func (s *recordingSink) BookingStatusChanged(_ context.Context, ev model.BookingStatusEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, ev)
}

func (s *recordingSink) OfferPublished(_ context.Context, ev model.OfferPublishedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers = append(s.offers, ev)
}

// fakeOffers is a function-field OfferStore; unset functions panic.
type fakeOffers struct {
	CreateFunc      func(ctx context.Context, o *model.Offer) error
	UpdateFunc      func(ctx context.Context, o *model.Offer) error
	SetHomepageFunc func(ctx context.Context, id uint64, selected bool) error
	GetFunc         func(ctx context.Context, id uint64) (model.Offer, error)
	ListFunc        func(ctx context.Context, f repository.OfferFilter) ([]model.Offer, error)
	CountFunc       func(ctx context.Context, createdBy string, homepageOnly bool) (int64, error)
	DeleteFunc      func(ctx context.Context, id uint64) error
	DeleteAllFunc   func(ctx context.Context) (int64, error)
}

func (f *fakeOffers) Create(ctx context.Context, o *model.Offer) error { return f.CreateFunc(ctx, o) }
func (f *fakeOffers) Update(ctx context.Context, o *model.Offer) error { return f.UpdateFunc(ctx, o) }
func (f *fakeOffers) SetHomepage(ctx context.Context, id uint64, selected bool) error {
	return f.SetHomepageFunc(ctx, id, selected)
}
func (f *fakeOffers) Get(ctx context.Context, id uint64) (model.Offer, error) { return f.GetFunc(ctx, id) }
func (f *fakeOffers) List(ctx context.Context, filter repository.OfferFilter) ([]model.Offer, error) {
	return f.ListFunc(ctx, filter)
}
func (f *fakeOffers) Count(ctx context.Context, createdBy string, homepageOnly bool) (int64, error) {
	return f.CountFunc(ctx, createdBy, homepageOnly)
}
func (f *fakeOffers) Delete(ctx context.Context, id uint64) error { return f.DeleteFunc(ctx, id) }
func (f *fakeOffers) DeleteAll(ctx context.Context) (int64, error) { return f.DeleteAllFunc(ctx) }

// fakeNotifications is a function-field NotificationStore.
type fakeNotifications struct {
	CreateFunc            func(ctx context.Context, n *model.Notification) error
	UpdateFunc            func(ctx context.Context, n *model.Notification) error
	GetFunc               func(ctx context.Context, id uint64) (model.Notification, error)
	ListForUserFunc       func(ctx context.Context, userID uint64, role string, now time.Time, limit, offset int) ([]model.UserNotification, int64, error)
	UnreadCountFunc       func(ctx context.Context, userID uint64, role string, now time.Time) (int64, error)
	MarkReadFunc          func(ctx context.Context, notificationID, userID uint64, at time.Time) error
	MarkAllReadFunc       func(ctx context.Context, userID uint64, role string, now time.Time) (int64, error)
	ListActiveFunc        func(ctx context.Context, limit, offset int) ([]model.Notification, int64, error)
	DeactivateFunc        func(ctx context.Context, id uint64) error
	DeactivateExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakeNotifications) Create(ctx context.Context, n *model.Notification) error {
	return f.CreateFunc(ctx, n)
}
func (f *fakeNotifications) Update(ctx context.Context, n *model.Notification) error {
	return f.UpdateFunc(ctx, n)
}
func (f *fakeNotifications) Get(ctx context.Context, id uint64) (model.Notification, error) {
	return f.GetFunc(ctx, id)
}
func (f *fakeNotifications) ListForUser(ctx context.Context, userID uint64, role string, now time.Time, limit, offset int) ([]model.UserNotification, int64, error) {
	return f.ListForUserFunc(ctx, userID, role, now, limit, offset)
}
func (f *fakeNotifications) UnreadCount(ctx context.Context, userID uint64, role string, now time.Time) (int64, error) {
	return f.UnreadCountFunc(ctx, userID, role, now)
}
func (f *fakeNotifications) MarkRead(ctx context.Context, notificationID, userID uint64, at time.Time) error {
	return f.MarkReadFunc(ctx, notificationID, userID, at)
}
func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID uint64, role string, now time.Time) (int64, error) {
	return f.MarkAllReadFunc(ctx, userID, role, now)
}
func (f *fakeNotifications) ListActive(ctx context.Context, limit, offset int) ([]model.Notification, int64, error) {
	return f.ListActiveFunc(ctx, limit, offset)
}
func (f *fakeNotifications) Deactivate(ctx context.Context, id uint64) error {
	return f.DeactivateFunc(ctx, id)
}
func (f *fakeNotifications) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.DeactivateExpiredFunc(ctx, now)
}
