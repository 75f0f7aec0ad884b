package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"errors"
	"io"
	"maps"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

// memStore is an in-memory implementation of every store interface. A
// transaction snapshots the maps and restores them when fn fails.
type memStore struct {
	mu sync.Mutex

	users         map[string]model.User
	events        map[string]model.Event
	categories    map[string]model.Category
	registrations map[string]model.Registration
	notifications map[string]model.Notification
	seq           int64
	inTx          bool

	createNotificationErr error
	updateNotificationErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]model.User{},
		events:        map[string]model.Event{},
		categories:    map[string]model.Category{},
		registrations: map[string]model.Registration{},
		notifications: map[string]model.Notification{},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.inTx {
		m.mu.Unlock()
		return fn(ctx)
	}
	m.inTx = true
	users := maps.Clone(m.users)
	events := maps.Clone(m.events)
	categories := maps.Clone(m.categories)
	registrations := maps.Clone(m.registrations)
	notifications := maps.Clone(m.notifications)
	seq := m.seq
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTx = false
	if err != nil {
		m.users = users
		m.events = events
		m.categories = categories
		m.registrations = registrations
		m.notifications = notifications
		m.seq = seq
	}
	return err
}

func page[T any](items []T, q model.PageQuery) []T {
	q = q.Normalize()
	start := q.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + q.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// users

func (m *memStore) CreateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return model.ErrConflict("email is already registered")
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound("user not found")
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if strings.ToLower(u.Email) == email {
			return u, nil
		}
	}
	return model.User{}, model.ErrNotFound("user not found")
}

func (m *memStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == tokenHash &&
			u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now) {
			return u, nil
		}
	}
	return model.User{}, model.ErrValidation("token is invalid or has expired")
}

func (m *memStore) GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == tokenHash &&
			u.EmailVerificationExpires != nil && u.EmailVerificationExpires.After(now) {
			return u, nil
		}
	}
	return model.User{}, model.ErrValidation("token is invalid or has expired")
}

func (m *memStore) UpdateUser(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.FullName()+" "+u.Email), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, filter.Page), int64(len(out)), nil
}

func (m *memStore) ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

// events

func (m *memStore) CreateEvent(ctx context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID] = *event
	return nil
}

func (m *memStore) GetEvent(ctx context.Context, id string) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return model.Event{}, model.ErrNotFound("event not found")
	}
	return e, nil
}

// UpdateEvent keeps the stored counters, like the SQL update that omits
// them.
func (m *memStore) UpdateEvent(ctx context.Context, event *model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.events[event.ID]
	if !ok {
		return model.ErrNotFound("event not found")
	}
	updated := *event
	updated.RegistrationCount = stored.RegistrationCount
	updated.WaitlistCount = stored.WaitlistCount
	updated.AttendanceCount = stored.AttendanceCount
	updated.ReminderSentAt = stored.ReminderSentAt
	updated.CreateDate = stored.CreateDate
	m.events[event.ID] = updated
	return nil
}

func (m *memStore) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		if filter.ActiveOnly && !e.IsActive {
			continue
		}
		if filter.PublicOnly && !(e.IsPublic && e.Status == model.EventPublished) {
			continue
		}
		if filter.OrganizerID != "" && e.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.CategoryID != "" && e.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return page(out, filter.Page), int64(len(out)), nil
}

func (m *memStore) ListEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, id := range ids {
		if e, ok := m.events[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ClaimSlot(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || !e.IsActive || e.RegistrationCount >= e.Capacity {
		return false, nil
	}
	e.RegistrationCount++
	m.events[eventID] = e
	return true, nil
}

func (m *memStore) HasApprovalSeat(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok || !e.IsActive {
		return false, nil
	}
	var taken int
	for _, r := range m.registrations {
		if r.EventID == eventID && (r.Status == model.RegistrationConfirmed || r.Status == model.RegistrationAttended) {
			taken++
		}
	}
	return taken < e.Capacity, nil
}

func (m *memStore) UpdateCounters(ctx context.Context, eventID string, counters model.EventCounters) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[eventID]
	if !ok {
		return model.ErrNotFound("event not found")
	}
	e.RegistrationCount = counters.RegistrationCount
	e.WaitlistCount = counters.WaitlistCount
	e.AttendanceCount = counters.AttendanceCount
	m.events[eventID] = e
	return nil
}

func (m *memStore) CountEventsByCategory(ctx context.Context, categoryID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.events {
		if e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ListEventsNeedingReminder(ctx context.Context, now time.Time, window time.Duration) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, e := range m.events {
		if e.IsActive && e.Status == model.EventPublished && e.ReminderSentAt == nil &&
			e.StartDate.After(now) && !e.StartDate.After(now.Add(window)) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) MarkReminderSent(ctx context.Context, eventID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.events[eventID]
	e.ReminderSentAt = &at
	m.events[eventID] = e
	return nil
}

// categories

func (m *memStore) CreateCategory(ctx context.Context, category *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == category.Name {
			return model.ErrConflict("category name already exists")
		}
	}
	m.categories[category.ID] = *category
	return nil
}

func (m *memStore) GetCategory(ctx context.Context, id string) (model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return model.Category{}, model.ErrNotFound("category not found")
	}
	return c, nil
}

func (m *memStore) UpdateCategory(ctx context.Context, category *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = *category
	return nil
}

func (m *memStore) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return model.ErrNotFound("category not found")
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Category
	for _, c := range m.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) ReparentChildren(ctx context.Context, id string, newParent *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for cid, c := range m.categories {
		if c.ParentCategoryID != nil && *c.ParentCategoryID == id {
			c.ParentCategoryID = newParent
			m.categories[cid] = c
		}
	}
	return nil
}

// registrations

func (m *memStore) CreateRegistration(ctx context.Context, registration *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.registrations {
		if r.EventID == registration.EventID && r.ParticipantID == registration.ParticipantID {
			return model.ErrConflict("already registered for this event")
		}
	}
	m.registrations[registration.ID] = *registration
	return nil
}

func (m *memStore) GetRegistration(ctx context.Context, id string) (model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.registrations[id]
	if !ok {
		return model.Registration{}, model.ErrNotFound("registration not found")
	}
	return r, nil
}

func (m *memStore) ExistsRegistration(ctx context.Context, eventID, participantID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.registrations {
		if r.EventID == eventID && r.ParticipantID == participantID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) UpdateRegistration(ctx context.Context, registration *model.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations[registration.ID] = *registration
	return nil
}

func (m *memStore) NextRegistrationNumber(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *memStore) CountByStatus(ctx context.Context, eventID string) (map[model.RegistrationStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[model.RegistrationStatus]int64{}
	for _, r := range m.registrations {
		if r.EventID == eventID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (m *memStore) matchRegistrations(filter model.RegistrationFilter) []model.Registration {
	var out []model.Registration
	for _, r := range m.registrations {
		if filter.EventID != "" && r.EventID != filter.EventID {
			continue
		}
		if filter.ParticipantID != "" && r.ParticipantID != filter.ParticipantID {
			continue
		}
		if len(filter.Statuses) > 0 {
			found := false
			for _, s := range filter.Statuses {
				if r.Status == s {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if filter.CheckedIn != nil && r.Attendance.CheckedIn != *filter.CheckedIn {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListRegistrations(ctx context.Context, filter model.RegistrationFilter) ([]model.Registration, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matchRegistrations(filter)
	return page(out, filter.Page), int64(len(out)), nil
}

func (m *memStore) ListAllRegistrations(ctx context.Context, filter model.RegistrationFilter) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchRegistrations(filter), nil
}

// notifications

func (m *memStore) CreateNotification(ctx context.Context, notification *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createNotificationErr != nil {
		return m.createNotificationErr
	}
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *memStore) CreateNotifications(ctx context.Context, notifications []model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createNotificationErr != nil {
		return m.createNotificationErr
	}
	for _, n := range notifications {
		m.notifications[n.ID] = n
	}
	return nil
}

func (m *memStore) GetNotification(ctx context.Context, id string) (model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok {
		return model.Notification{}, model.ErrNotFound("notification not found")
	}
	return n, nil
}

func (m *memStore) UpdateNotification(ctx context.Context, notification *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateNotificationErr != nil {
		return m.updateNotificationErr
	}
	m.notifications[notification.ID] = *notification
	return nil
}

func (m *memStore) DeleteNotification(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notifications[id]; !ok {
		return model.ErrNotFound("notification not found")
	}
	delete(m.notifications, id)
	return nil
}

func (m *memStore) ListNotifications(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.notifications {
		if n.RecipientID != filter.RecipientID || n.IsExpired(filter.Now) {
			continue
		}
		if filter.Type != "" && n.Type != filter.Type {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, filter.Page), int64(len(out)), nil
}

func (m *memStore) CountUnread(ctx context.Context, recipientID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead && !n.IsExpired(now) {
			total++
		}
	}
	return total, nil
}

func (m *memStore) MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var updated int64
	for id, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.MarkRead(now)
			m.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (m *memStore) ListDue(ctx context.Context, now time.Time, grace time.Duration, limit int) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.notifications {
		if n.Status != model.NotificationPending || !n.IsDue(now) || n.IsExpired(now) {
			continue
		}
		if n.UpdateDate.After(now.Add(-grace)) || !n.Channels.HasTransportChannel() {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, n := range m.notifications {
		if n.ExpiresAt != nil && n.ExpiresAt.Before(now) {
			delete(m.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) notificationsFor(recipientID string) []model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// collaborators

type pushRecord struct {
	UserID  string
	Payload model.NotificationPush
}

type fakePusher struct {
	mu     sync.Mutex
	pushes []pushRecord
}

func (p *fakePusher) PushToUser(userID string, payload model.NotificationPush) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushRecord{UserID: userID, Payload: payload})
	return 1
}

type fakeMailer struct {
	mu  sync.Mutex
	err error

	notifications []string
	bulk          [][]string
	welcome       []string
	verification  []string
	resets        []string
	tests         []string
}

func (f *fakeMailer) SendNotification(ctx context.Context, to model.User, notification model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.notifications = append(f.notifications, to.Email)
	return nil
}

func (f *fakeMailer) SendBulk(ctx context.Context, to []model.User, subject, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	var emails []string
	for _, u := range to {
		emails = append(emails, u.Email)
	}
	f.bulk = append(f.bulk, emails)
	return nil
}

func (f *fakeMailer) SendTest(ctx context.Context, to string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tests = append(f.tests, to)
	return nil
}

func (f *fakeMailer) SendWelcome(ctx context.Context, to model.User, verifyURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.welcome = append(f.welcome, verifyURL)
	return nil
}

func (f *fakeMailer) SendVerification(ctx context.Context, to model.User, verifyURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.verification = append(f.verification, verifyURL)
	return nil
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to model.User, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.resets = append(f.resets, resetURL)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []model.NotificationRequest
	bulk []model.BulkNotificationRequest
}

func (f *fakeNotifier) Send(ctx context.Context, sender *model.Actor, req model.NotificationRequest) (model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	if f.err != nil {
		return model.Notification{}, f.err
	}
	return model.Notification{RecipientID: req.RecipientID, Type: req.Type}, nil
}

func (f *fakeNotifier) SendBulk(ctx context.Context, sender *model.Actor, req model.BulkNotificationRequest) (model.BulkNotificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk = append(f.bulk, req)
	if f.err != nil {
		return model.BulkNotificationResult{}, f.err
	}
	return model.BulkNotificationResult{BatchID: "batch", Count: len(req.RecipientIDs)}, nil
}

// fixtures

var (
	errTransport = errors.New("smtp: connection refused")
	testNow      = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time {
	return testNow
}

func discardLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func newTestLogger(t *testing.T) *log.Logger {
	t.Helper()
	return discardLogger()
}

func (m *memStore) addUser(id string, role model.Role) model.User {
	u := model.User{
		ID:          id,
		FirstName:   strings.ToUpper(id[:1]) + id[1:],
		LastName:    "Tester",
		Email:       id + "@example.edu",
		Role:        role,
		IsActive:    true,
		Preferences: datatypes.NewJSONType(model.DefaultUserPreferences()),
		CreateDate:  testNow,
		UpdateDate:  testNow,
	}
	m.mu.Lock()
	m.users[id] = u
	m.mu.Unlock()
	return u
}

func (m *memStore) addEvent(id string, capacity int, mutate ...func(e *model.Event)) model.Event {
	e := model.Event{
		ID:          id,
		Title:       "Event " + id,
		Slug:        id,
		Description: "An event",
		StartDate:   testNow.Add(72 * time.Hour),
		EndDate:     testNow.Add(74 * time.Hour),
		Venue:       "Main Hall",
		Capacity:    capacity,
		CategoryID:  "cat-1",
		OrganizerID: "organizer",
		Status:      model.EventPublished,
		IsPublic:    true,
		IsActive:    true,
		CreateDate:  testNow,
		UpdateDate:  testNow,
	}
	for _, fn := range mutate {
		fn(&e)
	}
	m.mu.Lock()
	m.events[id] = e
	m.mu.Unlock()
	return e
}

func (m *memStore) addCategory(id string, parent *string, active bool) model.Category {
	c := model.Category{
		ID:               id,
		Name:             "Category " + id,
		Color:            model.DefaultCategoryColor,
		ParentCategoryID: parent,
		IsActive:         active,
		CreateDate:       testNow,
		UpdateDate:       testNow,
	}
	m.mu.Lock()
	m.categories[id] = c
	m.mu.Unlock()
	return c
}

func (m *memStore) event(id string) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id]
}

func (m *memStore) registration(id string) model.Registration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations[id]
}

func actorOf(u model.User) model.Actor {
	return model.Actor{ID: u.ID, Role: u.Role}
}
