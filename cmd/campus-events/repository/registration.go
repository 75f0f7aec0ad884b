package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"

	"gorm.io/gorm"
)

type RegistrationRepo struct {
	db *gorm.DB
}

func NewRegistrationRepo(db *gorm.DB) *RegistrationRepo {
	return &RegistrationRepo{
		db: db,
	}
}

func (r *RegistrationRepo) CreateRegistration(ctx context.Context, registration *model.Registration) error {

	result := conn(ctx, r.db).
		Create(registration)

	return translate(result.Error, "registration")
}

func (r *RegistrationRepo) GetRegistration(ctx context.Context, id string) (model.Registration, error) {

	var registration model.Registration

	result := locked(ctx, r.db).
		Where("id = ?", id).
		First(&registration)

	return registration, translate(result.Error, "registration")
}

func (r *RegistrationRepo) ExistsRegistration(ctx context.Context, eventID, participantID string) (bool, error) {

	var total int64

	result := conn(ctx, r.db).
		Model(&model.Registration{}).
		Where("event_id = ? AND participant_id = ?", eventID, participantID).
		Count(&total)

	if result.Error != nil {
		return false, translate(result.Error, "registration")
	}

	return total > 0, nil
}

func (r *RegistrationRepo) UpdateRegistration(ctx context.Context, registration *model.Registration) error {

	result := conn(ctx, r.db).
		Save(registration)

	return translate(result.Error, "registration")
}

// NextRegistrationNumber draws the next value of the registration number
// sequence.
func (r *RegistrationRepo) NextRegistrationNumber(ctx context.Context) (int64, error) {

	var seq int64

	result := conn(ctx, r.db).
		Raw("SELECT nextval('registration_number_seq')").
		Scan(&seq)

	return seq, translate(result.Error, "registration")
}

type statusCount struct {
	Status model.RegistrationStatus `gorm:"column:status"`
	Total  int64                    `gorm:"column:total"`
}

func (r *RegistrationRepo) CountByStatus(ctx context.Context, eventID string) (map[model.RegistrationStatus]int64, error) {

	var rows []statusCount

	result := conn(ctx, r.db).
		Model(&model.Registration{}).
		Select("status, COUNT(*) AS total").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows)

	if result.Error != nil {
		return nil, translate(result.Error, "registration")
	}

	counts := make(map[model.RegistrationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

func (r *RegistrationRepo) filtered(ctx context.Context, filter model.RegistrationFilter) *gorm.DB {

	q := conn(ctx, r.db).
		Model(&model.Registration{})

	if filter.EventID != "" {
		q = q.Where("event_id = ?", filter.EventID)
	}
	if filter.ParticipantID != "" {
		q = q.Where("participant_id = ?", filter.ParticipantID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.CheckedIn != nil {
		q = q.Where("attendance_checked_in = ?", *filter.CheckedIn)
	}

	return q
}

func (r *RegistrationRepo) ListRegistrations(ctx context.Context, filter model.RegistrationFilter) ([]model.Registration, int64, error) {

	var (
		registrations []model.Registration
		total         int64
	)

	q := r.filtered(ctx, filter)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "registration")
	}

	page := filter.Page.Normalize()
	result := q.
		Order("registration_date DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&registrations)

	if result.Error != nil {
		return nil, 0, translate(result.Error, "registration")
	}

	return registrations, total, nil
}

// ListAllRegistrations is ListRegistrations without paging, for exports
// and fan-out.
func (r *RegistrationRepo) ListAllRegistrations(ctx context.Context, filter model.RegistrationFilter) ([]model.Registration, error) {

	var registrations []model.Registration

	result := r.filtered(ctx, filter).
		Order("registration_date ASC").
		Find(&registrations)

	if result.Error != nil {
		return nil, translate(result.Error, "registration")
	}

	return registrations, nil
}
