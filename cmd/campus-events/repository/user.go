package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

func (r *UserRepo) CreateUser(ctx context.Context, user *model.User) error {

	result := conn(ctx, r.db).
		Create(user)

	return translate(result.Error, "user")
}

func (r *UserRepo) GetUser(ctx context.Context, id string) (model.User, error) {

	var user model.User

	result := conn(ctx, r.db).
		Where("id = ?", id).
		First(&user)

	return user, translate(result.Error, "user")
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {

	var user model.User

	result := conn(ctx, r.db).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user)

	return user, translate(result.Error, "user")
}

// GetUserByResetToken finds the user owning an unexpired password reset
// token hash.
func (r *UserRepo) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {

	var user model.User

	result := conn(ctx, r.db).
		Where("password_reset_token = ? AND password_reset_expires > ?", tokenHash, now).
		First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return user, model.ErrValidation("token is invalid or has expired")
	}

	return user, translate(result.Error, "user")
}

func (r *UserRepo) GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (model.User, error) {

	var user model.User

	result := conn(ctx, r.db).
		Where("email_verification_token = ? AND email_verification_expires > ?", tokenHash, now).
		First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return user, model.ErrValidation("verification token is invalid or has expired")
	}

	return user, translate(result.Error, "user")
}

func (r *UserRepo) UpdateUser(ctx context.Context, user *model.User) error {

	result := conn(ctx, r.db).
		Save(user)

	return translate(result.Error, "user")
}

func (r *UserRepo) ListUsers(ctx context.Context, filter model.UserFilter) ([]model.User, int64, error) {

	var (
		users []model.User
		total int64
	)

	q := conn(ctx, r.db).
		Model(&model.User{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Department != "" {
		q = q.Where("department ILIKE ?", "%"+filter.Department+"%")
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "user")
	}

	page := filter.Page.Normalize()
	result := q.
		Order("create_date DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&users)

	if result.Error != nil {
		return nil, 0, translate(result.Error, "user")
	}

	return users, total, nil
}

// ListUsersByIDs returns the active users among ids.
func (r *UserRepo) ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {

	var users []model.User

	if len(ids) == 0 {
		return users, nil
	}

	result := conn(ctx, r.db).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&users)

	if result.Error != nil {
		return nil, translate(result.Error, "user")
	}

	return users, nil
}
