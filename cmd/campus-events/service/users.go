package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
)

// UserService is the administrator's account management.
type UserService struct {
	users    UserStore
	logger   *log.Logger
	now      func() time.Time
	hashCost int
}

func NewUserService(users UserStore, logger *log.Logger) *UserService {
	return &UserService{
		users:    users,
		logger:   logger,
		now:      time.Now,
		hashCost: passwordHashCost,
	}
}

func (s *UserService) List(ctx context.Context, q model.UserListQuery) (model.Page[model.User], error) {
	isActive, err := parseBool("is_active", q.IsActive)
	if err != nil {
		return model.Page[model.User]{}, err
	}

	role := model.Role(q.Role)
	if role != "" && !role.Valid() {
		return model.Page[model.User]{}, model.ErrValidation("invalid role %q", q.Role)
	}

	filter := model.UserFilter{
		Search:     strings.TrimSpace(q.Search),
		Role:       role,
		Department: q.Department,
		IsActive:   isActive,
		Page:       q.PageQuery,
	}

	users, total, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return model.Page[model.User]{}, err
	}

	return model.Page[model.User]{
		Items: users,
		Total: total,
		Query: filter.Page.Normalize(),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.users.GetUser(ctx, id)
}

// Create adds an account of any role. The account starts unverified.
func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user, _, err := newAccount(ctx, s.users, s.now(), s.hashCost, req.RegisterUserRequest, req.Role, active)
	if err != nil {
		return model.User{}, err
	}

	s.logger.Infoj(log.JSON{
		"message": "user created",
		"user_id": user.ID,
		"role":    user.Role,
	})

	return user, nil
}

// Update edits an account. Passwords are changed through the account
// flows only.
func (s *UserService) Update(ctx context.Context, id string, req model.UpdateUserRequest) (model.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.StudentID != nil {
		user.StudentID = *req.StudentID
	}
	if req.EmployeeID != nil {
		user.EmployeeID = *req.EmployeeID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsEmailVerified != nil {
		user.IsEmailVerified = *req.IsEmailVerified
	}
	user.UpdateDate = s.now()

	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Deactivate is the soft delete of an account.
func (s *UserService) Deactivate(ctx context.Context, actor model.Actor, id string) error {
	if actor.ID == id {
		return model.ErrState("you cannot deactivate your own account")
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return err
	}

	user.IsActive = false
	user.UpdateDate = s.now()
	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return err
	}

	s.logger.Infoj(log.JSON{
		"message":  "user deactivated",
		"user_id":  id,
		"actor_id": actor.ID,
	})

	return nil
}
