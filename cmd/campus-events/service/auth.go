package service

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

type AccountMailer interface {
	SendWelcome(ctx context.Context, to model.User, verifyURL string) error
	SendVerification(ctx context.Context, to model.User, verifyURL string) error
	SendPasswordReset(ctx context.Context, to model.User, resetURL string) error
}

type AuthConfig struct {
	AppURL           string
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

type AuthService struct {
	users    UserStore
	tokens   *TokenIssuer
	mailer   AccountMailer
	cfg      AuthConfig
	logger   *log.Logger
	now      func() time.Time
	hashCost int
}

func NewAuthService(users UserStore, tokens *TokenIssuer, mailer AccountMailer, cfg AuthConfig, logger *log.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		hashCost: passwordHashCost,
	}
}

func (s *AuthService) link(path, token string) string {
	return strings.TrimRight(s.cfg.AppURL, "/") + path + token
}

func (s *AuthService) session(user model.User) (model.AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return model.AuthResult{}, err
	}
	return model.AuthResult{User: user, Token: token}, nil
}

// Register creates a participant or organizer account and signs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterUserRequest) (model.AuthResult, error) {
	if req.Role == "" {
		req.Role = model.RoleParticipant
	}
	if req.Role == model.RoleAdmin {
		return model.AuthResult{}, model.ErrValidation("role must be participant or organizer")
	}

	user, raw, err := newAccount(ctx, s.users, s.now(), s.hashCost, req, req.Role, true)
	if err != nil {
		return model.AuthResult{}, err
	}

	if err := s.mailer.SendWelcome(ctx, user, s.link("/verify-email/", raw)); err != nil {
		s.logger.Errorj(log.JSON{
			"message": "failed to send welcome email",
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	s.logger.Infoj(log.JSON{
		"message": "user registered",
		"user_id": user.ID,
		"role":    user.Role,
	})

	return s.session(user)
}

// newAccount hashes the password and inserts the account. It returns the
// raw email verification token.
func newAccount(
	ctx context.Context,
	users UserStore,
	now time.Time,
	hashCost int,
	req model.RegisterUserRequest,
	role model.Role,
	active bool,
) (model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, "", model.ErrConflict("email is already registered")
	} else if !model.IsKind(err, model.KindNotFound) {
		return model.User{}, "", err
	}

	hash, err := hashPassword(req.Password, hashCost)
	if err != nil {
		return model.User{}, "", err
	}

	raw, digest, err := newAccountToken()
	if err != nil {
		return model.User{}, "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.User{}, "", model.ErrInternal(err, "failed to generate user id")
	}

	expires := now.Add(verificationTokenTTL)
	user := model.User{
		ID:                       id.String(),
		FirstName:                strings.TrimSpace(req.FirstName),
		LastName:                 strings.TrimSpace(req.LastName),
		Email:                    email,
		PasswordHash:             hash,
		Role:                     role,
		PhoneNumber:              req.PhoneNumber,
		Department:               req.Department,
		StudentID:                req.StudentID,
		EmployeeID:               req.EmployeeID,
		Preferences:              datatypes.NewJSONType(model.DefaultUserPreferences()),
		IsActive:                 active,
		EmailVerificationToken:   &digest,
		EmailVerificationExpires: &expires,
		CreateDate:               now,
		UpdateDate:               now,
	}

	if err := users.CreateUser(ctx, &user); err != nil {
		return model.User{}, "", err
	}

	return user, raw, nil
}

// Login checks the credentials and the lockout counter. Unknown and
// inactive accounts are indistinguishable from a wrong password.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResult, error) {
	now := s.now()

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.AuthResult{}, model.ErrUnauthorized("invalid credentials")
		}
		return model.AuthResult{}, err
	}
	if !user.IsActive {
		return model.AuthResult{}, model.ErrUnauthorized("invalid credentials")
	}
	if user.IsLocked(now) {
		return model.AuthResult{}, model.ErrLocked("account is temporarily locked due to too many failed login attempts")
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		user.RegisterFailedLogin(now, s.cfg.MaxLoginAttempts, s.cfg.LockoutDuration)
		user.UpdateDate = now
		if err := s.users.UpdateUser(ctx, &user); err != nil {
			return model.AuthResult{}, err
		}
		if user.IsLocked(now) {
			s.logger.Warnj(log.JSON{
				"message":  "account locked",
				"user_id":  user.ID,
				"attempts": user.LoginAttempts,
			})
		}
		return model.AuthResult{}, model.ErrUnauthorized("invalid credentials")
	}

	user.ResetLoginAttempts()
	user.LastLogin = &now
	user.UpdateDate = now
	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return model.AuthResult{}, err
	}

	return s.session(user)
}

// Authenticate resolves a session token to the active user it was issued
// for. Tokens older than the last password change are rejected.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return model.User{}, err
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.User{}, model.ErrUnauthorized("the user belonging to this token no longer exists")
		}
		return model.User{}, err
	}
	if !user.IsActive {
		return model.User{}, model.ErrUnauthorized("account is deactivated")
	}
	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return model.User{}, model.ErrUnauthorized("password recently changed, please log in again")
	}

	return user, nil
}

func (s *AuthService) Me(ctx context.Context, actor model.Actor) (model.User, error) {
	return s.users.GetUser(ctx, actor.ID)
}

// ForgotPassword emails a short-lived reset link. The token is withdrawn
// again if the email cannot be sent.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if model.IsKind(err, model.KindNotFound) {
			return model.ErrNotFound("no user found with that email address")
		}
		return err
	}

	raw, digest, err := newAccountToken()
	if err != nil {
		return err
	}

	now := s.now()
	expires := now.Add(resetTokenTTL)
	user.PasswordResetToken = &digest
	user.PasswordResetExpires = &expires
	user.UpdateDate = now
	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user, s.link("/reset-password/", raw)); err != nil {
		user.PasswordResetToken = nil
		user.PasswordResetExpires = nil
		if uerr := s.users.UpdateUser(ctx, &user); uerr != nil {
			s.logger.Errorj(log.JSON{
				"message": "failed to clear reset token",
				"user_id": user.ID,
				"error":   uerr.Error(),
			})
		}
		return model.ErrInternal(err, "there was an error sending the email, try again later")
	}

	return nil
}

// setPassword stores a new password hash. The change is stamped one second
// back so a token issued right after it stays valid.
func (s *AuthService) setPassword(user *model.User, password string) error {
	hash, err := hashPassword(password, s.hashCost)
	if err != nil {
		return err
	}

	now := s.now()
	changed := now.Add(-time.Second)
	user.PasswordHash = hash
	user.PasswordChangedAt = &changed
	user.UpdateDate = now
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, req model.ResetPasswordRequest) (model.AuthResult, error) {
	user, err := s.users.GetUserByResetToken(ctx, hashAccountToken(rawToken), s.now())
	if err != nil {
		return model.AuthResult{}, err
	}

	if err := s.setPassword(&user, req.Password); err != nil {
		return model.AuthResult{}, err
	}
	user.PasswordResetToken = nil
	user.PasswordResetExpires = nil
	user.ResetLoginAttempts()

	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return model.AuthResult{}, err
	}

	return s.session(user)
}

func (s *AuthService) UpdatePassword(ctx context.Context, actor model.Actor, req model.UpdatePasswordRequest) (model.AuthResult, error) {
	user, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return model.AuthResult{}, err
	}

	if !checkPassword(user.PasswordHash, req.CurrentPassword) {
		return model.AuthResult{}, model.ErrUnauthorized("your current password is wrong")
	}

	if err := s.setPassword(&user, req.NewPassword); err != nil {
		return model.AuthResult{}, err
	}
	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return model.AuthResult{}, err
	}

	return s.session(user)
}

// UpdateProfile applies the self-service profile fields. Email, role and
// password are not reachable from here.
func (s *AuthService) UpdateProfile(ctx context.Context, actor model.Actor, req model.UpdateProfileRequest) (model.User, error) {
	user, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return model.User{}, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Preferences != nil {
		user.Preferences = datatypes.NewJSONType(*req.Preferences)
	}
	user.UpdateDate = s.now()

	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, rawToken string) (model.User, error) {
	user, err := s.users.GetUserByVerificationToken(ctx, hashAccountToken(rawToken), s.now())
	if err != nil {
		return model.User{}, err
	}

	user.IsEmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpires = nil
	user.UpdateDate = s.now()

	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) ResendVerification(ctx context.Context, actor model.Actor) error {
	user, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return model.ErrState("email is already verified")
	}

	raw, digest, err := newAccountToken()
	if err != nil {
		return err
	}

	now := s.now()
	expires := now.Add(verificationTokenTTL)
	user.EmailVerificationToken = &digest
	user.EmailVerificationExpires = &expires
	user.UpdateDate = now
	if err := s.users.UpdateUser(ctx, &user); err != nil {
		return err
	}

	if err := s.mailer.SendVerification(ctx, user, s.link("/verify-email/", raw)); err != nil {
		return model.ErrInternal(err, "failed to send verification email")
	}
	return nil
}
