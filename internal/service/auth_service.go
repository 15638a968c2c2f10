package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/cinebook/internal/logger"
	"github.com/iliyamo/cinebook/internal/mailer"
	"github.com/iliyamo/cinebook/internal/model"
	"github.com/iliyamo/cinebook/internal/repository"
	"github.com/iliyamo/cinebook/internal/utils"
)

// UserStore is the storage the auth workflow needs.  *repository.UserRepo
// satisfies it, both on the pool and inside a transaction.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByResetTokenHash(ctx context.Context, hash string) (model.User, error)
	SetResetToken(ctx context.Context, id uint64, hash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, id uint64, tokenHash, passwordHash string, now time.Time) error
	BookingIDs(ctx context.Context, userID uint64) ([]uint64, error)
}

// AuthConfig holds the knobs of the auth workflow.
type AuthConfig struct {
	JWTSecret     string
	SessionTTL    time.Duration
	ResetTokenTTL time.Duration
	BcryptCost    int
	AdminEmails   map[string]bool
	FrontendURL   string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token   string
	Expires time.Time
	User    model.User
}

type AuthService struct {
	users UserStore
	mail  mailer.Sender
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthService(users UserStore, mail mailer.Sender, cfg AuthConfig) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	return &AuthService{users: users, mail: mail, cfg: cfg, now: time.Now}
}

// SetClock overrides the time source; tests use it to move past expiries.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

func (s *AuthService) roleFor(email string) string {
	if s.cfg.AdminEmails[repository.NormalizeEmail(email)] {
		return model.RoleAdmin
	}
	return model.RoleUser
}

// Register creates a password account.  The email is normalized before the
// uniqueness check, so "Ann@X.com " and "ann@x.com" collide.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = repository.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return model.User{}, fail(ErrInvalidRequest, "name, email and password are required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.User{}, fail(ErrConflict, "user already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return model.User{}, err
	}
	u := model.User{Name: name, Email: email, PasswordHash: hash, Role: s.roleFor(email)}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.User{}, fail(ErrConflict, "user already exists")
		}
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	u.Bookings = []uint64{}
	logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks credentials and issues a session token.  Walk-up users have
// no password and are rejected until they set one through the reset flow.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, fail(ErrInvalidRequest, "email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, fail(ErrNotFound, "user not found")
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.HasPassword() || !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, fail(ErrUnauthorized, "invalid password")
	}

	if s.roleFor(u.Email) == model.RoleAdmin {
		u.Role = model.RoleAdmin
	}
	if u.Bookings, err = s.users.BookingIDs(ctx, u.ID); err != nil {
		return LoginResult{}, fmt.Errorf("load user bookings: %w", err)
	}
	tok, err := utils.NewSessionToken(s.cfg.JWTSecret, u.ID, u.Name, u.Email, u.Role, s.now(), s.cfg.SessionTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{Token: tok.Token, Expires: tok.Exp, User: u}, nil
}

// RequestPasswordReset stores a fresh reset token hash and mails the link.
// The raw token only leaves the process through the mailer.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return fail(ErrInvalidRequest, "email is required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrNotFound, "user not found")
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	raw, err := utils.NewResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	exp := s.now().UTC().Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, u.ID, utils.HashToken(raw), exp); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.cfg.FrontendURL + "/reset-password/" + raw
	if err := s.mail.SendPasswordReset(ctx, u.Email, u.Name, link); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	logger.InfoContext(ctx, "password reset issued", "user_id", u.ID, "expires_at", exp)
	return nil
}

// ResetPassword consumes a reset token.  Unknown, already used and expired
// tokens are indistinguishable to the caller.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	token = strings.TrimSpace(token)
	if password == "" {
		return fail(ErrInvalidRequest, "password is required")
	}
	if token == "" {
		return fail(ErrInvalidOrExpired, "invalid or expired token")
	}
	tokenHash := utils.HashToken(token)
	u, err := s.users.GetByResetTokenHash(ctx, tokenHash)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrInvalidOrExpired, "invalid or expired token")
	}
	if err != nil {
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if u.ResetTokenExpiresAt == nil || !s.now().Before(*u.ResetTokenExpiresAt) {
		return fail(ErrInvalidOrExpired, "invalid or expired token")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	// Another request may have consumed the token while bcrypt ran.
	err = s.users.ConsumeResetToken(ctx, u.ID, tokenHash, hash, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ErrInvalidOrExpired, "invalid or expired token")
	}
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	logger.InfoContext(ctx, "password reset", "user_id", u.ID)
	return nil
}

// VerifySession validates a session token and returns its claims.
func (s *AuthService) VerifySession(token string) (*utils.SessionClaims, error) {
	claims, err := utils.ParseSessionToken(s.cfg.JWTSecret, token)
	if err != nil {
		return nil, fail(ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// EnsureUser returns the user with email.  When none exists and allowCreate
// is set it creates a walk-up user without a password; otherwise it fails
// with NotFound.  created reports which branch ran.  Losing an insert race
// to a concurrent request surfaces as repository.ErrDuplicate; the caller
// retries in a fresh transaction, which then sees the winner.
func EnsureUser(ctx context.Context, users UserStore, name, email string, allowCreate bool) (u model.User, created bool, err error) {
	email = repository.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return model.User{}, false, fail(ErrInvalidRequest, "name and email are required")
	}
	u, err = users.GetByEmail(ctx, email)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, fmt.Errorf("lookup user: %w", err)
	}
	if !allowCreate {
		return model.User{}, false, fail(ErrNotFound, "unknown user")
	}

	u = model.User{Name: name, Email: email, Role: model.RoleUser}
	if err := users.Create(ctx, &u); err != nil {
		return model.User{}, false, fmt.Errorf("create user: %w", err)
	}
	return u, true, nil
}

func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", fail(ErrInvalidRequest, "password must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
