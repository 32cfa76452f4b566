// Package auth registers admins, checks their credentials and issues the
// bearer tokens that guard every write endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/database"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

var validate = validator.New()

type Options struct {
	Secret              string
	Expiry              time.Duration
	RegistrationEnabled bool
	BcryptCost          int
}

type Service struct {
	admins AdminRepository
	opts   Options
	logger *slog.Logger

	// serializes the first-admin check with the insert that follows it
	registerMu sync.Mutex
}

func NewService(admins AdminRepository, opts Options, logger *slog.Logger) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Expiry <= 0 {
		opts.Expiry = 24 * time.Hour
	}
	return &Service{admins: admins, opts: opts, logger: logger}
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	Admin       *Admin
}

// Register creates an admin. With registration disabled only the first admin
// can be created; once one exists further attempts are forbidden.
func (s *Service) Register(ctx context.Context, email, password string) (*Admin, error) {
	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	if !s.opts.RegistrationEnabled {
		n, err := s.admins.Count(ctx)
		if err != nil {
			return nil, apperr.Storage("failed to register admin", err)
		}
		if n > 0 {
			return nil, apperr.Forbidden("registration is disabled")
		}
	}

	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin, err := s.admins.Create(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Storage("failed to register admin", err)
	}

	s.logger.Info("admin registered", "admin_id", admin.ID)
	return admin, nil
}

// Login checks the credentials and issues a token. Unknown emails and wrong
// passwords get the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Token, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	admin, err := s.admins.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, apperr.Auth("invalid email or password")
		}
		return nil, apperr.Storage("failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", "admin_id", admin.ID)
		return nil, apperr.Auth("invalid email or password")
	}

	return s.issue(admin)
}

func (s *Service) issue(admin *Admin) (*Token, error) {
	now := time.Now()
	expiresAt := now.Add(s.opts.Expiry)
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(admin.ID, 10),
		"email": admin.Email,
		"exp":   expiresAt.Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.opts.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Token{AccessToken: signed, ExpiresAt: expiresAt, Admin: admin}, nil
}

// VerifyToken validates an HS256 token and returns the admin id it was
// issued for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.opts.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Auth("token has expired")
		}
		return "", apperr.Auth("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperr.Auth("invalid token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", apperr.Auth("missing subject in token")
	}
	return sub, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return apperr.Validation("invalid email address")
	}
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return apperr.Validation("password must be at most %d characters", maxPasswordLength)
	}
	return nil
}
