package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jonbarlo/onlineshop-api/common/errors"
	"github.com/jonbarlo/onlineshop-api/models"
	"github.com/jonbarlo/onlineshop-api/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ITokenIssuer issues access tokens for authenticated admins.
type ITokenIssuer interface {
	Generate(subject, email, role string) (string, time.Time, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     *models.Admin `json:"admin"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GetAdmin(ctx context.Context, id string) (*models.Admin, error)
	// EnsureBootstrapAdmin creates the configured admin account when no
	// account with that email exists yet.
	EnsureBootstrapAdmin(ctx context.Context, email, password, name string) error
}

type authService struct {
	store  repository.Store
	tokens ITokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthService(store repository.Store, tokens ITokenIssuer, logger *zap.Logger) AuthService {
	return &authService{store: store, tokens: tokens, logger: logger, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks the credentials of an active admin and issues a token. Unknown
// emails, wrong passwords and disabled accounts all answer 401.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	admin, err := s.store.Admins().FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, translate(err, nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("admin login rejected", zap.String("admin_id", admin.ID.String()))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, apperrors.ErrUnauthorized.WithMessage("Account is disabled")
	}

	token, expiresAt, err := s.tokens.Generate(admin.ID.String(), admin.Email, admin.Role)
	if err != nil {
		return nil, apperrors.ErrInternal.Wrap(err)
	}

	loginAt := s.now().UTC()
	if err := s.store.Admins().TouchLastLogin(ctx, admin.ID, loginAt); err != nil {
		s.logger.Warn("failed to record admin login", zap.Error(err), zap.String("admin_id", admin.ID.String()))
	} else {
		admin.LastLoginAt = &loginAt
	}

	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID.String()))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

func (s *authService) GetAdmin(ctx context.Context, id string) (*models.Admin, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	admin, err := s.store.Admins().FindByID(ctx, aid)
	if err != nil {
		return nil, translate(err, apperrors.ErrUnauthorized.WithMessage("Admin account not found"))
	}
	if !admin.IsActive {
		return nil, apperrors.ErrUnauthorized.WithMessage("Account is disabled")
	}
	return admin, nil
}

func (s *authService) EnsureBootstrapAdmin(ctx context.Context, email, password, name string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := s.store.Admins().FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if name == "" {
		name = "Administrator"
	}

	admin := &models.Admin{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := s.store.Admins().Create(ctx, admin); err != nil {
		// Another instance created it first.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
