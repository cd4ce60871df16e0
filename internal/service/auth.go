package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/travel-booking-admin/internal/model"
	"github.com/iliyamo/travel-booking-admin/internal/repository"
	"github.com/iliyamo/travel-booking-admin/internal/utils"
)

// AccountStore creates and loads users for authentication.
type AccountStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// AuthSettings are the token parameters from configuration.
type AuthSettings struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// RegisterInput is a self-service sign-up.
type RegisterInput struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     *string
	NIC             *string
	Birthdate       *time.Time
	Gender          string
}

// Session is an issued token pair.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService registers users and issues access and refresh tokens.
type AuthService struct {
	users  AccountStore
	tokens TokenStore
	cfg    AuthSettings
	log    *zap.Logger
}

func NewAuthService(users AccountStore, tokens TokenStore, cfg AuthSettings, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg, log: log}
}

// Register creates a USER account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := utils.ConfirmPassword(in.Password, in.ConfirmPassword); err != nil {
		return Session{}, invalidf("Passwords do not match")
	}
	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, err
	}
	u := model.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        repository.NormalizeEmail(in.Email),
		PhoneNumber:  in.PhoneNumber,
		NIC:          in.NIC,
		PasswordHash: hash,
		Birthdate:    in.Birthdate,
		Gender:       in.Gender,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return Session{}, translateUserConflict(err)
	}
	s.log.Info("user registered", zap.Uint64("user_id", u.ID))
	return s.issue(ctx, u)
}

// Login checks credentials and issues a new token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, repository.NormalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return Session{}, unauthorizedf("Invalid email or password")
		}
		return Session{}, err
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, unauthorizedf("Invalid email or password")
	}
	return s.issue(ctx, u)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
	hash := utils.HashRefreshRaw(strings.TrimSpace(raw))
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if repository.IsNotFound(err) {
			return Session{}, unauthorizedf("Invalid refresh token")
		}
		return Session{}, err
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return Session{}, unauthorizedf("Invalid refresh token")
		}
		return Session{}, err
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token when raw is set, otherwise every token
// of userID.
func (s *AuthService) Logout(ctx context.Context, userID uint64, raw string) error {
	if raw = strings.TrimSpace(raw); raw != "" {
		hash := utils.HashRefreshRaw(raw)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			if repository.IsNotFound(err) {
				return unauthorizedf("Invalid refresh token")
			}
			return err
		}
		return s.tokens.RevokeByHash(ctx, hash)
	}
	if userID == 0 {
		return invalidf("Provide Authorization header or refresh_token")
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, u.Email, u.Role, s.cfg.AccessTTLMin)
	if err != nil {
		return Session{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, err
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}
