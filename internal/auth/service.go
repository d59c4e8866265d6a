package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkotelnikov/pizzeria-backend/pkg/auth"
	"github.com/mkotelnikov/pizzeria-backend/pkg/auth/session"
	"github.com/mkotelnikov/pizzeria-backend/pkg/config"
	"github.com/mkotelnikov/pizzeria-backend/pkg/db/models"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
	"github.com/mkotelnikov/pizzeria-backend/pkg/security"
)

// Service exposes staff login and logout.
type Service interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

// LoginResult carries the minted token and the account it belongs to.
type LoginResult struct {
	AccessToken string         `json:"accessToken"`
	UserID      uuid.UUID      `json:"userId"`
	Role        enums.UserRole `json:"role"`
}

type userReader interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type service struct {
	users    userReader
	sessions *session.Manager
	jwtCfg   config.JWTConfig
	logg     *logger.Logger
}

// NewService constructs an auth service instance.
func NewService(users userReader, sessions *session.Manager, jwtCfg config.JWTConfig, logg *logger.Logger) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{users: users, sessions: sessions, jwtCfg: jwtCfg, logg: logg}, nil
}

// Login verifies credentials and establishes a single active session for the
// account. A fresh login displaces any previous session.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is deactivated")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	tokenID := uuid.NewString()
	token, err := auth.MintAccessToken(s.jwtCfg, time.Now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    tokenID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	if err := s.sessions.Establish(ctx, user.ID.String(), tokenID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "establishing session")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "user logged in")
	}
	return &LoginResult{
		AccessToken: token,
		UserID:      user.ID,
		Role:        user.Role,
	}, nil
}

// Logout revokes the account's active session.
func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.Revoke(ctx, userID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}
