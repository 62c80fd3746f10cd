package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/stores-rest-api/internal/apperr"
	"github.com/iliyamo/stores-rest-api/internal/blocklist"
	"github.com/iliyamo/stores-rest-api/internal/logger"
	"github.com/iliyamo/stores-rest-api/internal/model"
	"github.com/iliyamo/stores-rest-api/internal/queue"
	"github.com/iliyamo/stores-rest-api/internal/repository"
	"github.com/iliyamo/stores-rest-api/internal/utils"
)

// AuthConfig carries the token and hashing parameters of AuthService.
type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

// AuthService issues, validates and revokes JWTs.  Revoked token ids live in
// the injected blocklist.
type AuthService struct {
	db        *sql.DB
	blocklist blocklist.Blocklist
	cfg       AuthConfig
	events    events
}

func NewAuthService(db *sql.DB, bl blocklist.Blocklist, cfg AuthConfig, pub queue.Publisher, log *logger.Logger) *AuthService {
	return &AuthService{db: db, blocklist: bl, cfg: cfg, events: events{pub: pub, log: log}}
}

// Register creates a user with a bcrypt hashed password.
func (s *AuthService) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, apperr.Validation("Username and password are required.")
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return model.User{}, apperr.ValidationWithDetails("validation failed", map[string]string{
			"password": "must be at most 72 bytes",
		})
	}
	if err != nil {
		return model.User{}, apperr.Internal("Could not hash password.", err)
	}

	u := model.User{Username: username, PasswordHash: hash}
	err = repository.WithTx(ctx, s.db, func(r *repository.Repos) error {
		return r.Users.Create(ctx, &u)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return model.User{}, apperr.Conflict("A user with that username already exists.")
	}
	if err != nil {
		return model.User{}, translate(err)
	}

	ev := queue.NewEvent(queue.UserRegistered, "user", u.ID)
	ev.Name = u.Username
	ev.UserID = u.ID
	s.events.publish(ctx, ev)
	return u, nil
}

// Login checks the credentials and returns a fresh access token together
// with a refresh token.  Unknown users and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (model.TokenPair, error) {
	u, err := repository.NewUserRepo(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrUserNotFound) {
		return model.TokenPair{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return model.TokenPair{}, translate(err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.TokenPair{}, apperr.ErrInvalidCredentials
	}

	access, err := utils.NewAccessToken(s.cfg.Secret, u.ID, true, s.cfg.AccessTTL)
	if err != nil {
		return model.TokenPair{}, apperr.Internal("Could not issue token.", err)
	}
	refresh, err := utils.NewRefreshToken(s.cfg.Secret, u.ID, s.cfg.RefreshTTL)
	if err != nil {
		return model.TokenPair{}, apperr.Internal("Could not issue token.", err)
	}
	return model.TokenPair{AccessToken: access.Token, RefreshToken: refresh.Token}, nil
}

// Refresh exchanges a valid refresh token for a new non-fresh access token.
// The refresh token itself stays valid until it expires or is revoked.
func (s *AuthService) Refresh(ctx context.Context, raw string) (model.AccessToken, error) {
	id, err := s.verify(ctx, raw, utils.TokenTypeRefresh)
	if err != nil {
		return model.AccessToken{}, err
	}
	access, err := utils.NewAccessToken(s.cfg.Secret, id.UserID, false, s.cfg.AccessTTL)
	if err != nil {
		return model.AccessToken{}, apperr.Internal("Could not issue token.", err)
	}
	return model.AccessToken{AccessToken: access.Token}, nil
}

// Logout revokes the token until its own expiry.  Revoking an already
// revoked token is a no-op; expired or forged tokens are rejected.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return apperr.ErrMissingToken
	}
	claims, err := s.parse(raw)
	if err != nil {
		return err
	}
	if err := s.blocklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal("Could not revoke token.", err)
	}
	return nil
}

// RevokeRefresh revokes a refresh token owned by userID.  It lets logout end
// the whole session instead of only the access token.
func (s *AuthService) RevokeRefresh(ctx context.Context, userID uint64, raw string) error {
	claims, err := s.parse(raw)
	if err != nil {
		return err
	}
	if claims.Type != utils.TokenTypeRefresh {
		return apperr.InvalidToken(errors.New("expected refresh token"))
	}
	if uid, _ := claims.UserID(); uid != userID {
		return apperr.InvalidToken(errors.New("refresh token belongs to another user"))
	}
	if err := s.blocklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Internal("Could not revoke token.", err)
	}
	return nil
}

// Authenticate validates an access token: signature, expiry, type and
// revocation, in that order.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.Identity, error) {
	return s.verify(ctx, raw, utils.TokenTypeAccess)
}

// RequireFresh is Authenticate plus the freshness check.
func (s *AuthService) RequireFresh(ctx context.Context, raw string) (model.Identity, error) {
	id, err := s.Authenticate(ctx, raw)
	if err != nil {
		return model.Identity{}, err
	}
	if !id.Fresh {
		return model.Identity{}, apperr.ErrFreshTokenRequired
	}
	return id, nil
}

// GetUser returns a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (model.User, error) {
	u, err := repository.NewUserRepo(s.db).GetByID(ctx, id)
	return u, translate(err)
}

func (s *AuthService) verify(ctx context.Context, raw, wantType string) (model.Identity, error) {
	if raw == "" {
		return model.Identity{}, apperr.ErrMissingToken
	}
	claims, err := s.parse(raw)
	if err != nil {
		return model.Identity{}, err
	}
	if claims.Type != wantType {
		return model.Identity{}, apperr.InvalidToken(errors.New("expected " + wantType + " token"))
	}
	revoked, err := s.blocklist.Contains(ctx, claims.ID)
	if err != nil {
		return model.Identity{}, apperr.Internal("Could not check token revocation.", err)
	}
	if revoked {
		return model.Identity{}, apperr.ErrRevokedToken
	}
	uid, _ := claims.UserID() // validated by ParseToken
	return model.Identity{
		UserID:    uid,
		TokenID:   claims.ID,
		Fresh:     claims.Fresh,
		TokenType: claims.Type,
	}, nil
}

func (s *AuthService) parse(raw string) (*utils.Claims, error) {
	claims, err := utils.ParseToken(s.cfg.Secret, raw)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, apperr.ErrExpiredToken
	}
	if err != nil {
		return nil, apperr.InvalidToken(err)
	}
	return claims, nil
}
