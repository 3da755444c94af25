package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/crypto"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/internal/validators"
	"github.com/MKhiriev/go-agent-platform/models"
)

// sessionTTL bounds how long a refresh token can mint new access tokens.
const sessionTTL = 30 * 24 * time.Hour

// refreshTokenLen is the entropy of the opaque refresh token in bytes.
const refreshTokenLen = 32

// authService is the concrete implementation of [AuthService]. It handles
// registration, credential verification and the two-token scheme: a
// short-lived HS256 access token plus an opaque refresh token stored
// server-side as a keyed hash.
type authService struct {
	userRepository    store.UserRepository
	sessionRepository store.SessionRepository

	// ledger provisions the wallet and starter grant of a fresh account.
	ledger LedgerService

	hasher    crypto.PasswordHasher
	validator validators.Validator
	uuid      *utils.UUIDGenerator

	// secretKey signs access tokens and keys the refresh-token hashes.
	secretKey string

	// tokenIssuer is the "iss" claim embedded in every issued JWT.
	tokenIssuer string

	// tokenDuration controls how long a newly issued access token remains
	// valid.
	tokenDuration time.Duration

	logger *logger.Logger
}

// NewAuthService constructs an [AuthService] wired to the given
// repositories and populated with the security parameters from cfg.
//
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(
	userRepository store.UserRepository,
	sessionRepository store.SessionRepository,
	ledger LedgerService,
	appCfg config.App,
	authCfg config.Auth,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepository:    userRepository,
		sessionRepository: sessionRepository,
		ledger:            ledger,
		hasher:            crypto.NewPasswordHasher(),
		validator:         validators.NewRequestValidator(),
		uuid:              utils.NewUUIDGenerator(),
		secretKey:         appCfg.SecretKey,
		tokenIssuer:       appCfg.Name,
		tokenDuration:     authCfg.AccessTokenTTL(),
		logger:            logger,
	}
}

// Register implements [AuthService]. The account is persisted with an
// Argon2id password hash, then a wallet is provisioned and funded with the
// starter grant.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (models.User, error) {
	log := logger.FromContext(ctx)

	if err := a.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("invalid registration data")
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	passwordHash, err := a.hasher.Hash(req.Password)
	if err != nil {
		log.Err(err).Msg("password hashing failed")
		return models.User{}, fmt.Errorf("password hashing failed: %w", err)
	}

	user, err := a.userRepository.CreateUser(ctx, models.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		IsActive:     true,
	})
	if err != nil {
		log.Err(err).Str("email", req.Email).Msg("user creation ended with error")
		return models.User{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	// The account stays usable even if the grant could not be funded; the
	// wallet is simply empty.
	if _, err := a.ledger.ProvisionWallet(ctx, user.UserID); err != nil {
		log.Warn().Err(err).Int64("user_id", user.UserID).Msg("wallet provisioning failed")
	}

	return user, nil
}

// Login implements [AuthService].
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (models.User, models.TokenPair, error) {
	log := logger.FromContext(ctx)

	if err := a.validator.Validate(ctx, req); err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("invalid login data")
		return models.User{}, models.TokenPair{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	user, err := a.userRepository.FindUserByEmail(ctx, req.Email)
	if err != nil {
		log.Err(err).Str("email", req.Email).Msg("user search by email failed")
		// A missing account and a bad password answer identically.
		return models.User{}, models.TokenPair{}, ErrWrongPassword
	}

	match, err := a.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		log.Err(err).Int64("user_id", user.UserID).Msg("password verification failed")
		return models.User{}, models.TokenPair{}, fmt.Errorf("password verification failed: %w", err)
	}
	if !match {
		log.Warn().Int64("user_id", user.UserID).Msg("wrong password")
		return models.User{}, models.TokenPair{}, ErrWrongPassword
	}

	if !user.IsActive {
		log.Warn().Int64("user_id", user.UserID).Msg("deactivated account login attempt")
		return models.User{}, models.TokenPair{}, ErrUserDeactivated
	}

	pair, err := a.issueTokenPair(ctx, user.UserID)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Refresh implements [AuthService]. Rotation is one-shot: the presented
// session is revoked before the new pair is issued, so a replayed refresh
// token fails.
func (a *authService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	log := logger.FromContext(ctx)

	session, err := a.findSession(ctx, refreshToken)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := a.userRepository.GetUser(ctx, session.UserID)
	if err != nil {
		log.Err(err).Int64("user_id", session.UserID).Msg("session user lookup failed")
		return models.TokenPair{}, fmt.Errorf("session user lookup failed: %w", err)
	}
	if !user.IsActive {
		return models.TokenPair{}, ErrUserDeactivated
	}

	if err := a.sessionRepository.RevokeSession(ctx, session.SessionID); err != nil {
		log.Err(err).Str("session_id", session.SessionID).Msg("session rotation failed")
		return models.TokenPair{}, fmt.Errorf("session rotation failed: %w", err)
	}

	return a.issueTokenPair(ctx, user.UserID)
}

// Logout implements [AuthService].
func (a *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := a.findSession(ctx, refreshToken)
	if err != nil {
		return err
	}

	if err := a.sessionRepository.RevokeSession(ctx, session.SessionID); err != nil {
		return fmt.Errorf("session revocation failed: %w", err)
	}
	return nil
}

// ParseToken implements [AuthService]. Any validation failure (expired,
// wrong issuer, malformed) is normalised to [ErrTokenIsExpiredOrInvalid] so
// callers do not need to inspect low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.secretKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}

// GetUser implements [AuthService].
func (a *authService) GetUser(ctx context.Context, userID int64) (models.User, error) {
	user, err := a.userRepository.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("user lookup failed: %w", err)
	}
	return user, nil
}

// issueTokenPair mints the access token and persists a session for a fresh
// refresh token.
func (a *authService) issueTokenPair(ctx context.Context, userID int64) (models.TokenPair, error) {
	log := logger.FromContext(ctx)

	access, err := utils.GenerateJWTToken(a.tokenIssuer, userID, a.tokenDuration, a.secretKey)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("access token generation failed")
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		log.Err(err).Msg("refresh token generation failed")
		return models.TokenPair{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	now := time.Now()
	_, err = a.sessionRepository.CreateSession(ctx, models.Session{
		SessionID: a.uuid.Generate(),
		UserID:    userID,
		TokenHash: utils.HashString(refresh, a.secretKey),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	})
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("session creation failed")
		return models.TokenPair{}, fmt.Errorf("session creation failed: %w", err)
	}

	return models.TokenPair{
		AccessToken:  access.SignedString,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(a.tokenDuration.Seconds()),
	}, nil
}

// findSession resolves a presented refresh token to a usable session.
func (a *authService) findSession(ctx context.Context, refreshToken string) (models.Session, error) {
	log := logger.FromContext(ctx)

	if refreshToken == "" {
		return models.Session{}, ErrInvalidDataProvided
	}

	session, err := a.sessionRepository.FindSessionByTokenHash(ctx, utils.HashString(refreshToken, a.secretKey))
	if err != nil {
		log.Warn().Err(err).Msg("refresh session lookup failed")
		return models.Session{}, ErrSessionExpired
	}

	if !session.Usable(time.Now()) {
		log.Warn().Str("session_id", session.SessionID).Msg("stale refresh session presented")
		return models.Session{}, ErrSessionExpired
	}

	return session, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenLen)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
