package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tasksync/internal/application/validation"
	"github.com/taskmaster/tasksync/internal/domain/entities"
	"github.com/taskmaster/tasksync/internal/infrastructure/config"
	"github.com/taskmaster/tasksync/internal/infrastructure/logger"
	"github.com/taskmaster/tasksync/internal/ports"
)

// Claims represents the JWT claims
type Claims struct {
	UserID  string            `json:"user_id"`
	Role    entities.UserRole `json:"role"`
	IsGuest bool              `json:"is_guest"`
	jwt.RegisteredClaims
}

// AuthService handles authentication operations
type AuthService struct {
	users      ports.UserRepository
	settings   *SettingsService
	activity   *ActivityService
	validator  *validation.Validator
	jwtConfig  config.JWTConfig
	bcryptCost int
	logger     *logger.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, settings *SettingsService, activity *ActivityService, v *validation.Validator, jwtConfig config.JWTConfig, bcryptCost int, logger *logger.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		settings:   settings,
		activity:   activity,
		validator:  v,
		jwtConfig:  jwtConfig,
		bcryptCost: bcryptCost,
		logger:     logger.WithComponent("auth"),
		now:        time.Now,
	}
}

// HashPassword hashes a password with the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	email := req.Email

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, entities.ErrEmailTaken
	} else if entities.KindOf(err) != entities.KindNotFound {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashed,
		Role:         entities.UserRoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("User registered successfully", "user_id", user.ID, "email", user.Email)
	s.activity.Record(ctx, entities.ActorFromUser(user), entities.ActionUserRegistered, entities.TargetUser, &user.ID,
		entities.AccountDetails{Name: user.Name, Email: user.Email})
	return s.respond(user)
}

// Login authenticates a user and returns a token
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	email := req.Email

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if entities.KindOf(err) == entities.KindNotFound {
			s.logger.Warnw("Login attempt with non-existent email", "email", email)
			return nil, entities.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.IsGuest || user.PasswordHash == "" {
		return nil, entities.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "email", email, "user_id", user.ID)
		return nil, entities.ErrInvalidCredentials
	}
	if err := user.CheckAccess(); err != nil {
		s.logger.LogSecurityEvent("login_refused", user.ID.String(), ports.RequestMetaFrom(ctx).IPAddress,
			map[string]interface{}{"reason": err.Error()})
		return nil, err
	}

	now := s.now().UTC()
	user.LastLogin = &now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Warnw("Failed to update last login time", "error", err, "user_id", user.ID)
	}

	s.logger.Infow("User logged in successfully", "user_id", user.ID)
	s.activity.Record(ctx, entities.ActorFromUser(user), entities.ActionUserLogin, entities.TargetUser, &user.ID, nil)
	return s.respond(user)
}

// JoinGuest creates a guest identity.
func (s *AuthService) JoinGuest(ctx context.Context, req ports.GuestRequest) (*ports.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	features, err := s.settings.Features(ctx)
	if err != nil {
		return nil, err
	}
	if !features.AllowGuestUsers {
		return nil, entities.ErrGuestsDisabled
	}

	now := s.now().UTC()
	suffix, err := randomHex(4)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("Guest_%d", now.UnixMilli())
	}
	user := &entities.User{
		ID:        uuid.New(),
		Name:      name,
		Email:     fmt.Sprintf("guest_%d_%s@temporary.com", now.UnixMilli(), suffix),
		Role:      entities.UserRoleUser,
		IsActive:  true,
		IsGuest:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("Guest joined", "user_id", user.ID, "name", user.Name)
	s.activity.Record(ctx, entities.ActorFromUser(user), entities.ActionGuestJoined, entities.TargetUser, &user.ID,
		entities.AccountDetails{Name: user.Name})
	return s.respond(user)
}

// ConvertGuest attaches credentials to a guest, keeping its identity.
func (s *AuthService) ConvertGuest(ctx context.Context, actor entities.Actor, req ports.ConvertGuestRequest) (*ports.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !user.IsGuest {
		return nil, entities.ErrNotGuest
	}

	email := normalizeEmail(req.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != user.ID:
		return nil, entities.ErrEmailTaken
	case err != nil && entities.KindOf(err) != entities.KindNotFound:
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := user.ConvertGuest(email, hashed, now); err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.Name = name
	}
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("Guest converted", "user_id", user.ID, "email", user.Email)
	s.activity.Record(ctx, entities.ActorFromUser(user), entities.ActionGuestConverted, entities.TargetUser, &user.ID,
		entities.AccountDetails{Name: user.Name, Email: user.Email})
	return s.respond(user)
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Logout only leaves an audit entry; tokens are stateless.
func (s *AuthService) Logout(ctx context.Context, actor entities.Actor) {
	s.activity.Record(ctx, actor, entities.ActionUserLogout, entities.TargetUser, actor.Ref(), nil)
}

// Authenticate validates a token and reloads its user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*entities.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, entities.ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, entities.ErrUnauthenticated
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if entities.KindOf(err) == entities.KindNotFound {
			return nil, entities.ErrUnauthenticated
		}
		return nil, err
	}
	if err := user.CheckAccess(); err != nil {
		return nil, err
	}
	return user, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// GenerateToken issues a signed token for user.
func (s *AuthService) GenerateToken(user *entities.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:  user.ID.String(),
		Role:    user.Role,
		IsGuest: user.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.Secret))
}

func (s *AuthService) respond(user *entities.User) (*ports.AuthResponse, error) {
	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &ports.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.jwtConfig.ExpiresIn.Seconds()),
		User:      user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random suffix: %w", err)
	}
	return hex.EncodeToString(b), nil
}
