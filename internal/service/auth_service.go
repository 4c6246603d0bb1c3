package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Marga-Ghale/teamhub-backend/internal/config"
	"github.com/Marga-Ghale/teamhub-backend/internal/repository"
	"github.com/Marga-Ghale/teamhub-backend/internal/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ============================================
// Auth Service
// ============================================

// Claims is the access-token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Tokens struct {
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*repository.User, *Tokens, error)
	// Login checks the credentials and, when expectedRole is set, that the
	// account has that role.
	Login(ctx context.Context, email, password, expectedRole string) (*repository.User, *Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(token string) (*Claims, error)
	PurgeExpiredSessions(ctx context.Context) (int, error)
}

type authService struct {
	cfg         *config.Config
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

func NewAuthService(cfg *config.Config, userRepo repository.UserRepository, sessionRepo repository.SessionRepository) AuthService {
	return &authService{cfg: cfg, userRepo: userRepo, sessionRepo: sessionRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*repository.User, *Tokens, error) {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.FirstName == "" || input.Email == "" || input.Password == "" {
		return nil, nil, validationf("firstName, email and password are required")
	}
	if input.Role == "" {
		input.Role = types.RoleMember
	}
	if !types.IsValidRole(input.Role) {
		return nil, nil, validationf("invalid role %q", input.Role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &repository.User{
		FirstName: input.FirstName,
		LastName:  strings.TrimSpace(input.LastName),
		Email:     input.Email,
		Password:  string(hashedPassword),
		Role:      input.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrUserExists
		}
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	log.Info().Str("component", "auth").Str("user_id", user.ID).Msg("User registered")
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password, expectedRole string) (*repository.User, *Tokens, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	if expectedRole != "" && user.Role != expectedRole {
		return nil, nil, ErrRoleMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrBadPassword
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return user, tokens, nil
}

// Refresh rotates a refresh token: the old one is revoked and a new pair issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	rt, err := s.sessionRepo.Find(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if rt == nil {
		return nil, ErrTokenInvalid
	}
	if err := s.sessionRepo.Delete(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}
	if time.Now().After(rt.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, rt.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrTokenInvalid
	}

	tokens, err := s.generateTokens(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessionRepo.Delete(ctx, refreshToken)
}

func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) (int, error) {
	return s.sessionRepo.DeleteExpired(ctx, time.Now())
}

func (s *authService) generateTokens(ctx context.Context, user *repository.User) (*Tokens, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour * time.Duration(s.cfg.JWTExpiry))),
		},
	}

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	rt := &repository.RefreshToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(time.Hour * 24 * time.Duration(s.cfg.RefreshExpiry)),
	}
	if err := s.sessionRepo.Save(ctx, rt); err != nil {
		return nil, err
	}

	return &Tokens{AccessToken: accessToken, RefreshToken: rt.Token}, nil
}
