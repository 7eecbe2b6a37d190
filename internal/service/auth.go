package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users  repository.UserRepository
	secret []byte
	ttl    time.Duration
	clock  Clock
	logger *logrus.Logger
}

func NewAuthService(users repository.UserRepository, secret string, ttl time.Duration, clock Clock, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
		logger: logger,
	}
}

// HashPassword hashes a plain password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login checks the credentials and returns a signed token with the user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, apperror.Validation("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		s.logger.WithField("email", email).Warn("Login for unknown email")
		return "", nil, apperror.New(apperror.CodeUnauthorized, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Login with wrong password")
		return "", nil, apperror.New(apperror.CodeUnauthorized, "invalid email or password")
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, apperror.Internal("failed to issue token", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User logged in")
	return token, user, nil
}

func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies signature and expiry and returns the claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.New(apperror.CodeUnauthorized, "token expired")
		}
		return nil, apperror.New(apperror.CodeUnauthorized, "invalid token")
	}
	if claims.UserID == 0 {
		return nil, apperror.New(apperror.CodeUnauthorized, "invalid token")
	}
	return claims, nil
}

// Authenticate resolves a bearer token to the current state of its user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperror.New(apperror.CodeUnauthorized, "user no longer exists")
	}
	return user, nil
}
