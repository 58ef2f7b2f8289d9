package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"postfeed/internal/config"
	"postfeed/internal/models"
	"postfeed/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type SignupInput struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required"`
	Password string `validate:"required,min=5"`
}

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	// ValidateToken verifies an access token and returns the actor id it was
	// issued for.
	ValidateToken(tokenString string) (string, error)
}

type authService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
	validate *validator.Validate
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	input.Password = strings.TrimSpace(input.Password)

	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(describeValidation(err))
	}

	existingUser, err := s.userRepo.GetUserByEmail(ctx, input.Email)
	if err == nil && existingUser != nil {
		return nil, validationError("email already exists")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Sugar().Errorf("failed to check email(%s): %s", input.Email, err.Error())
		return nil, storageError("failed to create user", err)
	}

	user := &models.User{
		Email: input.Email,
		Name:  input.Name,
	}

	if err := s.userRepo.CreateUser(ctx, user, input.Password); err != nil {
		s.logger.Sugar().Errorf("failed to create user(%s): %s", input.Email, err.Error())
		return nil, storageError("failed to create user", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.VerifyPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			return nil, "", newError(ErrUnauthorized, "wrong email or password", err)
		}
		s.logger.Sugar().Errorf("failed to verify user(%s) password: %s", email, err.Error())
		return nil, "", storageError("failed to log in", err)
	}

	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, "", storageError("failed to issue token", err)
	}

	return user, accessToken, nil
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": user.UserID,
		"email":  user.Email,
		"exp":    now.Add(s.cfg.AccessTokenDuration).Unix(),
		"iat":    now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return tokenString, nil
}

func (s *authService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecretKey), nil
	})
	if err != nil {
		return "", newError(ErrUnauthorized, "invalid token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", newError(ErrUnauthorized, "invalid token", nil)
	}

	userID, ok := claims["userId"].(string)
	if !ok || userID == "" {
		return "", newError(ErrUnauthorized, "invalid token claims", nil)
	}

	return userID, nil
}
