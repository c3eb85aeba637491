package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/repository"
	"github.com/coursemarket/server/pkg/apperror"
	"github.com/coursemarket/server/pkg/mailer"
	"github.com/coursemarket/server/pkg/token"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

const resetTokenTTL = 15 * time.Minute

type AuthService interface {
	Signup(ctx context.Context, input dto.SignupInput) (*entity.User, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	GoogleLogin(ctx context.Context, idToken string) (*dto.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenString, newPassword string) error
}

type googleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type authService struct {
	repo        repository.UserRepository
	mail        mailer.Mailer
	redisClient *redis.Client
	secret      string
	tokenTTL    time.Duration
	resetBase   string

	// replaceable in tests
	verifyGoogleToken func(ctx context.Context, idToken string) (*googleIdentity, error)
}

func NewAuthService(repo repository.UserRepository, mail mailer.Mailer, redisClient *redis.Client) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := 24 * time.Hour
	if ttlStr := os.Getenv("JWT_TTL_HOURS"); ttlStr != "" {
		if hours, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(hours) * time.Hour
		}
	}

	resetBase := os.Getenv("RESET_URL_BASE")
	if resetBase == "" {
		resetBase = "http://localhost:3000/reset-password"
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")

	return &authService{
		repo:        repo,
		mail:        mail,
		redisClient: redisClient,
		secret:      secret,
		tokenTTL:    ttl,
		resetBase:   resetBase,
		verifyGoogleToken: func(ctx context.Context, idTokenStr string) (*googleIdentity, error) {
			payload, err := idtoken.Validate(ctx, idTokenStr, clientID)
			if err != nil {
				return nil, err
			}
			identity := &googleIdentity{Subject: payload.Subject}
			if v, ok := payload.Claims["email"].(string); ok {
				identity.Email = v
			}
			if v, ok := payload.Claims["name"].(string); ok {
				identity.Name = v
			}
			if v, ok := payload.Claims["picture"].(string); ok {
				identity.Picture = v
			}
			return identity, nil
		},
	}
}

func (s *authService) Signup(ctx context.Context, input dto.SignupInput) (*entity.User, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.FindByName(ctx, input.Name); err == nil {
		return nil, fmt.Errorf("name already taken: %w", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := s.repo.FindRoleByName(ctx, input.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role %s not found: %w", input.Role, apperror.ErrBadRequest)
		}
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	roleID := role.ID
	user := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		RoleID:       &roleID,
		Role:         *role,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	// The claimed role is part of the lookup: a wrong-role guess for a valid
	// account is indistinguishable from a wrong password.
	user, err := s.repo.FindByEmailAndRole(ctx, input.Email, input.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", apperror.ErrUnauthorized)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GoogleLogin(ctx context.Context, idTokenStr string) (*dto.AuthResponse, error) {
	identity, err := s.verifyGoogleToken(ctx, idTokenStr)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", apperror.ErrUnauthorized)
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("google token has no email: %w", apperror.ErrUnauthorized)
	}

	user, err := s.repo.FindByEmail(ctx, identity.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		role, err := s.repo.FindRoleByName(ctx, entity.RoleStudent)
		if err != nil {
			return nil, fmt.Errorf("default role not found: %w", err)
		}

		name := identity.Name
		if name == "" {
			name = strings.Split(identity.Email, "@")[0]
		}
		// Names are unique; disambiguate when taken.
		if _, err := s.repo.FindByName(ctx, name); err == nil {
			name = name + "-" + uuid.New().String()[:4]
		}

		roleID := role.ID
		newUser := &entity.User{
			Name:       name,
			Email:      identity.Email,
			RoleID:     &roleID,
			Role:       *role,
			GoogleID:   &identity.Subject,
			IsVerified: true,
			IsActive:   true,
		}
		if identity.Picture != "" {
			newUser.ProfilePicture = &identity.Picture
		}

		if err := s.repo.Create(ctx, newUser); err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		user = newUser
	} else if user.GoogleID == nil || *user.GoogleID != identity.Subject {
		user.GoogleID = &identity.Subject
		if err := s.repo.Update(ctx, user); err != nil {
			log.Printf("Failed to update google id for user %s: %v", user.Email, err)
		}
	}

	if !user.IsActive {
		return nil, fmt.Errorf("account is deactivated: %w", apperror.ErrUnauthorized)
	}

	return s.buildAuthResponse(user)
}

// ForgotPassword always reports success to the caller; only the mailbox owner
// learns whether an account exists.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	allowed, err := CheckAndSetRateLimit(ctx, s.redisClient, user.ID, "forgot_password", time.Minute)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("reset email already sent, try again later: %w", apperror.ErrRateLimitExceeded)
	}

	resetToken, expiresAt, err := token.Sign(s.secret, user.ID.String(), user.Role.Name, token.PurposePasswordReset, resetTokenTTL)
	if err != nil {
		return err
	}

	hash := hashResetToken(resetToken)
	user.ResetTokenHash = &hash
	user.ResetTokenExpires = &expiresAt
	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s?token=%s", s.resetBase, url.QueryEscape(resetToken))
	if err := s.mail.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	if len(newPassword) < 6 {
		return fmt.Errorf("password must be at least 6 characters: %w", apperror.ErrInvalidInput)
	}

	claims, err := token.Parse(s.secret, tokenString)
	if err != nil || claims.Purpose != token.PurposePasswordReset {
		return fmt.Errorf("invalid or expired reset token: %w", apperror.ErrBadRequest)
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user no longer exists: %w", apperror.ErrNotFound)
		}
		return err
	}

	// Single use: the stored hash must match and is cleared on consumption.
	if user.ResetTokenHash == nil || *user.ResetTokenHash != hashResetToken(tokenString) {
		return fmt.Errorf("invalid or expired reset token: %w", apperror.ErrBadRequest)
	}
	if user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		return fmt.Errorf("invalid or expired reset token: %w", apperror.ErrBadRequest)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetTokenHash = nil
	user.ResetTokenExpires = nil

	return s.repo.Update(ctx, user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	signed, _, err := token.Sign(s.secret, user.ID.String(), user.Role.Name, "", s.tokenTTL)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return &dto.AuthResponse{
		Message: "login successful",
		User:    user,
		Token:   signed,
	}, nil
}

func hashResetToken(t string) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
