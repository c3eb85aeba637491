package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/repository"
	"github.com/coursemarket/server/pkg/apperror"
	"github.com/coursemarket/server/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	ListUsers(ctx context.Context, query dto.UserListQuery) (*dto.Paginated[*entity.User], error)
	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	UpdateUser(ctx context.Context, callerID uuid.UUID, callerRole string, targetID uuid.UUID, input dto.UpdateUserInput, picture *dto.UploadedFile) (*entity.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ApproveUser(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo        repository.UserRepository
	contentRepo repository.ContentRepository
	fileStorage storage.FileStorage
	search      SearchService
}

func NewUserService(repo repository.UserRepository, contentRepo repository.ContentRepository, fileStorage storage.FileStorage, search SearchService) UserService {
	return &userService{
		repo:        repo,
		contentRepo: contentRepo,
		fileStorage: fileStorage,
		search:      search,
	}
}

// Profile resolves the caller's own record from the verified token subject.
// Tokens outlive deletions, so the id may no longer exist.
func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, userID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, query dto.UserListQuery) (*dto.Paginated[*entity.User], error) {
	query.Normalize()

	users, total, err := s.repo.FindPage(ctx, query.Role, query.Offset(), query.Limit)
	if err != nil {
		return nil, err
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	return dto.NewPaginated(users, total, query.Page, query.Limit), nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, callerID uuid.UUID, callerRole string, targetID uuid.UUID, input dto.UpdateUserInput, picture *dto.UploadedFile) (*entity.User, error) {
	isAdmin := callerRole == entity.RoleAdmin
	if !isAdmin && callerID != targetID {
		return nil, fmt.Errorf("you can only edit your own account: %w", apperror.ErrForbidden)
	}

	// Role and flag changes are admin-only; a self-edit cannot escalate.
	if !isAdmin && (input.Role != nil || input.IsVerified != nil || input.IsActive != nil) {
		return nil, fmt.Errorf("only admins can change role or account flags: %w", apperror.ErrForbidden)
	}

	user, err := s.repo.FindByID(ctx, targetID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if input.Name != nil && *input.Name != user.Name {
		if _, err := s.repo.FindByName(ctx, *input.Name); err == nil {
			return nil, fmt.Errorf("name already taken: %w", apperror.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Name = *input.Name
	}

	if input.Bio != nil {
		user.Bio = input.Bio
	}

	if input.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	if input.Role != nil {
		if !entity.IsKnownRole(*input.Role) {
			return nil, fmt.Errorf("unknown role %s: %w", *input.Role, apperror.ErrBadRequest)
		}
		role, err := s.repo.FindRoleByName(ctx, *input.Role)
		if err != nil {
			return nil, err
		}
		roleID := role.ID
		user.RoleID = &roleID
		user.Role = *role
	}

	if input.IsVerified != nil {
		user.IsVerified = *input.IsVerified
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if picture != nil && picture.Reader != nil && s.fileStorage != nil {
		url, err := s.fileStorage.UploadFile(ctx, picture.Reader, "avatars", picture.FileName)
		if err != nil {
			return nil, err
		}

		if user.ProfilePicture != nil {
			if err := s.fileStorage.DeleteFile(ctx, *user.ProfilePicture); err != nil {
				log.Printf("Failed to delete old profile picture: %v", err)
			}
		}
		user.ProfilePicture = &url
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// DeleteUser removes the user and every content item they authored.
func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	authored, err := s.contentRepo.FindByOwner(ctx, user.ID)
	if err != nil {
		return err
	}

	if err := s.contentRepo.DeleteByOwner(ctx, user.ID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, user.ID.String()); err != nil {
		return err
	}

	for _, content := range authored {
		for _, m := range content.Media {
			if err := s.fileStorage.DeleteFile(ctx, m.FileURL); err != nil {
				log.Printf("Failed to delete media %s: %v", m.FileURL, err)
			}
		}
		if s.search != nil {
			if err := s.search.DeleteContent(content.ID.String()); err != nil {
				log.Printf("Failed to remove content %s from index: %v", content.ID, err)
			}
		}
	}

	if user.ProfilePicture != nil && s.fileStorage != nil {
		if err := s.fileStorage.DeleteFile(ctx, *user.ProfilePicture); err != nil {
			log.Printf("Failed to delete profile picture: %v", err)
		}
	}

	return nil
}

// ApproveUser idempotently marks the account verified, unblocking accounts
// held on the pending-approval screen.
func (s *userService) ApproveUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if user.IsVerified {
		return nil
	}

	user.IsVerified = true
	return s.repo.Update(ctx, user)
}
