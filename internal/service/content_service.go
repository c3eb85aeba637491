package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/repository"
	"github.com/coursemarket/server/pkg/apperror"
	"github.com/coursemarket/server/pkg/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContentService interface {
	Create(ctx context.Context, userID uuid.UUID, input dto.CreateContentInput, files []dto.UploadedFile) (*entity.Content, error)
	List(ctx context.Context, userID uuid.UUID, role string, page dto.PageQuery) (*dto.Paginated[*entity.Content], error)
	HomeList(ctx context.Context, page dto.PageQuery) (*dto.Paginated[*entity.Content], error)
	Search(ctx context.Context, query dto.ContentSearchQuery) (*dto.Paginated[dto.ContentSearchHit], error)
	GetByID(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*entity.Content, error)
	Update(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID, input dto.UpdateContentInput, files []dto.UploadedFile) (*entity.Content, error)
	Delete(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) error
	Approve(ctx context.Context, id uuid.UUID) error
}

type contentService struct {
	repo        repository.ContentRepository
	userRepo    repository.UserRepository
	fileStorage storage.FileStorage
	search      SearchService
}

func NewContentService(repo repository.ContentRepository, userRepo repository.UserRepository, fileStorage storage.FileStorage, search SearchService) ContentService {
	return &contentService{
		repo:        repo,
		userRepo:    userRepo,
		fileStorage: fileStorage,
		search:      search,
	}
}

func (s *contentService) Create(ctx context.Context, userID uuid.UUID, input dto.CreateContentInput, files []dto.UploadedFile) (*entity.Content, error) {
	user, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
	}

	if user.Role.Name != entity.RoleTeacher {
		return nil, fmt.Errorf("only teachers can publish content: %w", apperror.ErrForbidden)
	}
	if !user.IsVerified {
		return nil, fmt.Errorf("account pending approval: %w", apperror.ErrForbidden)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("at least one media file is required: %w", apperror.ErrInvalidInput)
	}

	media, err := s.uploadMedia(ctx, files)
	if err != nil {
		return nil, err
	}

	content := &entity.Content{
		Title:       input.Title,
		Description: input.Description,
		Subject:     input.Subject,
		Price:       input.Price,
		CreatedBy:   userID,
		IsApproved:  false,
		Media:       media,
	}

	if err := s.repo.Create(ctx, content); err != nil {
		return nil, err
	}

	content.Owner = *user
	if s.search != nil {
		if err := s.search.IndexContent(content); err != nil {
			log.Printf("Failed to index content %s: %v", content.ID, err)
		}
	}

	return content, nil
}

// List is role-scoped: a teacher sees only their own items regardless of
// approval; everyone else sees approved items only. Count and page share one
// filter so the pagination metadata cannot drift.
func (s *contentService) List(ctx context.Context, userID uuid.UUID, role string, page dto.PageQuery) (*dto.Paginated[*entity.Content], error) {
	page.Normalize()

	filter := repository.ContentFilter{ApprovedOnly: true}
	if role == entity.RoleTeacher {
		filter = repository.ContentFilter{OwnerID: &userID}
	}

	items, total, err := s.repo.FindPage(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewPaginated(items, total, page.Page, page.Limit), nil
}

func (s *contentService) HomeList(ctx context.Context, page dto.PageQuery) (*dto.Paginated[*entity.Content], error) {
	page.Normalize()

	items, total, err := s.repo.FindPage(ctx, repository.ContentFilter{ApprovedOnly: true}, page.Offset(), page.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewPaginated(items, total, page.Page, page.Limit), nil
}

func (s *contentService) Search(ctx context.Context, query dto.ContentSearchQuery) (*dto.Paginated[dto.ContentSearchHit], error) {
	query.Normalize()

	if s.search == nil {
		return dto.NewPaginated([]dto.ContentSearchHit{}, 0, query.Page, query.Limit), nil
	}

	hits, total, err := s.search.SearchApproved(query.Q, query.Offset(), query.Limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return dto.NewPaginated(hits, total, query.Page, query.Limit), nil
}

func (s *contentService) GetByID(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) (*entity.Content, error) {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	// Unapproved items are visible to the owner and admins only.
	if !content.IsApproved && content.CreatedBy != userID && role != entity.RoleAdmin {
		return nil, fmt.Errorf("content not found: %w", apperror.ErrNotFound)
	}

	content.Owner.PasswordHash = ""
	return content, nil
}

func (s *contentService) Update(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID, input dto.UpdateContentInput, files []dto.UploadedFile) (*entity.Content, error) {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content not found: %w", apperror.ErrNotFound)
		}
		return nil, err
	}

	if err := s.requireOwnerOrAdmin(content, userID, role); err != nil {
		return nil, err
	}

	if input.Title != nil {
		content.Title = *input.Title
	}
	if input.Subject != nil {
		content.Subject = *input.Subject
	}
	if input.Description != nil {
		content.Description = *input.Description
	}
	if input.Price != nil {
		content.Price = *input.Price
	}

	if len(files) > 0 {
		media, err := s.uploadMedia(ctx, files)
		if err != nil {
			return nil, err
		}

		oldMedia := content.Media
		if err := s.repo.ReplaceMedia(ctx, content.ID, media); err != nil {
			return nil, err
		}
		content.Media = media

		for _, m := range oldMedia {
			if err := s.fileStorage.DeleteFile(ctx, m.FileURL); err != nil {
				log.Printf("Failed to delete replaced media %s: %v", m.FileURL, err)
			}
		}
	}

	if err := s.repo.Update(ctx, content); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexContent(content); err != nil {
			log.Printf("Failed to reindex content %s: %v", content.ID, err)
		}
	}

	content.Owner.PasswordHash = ""
	return content, nil
}

func (s *contentService) Delete(ctx context.Context, userID uuid.UUID, role string, id uuid.UUID) error {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("content not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if err := s.requireOwnerOrAdmin(content, userID, role); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Best effort; orphaned files are not worth failing the request over.
	for _, m := range content.Media {
		if err := s.fileStorage.DeleteFile(ctx, m.FileURL); err != nil {
			log.Printf("Failed to delete media %s: %v", m.FileURL, err)
		}
	}

	if s.search != nil {
		if err := s.search.DeleteContent(id.String()); err != nil {
			log.Printf("Failed to remove content %s from index: %v", id, err)
		}
	}

	return nil
}

// Approve is idempotent; approving an already-approved item is a no-op.
func (s *contentService) Approve(ctx context.Context, id uuid.UUID) error {
	content, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("content not found: %w", apperror.ErrNotFound)
		}
		return err
	}

	if !content.IsApproved {
		content.IsApproved = true
		if err := s.repo.Update(ctx, content); err != nil {
			return err
		}
	}

	if s.search != nil {
		if err := s.search.IndexContent(content); err != nil {
			log.Printf("Failed to reindex approved content %s: %v", content.ID, err)
		}
	}

	return nil
}

func (s *contentService) requireOwnerOrAdmin(content *entity.Content, userID uuid.UUID, role string) error {
	if content.CreatedBy != userID && role != entity.RoleAdmin {
		return fmt.Errorf("you can only modify your own content: %w", apperror.ErrForbidden)
	}
	return nil
}

func (s *contentService) uploadMedia(ctx context.Context, files []dto.UploadedFile) ([]entity.MediaAsset, error) {
	media := make([]entity.MediaAsset, 0, len(files))
	for _, f := range files {
		url, err := s.fileStorage.UploadFile(ctx, f.Reader, "course-media", f.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", f.FileName, err)
		}
		media = append(media, entity.MediaAsset{
			FileURL:  url,
			FileType: mediaTypeFor(f.FileName),
		})
	}
	return media, nil
}

func mediaTypeFor(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return "image"
	case ".mp4", ".mov", ".webm", ".mkv":
		return "video"
	case ".pdf":
		return "pdf"
	default:
		return "file"
	}
}
