package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/coursemarket/server/internal/entity"
	"github.com/coursemarket/server/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the gorm-backed implementations
// closely enough for service-level tests: misses surface as
// gorm.ErrRecordNotFound, pages are counted and sliced from one filter.

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*entity.User
	roles []*entity.Role
}

func newFakeUserRepo() *fakeUserRepo {
	r := &fakeUserRepo{}
	for i, name := range entity.KnownRoles {
		r.roles = append(r.roles, &entity.Role{ID: uint(i + 1), Name: name})
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	r.users = append(r.users, &clone)
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID.String() == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmailAndRole(ctx context.Context, email, role string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email && u.Role.Name == role {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByName(ctx context.Context, name string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Name == name {
			clone := *u
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			clone := *user
			r.users[i] = &clone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindPage(ctx context.Context, role string, offset, limit int) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.User
	for _, u := range r.users {
		if role == "" || u.Role.Name == role {
			clone := *u
			matched = append(matched, &clone)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID.String() == id {
			r.users = append(r.users[:i], r.users[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeContentRepo struct {
	mu    sync.Mutex
	items []*entity.Content
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{}
}

func (r *fakeContentRepo) Create(ctx context.Context, content *entity.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if content.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		content.ID = id
	}
	clone := *content
	r.items = append(r.items, &clone)
	return nil
}

func (r *fakeContentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.ID == id {
			clone := *c
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeContentRepo) FindPage(ctx context.Context, filter repository.ContentFilter, offset, limit int) ([]*entity.Content, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Content
	for _, c := range r.items {
		if filter.OwnerID != nil && c.CreatedBy != *filter.OwnerID {
			continue
		}
		if filter.ApprovedOnly && !c.IsApproved {
			continue
		}
		clone := *c
		matched = append(matched, &clone)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (r *fakeContentRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Content
	for _, c := range r.items {
		if c.CreatedBy == ownerID {
			clone := *c
			matched = append(matched, &clone)
		}
	}
	return matched, nil
}

func (r *fakeContentRepo) Update(ctx context.Context, content *entity.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.items {
		if c.ID == content.ID {
			clone := *content
			r.items[i] = &clone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeContentRepo) ReplaceMedia(ctx context.Context, contentID uuid.UUID, media []entity.MediaAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.ID == contentID {
			c.Media = media
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeContentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.items {
		if c.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeContentRepo) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*entity.Content
	for _, c := range r.items {
		if c.CreatedBy != ownerID {
			kept = append(kept, c)
		}
	}
	r.items = kept
	return nil
}

type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases []*entity.Purchase
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{}
}

func (r *fakePurchaseRepo) Create(ctx context.Context, purchase *entity.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	clone := *purchase
	r.purchases = append(r.purchases, &clone)
	return nil
}

func (r *fakePurchaseRepo) FindBySessionID(ctx context.Context, sessionID string) (*entity.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.StripeSessionID == sessionID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) FindPaid(ctx context.Context, userID, contentID uuid.UUID) (*entity.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.UserID == userID && p.ContentID == contentID && p.Status == entity.PurchasePaid {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Purchase
	for _, p := range r.purchases {
		if p.UserID == userID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (r *fakePurchaseRepo) Update(ctx context.Context, purchase *entity.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.purchases {
		if p.ID == purchase.ID {
			clone := *purchase
			r.purchases[i] = &clone
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) CountPaidByContent(ctx context.Context, contentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, p := range r.purchases {
		if p.ContentID == contentID && p.Status == entity.PurchasePaid {
			count++
		}
	}
	return count, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeMessageRepo) FindByRoom(ctx context.Context, roomID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Message
	for _, m := range r.messages {
		if m.RoomID == roomID {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

func (r *fakeMessageRepo) FindConversation(ctx context.Context, roomID string, userA, userB uuid.UUID) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*entity.Message
	for _, m := range r.messages {
		if m.RoomID != roomID || m.ReceiverID == nil {
			continue
		}
		if (m.SenderID == userA && *m.ReceiverID == userB) || (m.SenderID == userB && *m.ReceiverID == userA) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	uploadFn func(fileName string) (string, error)
}

func (s *fakeStorage) UploadFile(ctx context.Context, file io.Reader, folder, fileName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	if s.uploadFn != nil {
		return s.uploadFn(fileName)
	}
	return fmt.Sprintf("https://cdn.test/%s/%s", folder, fileName), nil
}

func (s *fakeStorage) DeleteFile(ctx context.Context, fileURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fileURL)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	urls []string
}

func (m *fakeMailer) SendPasswordReset(to, name, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	m.urls = append(m.urls, resetURL)
	return nil
}
