package service

import (
	"encoding/json"
	"html"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const contentIndex = "contents"

type SearchService interface {
	IndexContent(content *entity.Content) error
	DeleteContent(id string) error
	SearchApproved(query string, offset, limit int) ([]dto.ContentSearchHit, int64, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *searchService) initIndex() {
	filterableAttrs := []string{"is_approved", "subject"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	if _, err := s.client.Index(contentIndex).UpdateFilterableAttributes(&filterableInterface); err != nil {
		log.Printf("Failed to update contents filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at", "price"}
	if _, err := s.client.Index(contentIndex).UpdateSortableAttributes(&sortableAttrs); err != nil {
		log.Printf("Failed to update contents sortable attributes: %v", err)
	}
}

type meiliContentDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	IsApproved  bool   `json:"is_approved"`
	OwnerName   string `json:"owner_name"`
	CreatedAt   int64  `json:"created_at"`
}

func (s *searchService) cleanForIndex(content string) string {
	// Block tags become spaces so words don't merge.
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)

	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexContent(content *entity.Content) error {
	doc := meiliContentDoc{
		ID:          content.ID.String(),
		Title:       content.Title,
		Subject:     content.Subject,
		Description: s.cleanForIndex(content.Description),
		Price:       content.Price,
		IsApproved:  content.IsApproved,
		OwnerName:   content.Owner.Name,
		CreatedAt:   content.CreatedAt.Unix(),
	}

	task, err := s.client.Index(contentIndex).AddDocuments([]meiliContentDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed content %s, task id: %d", content.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteContent(id string) error {
	_, err := s.client.Index(contentIndex).DeleteDocument(id)
	return err
}

// SearchApproved queries the index restricted to approved items only; the
// public search endpoint never sees pending content.
func (s *searchService) SearchApproved(query string, offset, limit int) ([]dto.ContentSearchHit, int64, error) {
	resp, err := s.client.Index(contentIndex).Search(query, &meilisearch.SearchRequest{
		Filter: "is_approved = true",
		Offset: int64(offset),
		Limit:  int64(limit),
		Sort:   []string{"created_at:desc"},
	})
	if err != nil {
		return nil, 0, err
	}

	hits := make([]dto.ContentSearchHit, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		data, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		var doc meiliContentDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}

		excerpt := truncateExcerpt(doc.Description, 200)

		hits = append(hits, dto.ContentSearchHit{
			ID:        doc.ID,
			Title:     doc.Title,
			Subject:   doc.Subject,
			Excerpt:   excerpt,
			Price:     doc.Price,
			OwnerName: doc.OwnerName,
			CreatedAt: doc.CreatedAt,
		})
	}

	return hits, resp.EstimatedTotalHits, nil
}

// truncateExcerpt cuts s down to at most max bytes without splitting a
// multi-byte rune at the cut point.
func truncateExcerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func strPtr(s string) *string {
	return &s
}
