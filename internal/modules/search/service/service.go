package search

import (
	"fmt"
	"html"
	"log"
	"os"
	"strings"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"liftly.app/liftly/internal/model"
)

type SearchService interface {
	IndexPost(post *model.Post) error
	RemovePost(id string) error
	// GenerateSearchToken returns a tenant token scoped so that
	// shadow-restricted authors stay invisible to everyone but themselves
	// and admins.
	GenerateSearchToken(viewerID string, elevated bool) (string, error)
}

type searchService struct {
	client        meilisearch.ServiceManager
	masterKey     string
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	masterKey := os.Getenv("MEILI_MASTER_KEY")
	if masterKey == "" {
		log.Println("WARNING: MEILI_MASTER_KEY is not set.")
	}

	s := &searchService{
		client:    client,
		masterKey: masterKey,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *searchService) initIndexes() {
	filterableAttrs := []string{"author_id", "kind", "restricted"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	_, err := s.client.Index("posts").UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		log.Printf("Failed to update posts filterable attributes: %v", err)
	}

	sortableAttrs := []string{"created_at", "like_count"}
	_, err = s.client.Index("posts").UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		log.Printf("Failed to update posts sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

func (s *searchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == "TenantTokenSigner" {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			log.Println("Found existing Meilisearch signing key")
			return
		}
	}

	expiry := time.Now().AddDate(100, 0, 0)

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Key to sign tenant tokens",
		Name:        "TenantTokenSigner",
		Actions:     []string{"search"},
		Indexes:     []string{"posts"},
		ExpiresAt:   expiry,
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created new Meilisearch signing key")
}

type meiliPostDoc struct {
	ID         string `json:"id"`
	Body       string `json:"body"`
	Kind       string `json:"kind"`
	AuthorID   string `json:"author_id"`
	Handle     string `json:"handle"`
	Restricted bool   `json:"restricted"`
	LikeCount  int    `json:"like_count"`
	CreatedAt  int64  `json:"created_at"`
}

func (s *searchService) cleanBodyForIndex(body string) string {
	sanitized := s.sanitizer.Sanitize(body)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexPost(post *model.Post) error {
	doc := meiliPostDoc{
		ID:         post.ID.String(),
		Body:       s.cleanBodyForIndex(post.Body),
		Kind:       post.Kind,
		AuthorID:   post.AuthorID.String(),
		Handle:     post.Author.Handle,
		Restricted: post.Author.ShadowRestricted,
		LikeCount:  post.LikeCount,
		CreatedAt:  post.CreatedAt.Unix(),
	}

	task, err := s.client.Index("posts").AddDocuments([]meiliPostDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed post %s, task id: %d", post.ID, task.TaskUID)
	return nil
}

func (s *searchService) RemovePost(id string) error {
	_, err := s.client.Index("posts").DeleteDocument(id)
	return err
}

func (s *searchService) GenerateSearchToken(viewerID string, elevated bool) (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		"posts": map[string]any{"filter": nil},
	}

	if !elevated {
		filter := "restricted = false"
		if viewerID != "" {
			filter = fmt.Sprintf("restricted = false OR author_id = %q", viewerID)
		}
		searchRules["posts"] = map[string]any{"filter": filter}
	}

	token, err := s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})

	if err != nil {
		return "", err
	}

	return token, nil
}

func strPtr(s string) *string {
	return &s
}
