package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/decorhaus/storefront_api/internal/models"
	"github.com/decorhaus/storefront_api/internal/utils"
)

type contentStore interface {
	Settings(ctx context.Context) ([]models.SiteConfig, error)
	UpsertSetting(ctx context.Context, s *models.SiteConfig) error
	Pages(ctx context.Context) ([]models.PageContent, error)
	PageBySlug(ctx context.Context, slug string) (*models.PageContent, error)
	UpsertPage(ctx context.Context, p *models.PageContent) error
	DeletePage(ctx context.Context, slug string) error
	Categories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int) error
}

type inboxStore interface {
	CreateContact(ctx context.Context, m *models.ContactMessage) error
	Contacts(ctx context.Context, handled *bool) ([]models.ContactMessage, error)
	MarkContactHandled(ctx context.Context, id int) error
	CreateQuestion(ctx context.Context, q *models.FAQQuestion) error
	Questions(ctx context.Context, handled *bool) ([]models.FAQQuestion, error)
	MarkQuestionHandled(ctx context.Context, id int) error
}

// ContentService manages site settings, static pages and categories.
type ContentService struct {
	store contentStore
	feeds cacheInvalidator
}

// NewContentService constructs a ContentService.
func NewContentService(store contentStore, feeds cacheInvalidator) *ContentService {
	return &ContentService{store: store, feeds: feeds}
}

// Settings returns all settings.
func (s *ContentService) Settings(ctx context.Context) ([]models.SiteConfig, error) {
	return s.store.Settings(ctx)
}

// SettingsMap returns settings as a key/value map for the storefront.
func (s *ContentService) SettingsMap(ctx context.Context) (map[string]string, error) {
	items, err := s.store.Settings(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it.Key] = it.Value
	}
	return out, nil
}

// UpsertSetting writes one setting.
func (s *ContentService) UpsertSetting(ctx context.Context, key, value string) (*models.SiteConfig, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("key is required: %w", utils.ErrInvalidInput)
	}
	item := &models.SiteConfig{Key: key, Value: value}
	if err := s.store.UpsertSetting(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Pages lists pages without bodies.
func (s *ContentService) Pages(ctx context.Context) ([]models.PageContent, error) {
	return s.store.Pages(ctx)
}

// Page returns a page by slug.
func (s *ContentService) Page(ctx context.Context, slug string) (*models.PageContent, error) {
	return s.store.PageBySlug(ctx, slug)
}

// UpsertPage creates or replaces a page by slug.
func (s *ContentService) UpsertPage(ctx context.Context, slug, title, content string) (*models.PageContent, error) {
	slug = utils.Slugify(slug)
	if slug == "" || strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("slug and title are required: %w", utils.ErrInvalidInput)
	}
	p := &models.PageContent{Slug: slug, Title: strings.TrimSpace(title), Content: content}
	if err := s.store.UpsertPage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePage removes a page.
func (s *ContentService) DeletePage(ctx context.Context, slug string) error {
	return s.store.DeletePage(ctx, slug)
}

// Categories lists categories.
func (s *ContentService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.Categories(ctx)
}

// SaveCategory creates (id == 0) or updates a category.
func (s *ContentService) SaveCategory(ctx context.Context, id int, name, slug, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", utils.ErrInvalidInput)
	}
	if slug = utils.Slugify(slug); slug == "" {
		slug = utils.Slugify(name)
	}
	c := &models.Category{ID: id, Name: name, Slug: slug, Description: description}
	var err error
	if id == 0 {
		err = s.store.CreateCategory(ctx, c)
	} else {
		err = s.store.UpdateCategory(ctx, c)
	}
	if err != nil {
		return nil, err
	}
	if id != 0 && s.feeds != nil {
		// product_type in feeds comes from the category name
		_ = s.feeds.Invalidate(ctx)
	}
	return c, nil
}

// DeleteCategory removes a category not referenced by products.
func (s *ContentService) DeleteCategory(ctx context.Context, id int) error {
	return s.store.DeleteCategory(ctx, id)
}

// ContactRequest is the public contact form.
type ContactRequest struct {
	Name    string  `json:"name" binding:"required"`
	Email   string  `json:"email" binding:"required,email"`
	Phone   *string `json:"phone"`
	Subject string  `json:"subject"`
	Message string  `json:"message" binding:"required"`
}

// QuestionRequest is the public FAQ question form.
type QuestionRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Question string `json:"question" binding:"required"`
}

// InboxService stores contact messages and FAQ questions.
type InboxService struct {
	store inboxStore
}

// NewInboxService constructs an InboxService.
func NewInboxService(store inboxStore) *InboxService {
	return &InboxService{store: store}
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// SubmitContact records a contact form submission.
func (s *InboxService) SubmitContact(ctx context.Context, req *ContactRequest) (*models.ContactMessage, error) {
	email := strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Message) == "" || !validEmail(email) {
		return nil, fmt.Errorf("name, valid email and message are required: %w", utils.ErrInvalidInput)
	}
	if len(req.Message) > 5000 {
		return nil, fmt.Errorf("message is too long: %w", utils.ErrInvalidInput)
	}
	m := &models.ContactMessage{
		Name:    strings.TrimSpace(req.Name),
		Email:   email,
		Phone:   req.Phone,
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if err := s.store.CreateContact(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SubmitQuestion records an FAQ question.
func (s *InboxService) SubmitQuestion(ctx context.Context, req *QuestionRequest) (*models.FAQQuestion, error) {
	email := strings.TrimSpace(req.Email)
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Question) == "" || !validEmail(email) {
		return nil, fmt.Errorf("name, valid email and question are required: %w", utils.ErrInvalidInput)
	}
	q := &models.FAQQuestion{Name: strings.TrimSpace(req.Name), Email: email, Question: strings.TrimSpace(req.Question)}
	if err := s.store.CreateQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// Contacts lists contact messages.
func (s *InboxService) Contacts(ctx context.Context, handled *bool) ([]models.ContactMessage, error) {
	return s.store.Contacts(ctx, handled)
}

// MarkContactHandled flags a contact message.
func (s *InboxService) MarkContactHandled(ctx context.Context, id int) error {
	return s.store.MarkContactHandled(ctx, id)
}

// Questions lists FAQ questions.
func (s *InboxService) Questions(ctx context.Context, handled *bool) ([]models.FAQQuestion, error) {
	return s.store.Questions(ctx, handled)
}

// MarkQuestionHandled flags an FAQ question.
func (s *InboxService) MarkQuestionHandled(ctx context.Context, id int) error {
	return s.store.MarkQuestionHandled(ctx, id)
}
