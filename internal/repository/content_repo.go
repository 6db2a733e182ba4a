package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/decorhaus/storefront_api/internal/models"
)

// ContentRepository handles site settings, static pages and categories.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Settings returns every site setting ordered by key.
func (r *ContentRepository) Settings(ctx context.Context) ([]models.SiteConfig, error) {
	items := []models.SiteConfig{}
	if err := r.db.SelectContext(ctx, &items, `SELECT key, value, updated_at FROM site_config ORDER BY key`); err != nil {
		return nil, mapError("list settings", err)
	}
	return items, nil
}

// UpsertSetting inserts or overwrites a setting by key.
func (r *ContentRepository) UpsertSetting(ctx context.Context, s *models.SiteConfig) error {
	const q = `
        INSERT INTO site_config (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
        RETURNING updated_at`
	return mapError("upsert setting", r.db.QueryRowxContext(ctx, q, s.Key, s.Value).Scan(&s.UpdatedAt))
}

// Pages returns every page without its body.
func (r *ContentRepository) Pages(ctx context.Context) ([]models.PageContent, error) {
	pages := []models.PageContent{}
	if err := r.db.SelectContext(ctx, &pages, `SELECT id, slug, title, '' AS content, updated_at FROM page_content ORDER BY slug`); err != nil {
		return nil, mapError("list pages", err)
	}
	return pages, nil
}

// PageBySlug returns a single page.
func (r *ContentRepository) PageBySlug(ctx context.Context, slug string) (*models.PageContent, error) {
	var p models.PageContent
	if err := r.db.GetContext(ctx, &p, `SELECT id, slug, title, content, updated_at FROM page_content WHERE slug = $1`, slug); err != nil {
		return nil, mapError("get page", err)
	}
	return &p, nil
}

// UpsertPage inserts or overwrites a page by slug.
func (r *ContentRepository) UpsertPage(ctx context.Context, p *models.PageContent) error {
	const q = `
        INSERT INTO page_content (slug, title, content) VALUES ($1, $2, $3)
        ON CONFLICT (slug) DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content, updated_at = NOW()
        RETURNING id, updated_at`
	return mapError("upsert page", r.db.QueryRowxContext(ctx, q, p.Slug, p.Title, p.Content).Scan(&p.ID, &p.UpdatedAt))
}

// DeletePage removes a page by slug.
func (r *ContentRepository) DeletePage(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM page_content WHERE slug = $1`, slug)
	if err != nil {
		return mapError("delete page", err)
	}
	return requireAffected("delete page", res)
}

// Categories returns every category ordered by name.
func (r *ContentRepository) Categories(ctx context.Context) ([]models.Category, error) {
	cats := []models.Category{}
	if err := r.db.SelectContext(ctx, &cats, `SELECT id, name, slug, description, created_at FROM categories ORDER BY name`); err != nil {
		return nil, mapError("list categories", err)
	}
	return cats, nil
}

// CreateCategory inserts a category; a duplicate slug fails with ErrAlreadyExists.
func (r *ContentRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	const q = `INSERT INTO categories (name, slug, description) VALUES ($1, $2, $3) RETURNING id, created_at`
	return mapError("create category", r.db.QueryRowxContext(ctx, q, c.Name, c.Slug, c.Description).Scan(&c.ID, &c.CreatedAt))
}

// UpdateCategory rewrites a category.
func (r *ContentRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = $1, slug = $2, description = $3 WHERE id = $4`,
		c.Name, c.Slug, c.Description, c.ID)
	if err != nil {
		return mapError("update category", err)
	}
	return requireAffected("update category", res)
}

// DeleteCategory removes a category; products still referencing it fail with ErrInUse.
func (r *ContentRepository) DeleteCategory(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapError("delete category", err)
	}
	return requireAffected("delete category", res)
}

// InboxRepository stores contact messages and FAQ questions.
type InboxRepository struct {
	db *sqlx.DB
}

// NewInboxRepository creates a new InboxRepository.
func NewInboxRepository(db *sqlx.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// CreateContact stores a contact form submission.
func (r *InboxRepository) CreateContact(ctx context.Context, m *models.ContactMessage) error {
	const q = `INSERT INTO contact_messages (name, email, phone, subject, message)
        VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return mapError("create contact message",
		r.db.QueryRowxContext(ctx, q, m.Name, m.Email, m.Phone, m.Subject, m.Message).Scan(&m.ID, &m.CreatedAt))
}

// Contacts lists contact messages; handled filters when not nil.
func (r *InboxRepository) Contacts(ctx context.Context, handled *bool) ([]models.ContactMessage, error) {
	items := []models.ContactMessage{}
	const q = `SELECT id, name, email, phone, subject, message, is_handled, created_at
        FROM contact_messages WHERE ($1::boolean IS NULL OR is_handled = $1)
        ORDER BY created_at DESC, id DESC LIMIT 200`
	if err := r.db.SelectContext(ctx, &items, q, handled); err != nil {
		return nil, mapError("list contact messages", err)
	}
	return items, nil
}

// MarkContactHandled flags a contact message as dealt with.
func (r *InboxRepository) MarkContactHandled(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE contact_messages SET is_handled = true WHERE id = $1`, id)
	if err != nil {
		return mapError("handle contact message", err)
	}
	return requireAffected("handle contact message", res)
}

// CreateQuestion stores an FAQ question.
func (r *InboxRepository) CreateQuestion(ctx context.Context, q *models.FAQQuestion) error {
	const stmt = `INSERT INTO faq_questions (name, email, question) VALUES ($1, $2, $3) RETURNING id, created_at`
	return mapError("create faq question",
		r.db.QueryRowxContext(ctx, stmt, q.Name, q.Email, q.Question).Scan(&q.ID, &q.CreatedAt))
}

// Questions lists FAQ questions; handled filters when not nil.
func (r *InboxRepository) Questions(ctx context.Context, handled *bool) ([]models.FAQQuestion, error) {
	items := []models.FAQQuestion{}
	const q = `SELECT id, name, email, question, is_handled, created_at
        FROM faq_questions WHERE ($1::boolean IS NULL OR is_handled = $1)
        ORDER BY created_at DESC, id DESC LIMIT 200`
	if err := r.db.SelectContext(ctx, &items, q, handled); err != nil {
		return nil, mapError("list faq questions", err)
	}
	return items, nil
}

// MarkQuestionHandled flags a question as answered.
func (r *InboxRepository) MarkQuestionHandled(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE faq_questions SET is_handled = true WHERE id = $1`, id)
	if err != nil {
		return mapError("handle faq question", err)
	}
	return requireAffected("handle faq question", res)
}
