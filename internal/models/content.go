package models

import "time"

// SiteConfig is a key/value setting upserted by key.
type SiteConfig struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// PageContent is an editable static page (about, shipping policy, ...).
type PageContent struct {
	ID        int       `db:"id" json:"id"`
	Slug      string    `db:"slug" json:"slug"`
	Title     string    `db:"title" json:"title"`
	Content   string    `db:"content" json:"content"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ContactMessage is a submission of the public contact form.
type ContactMessage struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Subject   string    `db:"subject" json:"subject"`
	Message   string    `db:"message" json:"message"`
	IsHandled bool      `db:"is_handled" json:"isHandled"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// FAQQuestion is a question submitted from the FAQ page.
type FAQQuestion struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Question  string    `db:"question" json:"question"`
	IsHandled bool      `db:"is_handled" json:"isHandled"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
