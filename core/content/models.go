package content

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kampi/core"
)

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	ImageURL  string    `json:"image_url,omitempty"`
	Position  int       `json:"position"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewPost struct {
	Title     string `json:"title" validate:"required"`
	Body      string `json:"body" validate:"required"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	Published bool   `json:"published"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.ImageURL = core.CleanString(np.ImageURL)
	return validate.Struct(np)
}

type UpdatePost struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	ImageURL  string `json:"image_url" validate:"omitempty,url"`
	Published *bool  `json:"published"`
}

func (up *UpdatePost) Validate(validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	up.ImageURL = core.CleanString(up.ImageURL)
	return validate.Struct(up)
}

// PostOrder carries the new front-to-back ordering of post IDs after a
// drag-reorder on the admin dashboard.
type PostOrder struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (po *PostOrder) Validate(validate *validator.Validate) error {
	return validate.Struct(po)
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewNotification struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
}

func (nn *NewNotification) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	return validate.Struct(nn)
}
