package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
)

var (
	// errors
	ErrPostNotFound         = errors.New("post not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrSlugExists           = errors.New("a post with this slug already exists")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post, exec ...core.DBExecutor) (Post, error)
		GetPostByID(ctx context.Context, id string, exec ...core.DBExecutor) (Post, error)
		GetPostBySlug(ctx context.Context, sl string, exec ...core.DBExecutor) (Post, error)
		// QueryPosts returns posts by ascending position.
		QueryPosts(ctx context.Context, publishedOnly bool, exec ...core.DBExecutor) ([]Post, error)
		UpdatePost(ctx context.Context, p Post, exec ...core.DBExecutor) (Post, error)
		DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		// ReorderPosts persists positions following the given ID order.
		ReorderPosts(ctx context.Context, ids []string, exec ...core.DBExecutor) error
		NextPostPosition(ctx context.Context, exec ...core.DBExecutor) (int, error)

		CreateNotification(ctx context.Context, n Notification, exec ...core.DBExecutor) (Notification, error)
		QueryNotifications(ctx context.Context, exec ...core.DBExecutor) ([]Notification, error)
		DeleteNotificationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		CreatePost(ctx context.Context, np NewPost) (Post, error)
		GetPost(ctx context.Context, id string) (Post, error)
		GetPostBySlug(ctx context.Context, sl string) (Post, error)
		QueryPosts(ctx context.Context, publishedOnly bool) ([]Post, error)
		UpdatePost(ctx context.Context, id string, up UpdatePost) (Post, error)
		DeletePosts(ctx context.Context, ids ...string) error
		ReorderPosts(ctx context.Context, po PostOrder) error

		CreateNotification(ctx context.Context, nn NewNotification) (Notification, error)
		QueryNotifications(ctx context.Context) ([]Notification, error)
		DeleteNotifications(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreatePost(ctx context.Context, np NewPost) (Post, error) {
	pos, err := svc.repo.NextPostPosition(ctx)
	if err != nil {
		return Post{}, err
	}

	now := time.Now().UTC()
	p := Post{
		Title:     np.Title,
		Slug:      slug.Make(np.Title),
		Body:      np.Body,
		ImageURL:  np.ImageURL,
		Position:  pos,
		Published: np.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := svc.repo.CreatePost(ctx, p)
	if errors.Cause(err) == ErrSlugExists {
		// disambiguate with a short random suffix
		p.Slug = p.Slug + "-" + uuid.New().String()[:8]
		return svc.repo.CreatePost(ctx, p)
	}
	return created, err
}

func (svc *service) GetPost(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPostByID(ctx, id)
}

func (svc *service) GetPostBySlug(ctx context.Context, sl string) (Post, error) {
	return svc.repo.GetPostBySlug(ctx, core.CleanString(sl, true /* lower */))
}

func (svc *service) QueryPosts(ctx context.Context, publishedOnly bool) ([]Post, error) {
	return svc.repo.QueryPosts(ctx, publishedOnly)
}

func (svc *service) UpdatePost(ctx context.Context, id string, up UpdatePost) (Post, error) {
	p, err := svc.repo.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}

	if up.Title != "" && up.Title != p.Title {
		p.Title = up.Title
		p.Slug = slug.Make(up.Title)
	}
	if up.Body != "" {
		p.Body = up.Body
	}
	if up.ImageURL != "" {
		p.ImageURL = up.ImageURL
	}
	if up.Published != nil {
		p.Published = *up.Published
	}
	p.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdatePost(ctx, p)
}

func (svc *service) DeletePosts(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeletePostsByID(ctx, ids)
	return err
}

func (svc *service) ReorderPosts(ctx context.Context, po PostOrder) error {
	return svc.repo.ReorderPosts(ctx, po.IDs)
}

func (svc *service) CreateNotification(ctx context.Context, nn NewNotification) (Notification, error) {
	n := Notification{
		Title:     nn.Title,
		Body:      nn.Body,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateNotification(ctx, n)
}

func (svc *service) QueryNotifications(ctx context.Context) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx)
}

func (svc *service) DeleteNotifications(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteNotificationsByID(ctx, ids)
	return err
}
