package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/content"
)

var (
	postColumns = []string{
		"id", "title", "slug", "body", "image_url", "position",
		"published", "created_at", "updated_at",
	}
	notificationColumns = []string{"id", "title", "body", "created_at"}
)

type postRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Slug      string      `db:"slug"`
	Body      string      `db:"body"`
	ImageURL  null.String `db:"image_url"`
	Position  int         `db:"position"`
	Published bool        `db:"published"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

type notificationRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	CreatedAt null.Time `db:"created_at"`
}

type contentRepository struct {
	repoBase
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *sqlx.DB) *contentRepository {
	return &contentRepository{repoBase{db: db}}
}

func (repo contentRepository) packPost(p content.Post) postRow {
	return postRow{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Body:      p.Body,
		ImageURL:  null.NewString(p.ImageURL, p.ImageURL != ""),
		Position:  p.Position,
		Published: p.Published,
		CreatedAt: null.NewTime(p.CreatedAt.UTC(), !p.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(p.UpdatedAt.UTC(), !p.UpdatedAt.IsZero()),
	}
}

func (repo contentRepository) unpackPost(row postRow) content.Post {
	return content.Post{
		ID:        row.ID,
		Title:     row.Title,
		Slug:      row.Slug,
		Body:      row.Body,
		ImageURL:  row.ImageURL.String,
		Position:  row.Position,
		Published: row.Published,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func (repo contentRepository) CreatePost(ctx context.Context, p content.Post, exec ...core.DBExecutor) (content.Post, error) {
	p.ID = uuid.New().String()
	row := repo.packPost(p)

	sqlQ, args, err := psql.Insert("post").Columns(postColumns...).Values(
		row.ID, row.Title, row.Slug, row.Body, row.ImageURL, row.Position,
		row.Published, row.CreatedAt, row.UpdatedAt,
	).ToSql()
	if err != nil {
		return content.Post{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.ext(exec).ExecContext(ctx, sqlQ, args...); err != nil {
		if isUniqueViolation(err, "post_slug_key") {
			return content.Post{}, content.ErrSlugExists
		}
		return content.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo contentRepository) getPost(ctx context.Context, pred sq.Eq, exec []core.DBExecutor) (content.Post, error) {
	sqlQ, args, err := psql.Select(postColumns...).From("post").Where(pred).ToSql()
	if err != nil {
		return content.Post{}, errors.Wrap(err, "building get query")
	}
	var row postRow
	if err = sqlx.GetContext(ctx, repo.ext(exec), &row, sqlQ, args...); err != nil {
		return content.Post{}, trapNoRowsErr(err, content.ErrPostNotFound, "finding post")
	}
	return repo.unpackPost(row), nil
}

func (repo contentRepository) GetPostByID(ctx context.Context, id string, exec ...core.DBExecutor) (content.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return content.Post{}, content.ErrPostNotFound
	}
	return repo.getPost(ctx, sq.Eq{"id": id}, exec)
}

func (repo contentRepository) GetPostBySlug(ctx context.Context, sl string, exec ...core.DBExecutor) (content.Post, error) {
	return repo.getPost(ctx, sq.Eq{"slug": sl}, exec)
}

func (repo contentRepository) QueryPosts(ctx context.Context, publishedOnly bool, exec ...core.DBExecutor) ([]content.Post, error) {
	q := psql.Select(postColumns...).From("post")
	if publishedOnly {
		q = q.Where(sq.Eq{"published": true})
	}
	q = q.OrderBy("position ASC")

	sqlQ, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []postRow
	if err = sqlx.SelectContext(ctx, repo.ext(exec), &rows, sqlQ, args...); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}

	posts := make([]content.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, repo.unpackPost(row))
	}
	return posts, nil
}

func (repo contentRepository) UpdatePost(ctx context.Context, p content.Post, exec ...core.DBExecutor) (content.Post, error) {
	row := repo.packPost(p)

	sqlQ, args, err := psql.Update("post").
		SetMap(map[string]interface{}{
			"title":      row.Title,
			"slug":       row.Slug,
			"body":       row.Body,
			"image_url":  row.ImageURL,
			"published":  row.Published,
			"updated_at": row.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return content.Post{}, errors.Wrap(err, "building update query")
	}

	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		if isUniqueViolation(err, "post_slug_key") {
			return content.Post{}, content.ErrSlugExists
		}
		return content.Post{}, errors.Wrap(err, "updating post")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return content.Post{}, content.ErrPostNotFound
	}
	return p, nil
}

func (repo contentRepository) DeletePostsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	sqlQ, args, err := psql.Delete("post").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting posts")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

// ReorderPosts rewrites positions to follow the given ID order, in one
// transaction so a partial reorder never becomes visible.
func (repo contentRepository) ReorderPosts(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for pos, id := range ids {
		sqlQ, args, err := psql.Update("post").
			Set("position", pos).
			Set("updated_at", now).
			Where(sq.Eq{"id": id}).
			ToSql()
		if err != nil {
			return errors.Wrap(err, "building reorder query")
		}
		if _, err = tx.ExecContext(ctx, sqlQ, args...); err != nil {
			return errors.Wrap(err, "reordering posts")
		}
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo contentRepository) NextPostPosition(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	var pos int
	err := sqlx.GetContext(ctx, repo.ext(exec), &pos, "SELECT COALESCE(MAX(position) + 1, 0) FROM post")
	if err != nil {
		return 0, errors.Wrap(err, "finding next post position")
	}
	return pos, nil
}

func (repo contentRepository) CreateNotification(ctx context.Context, n content.Notification, exec ...core.DBExecutor) (content.Notification, error) {
	n.ID = uuid.New().String()

	sqlQ, args, err := psql.Insert("notification").Columns(notificationColumns...).Values(
		n.ID, n.Title, n.Body, null.NewTime(n.CreatedAt.UTC(), !n.CreatedAt.IsZero()),
	).ToSql()
	if err != nil {
		return content.Notification{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.ext(exec).ExecContext(ctx, sqlQ, args...); err != nil {
		return content.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo contentRepository) QueryNotifications(ctx context.Context, exec ...core.DBExecutor) ([]content.Notification, error) {
	sqlQ, args, err := psql.Select(notificationColumns...).From("notification").
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []notificationRow
	if err = sqlx.SelectContext(ctx, repo.ext(exec), &rows, sqlQ, args...); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}

	notifs := make([]content.Notification, 0, len(rows))
	for _, row := range rows {
		notifs = append(notifs, content.Notification{
			ID:        row.ID,
			Title:     row.Title,
			Body:      row.Body,
			CreatedAt: row.CreatedAt.Time,
		})
	}
	return notifs, nil
}

func (repo contentRepository) DeleteNotificationsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	sqlQ, args, err := psql.Delete("notification").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting notifications")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
