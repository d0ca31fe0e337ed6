package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/content"
)

type contentRepository struct {
	postDB  *postTable
	notifDB *notificationTable
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{postDB: db.post, notifDB: db.notification}
}

func (repo *contentRepository) CreatePost(_ context.Context, p content.Post, _ ...core.DBExecutor) (content.Post, error) {
	repo.postDB.Lock()
	defer repo.postDB.Unlock()

	for _, existing := range repo.postDB.table {
		if existing.Slug == p.Slug {
			return content.Post{}, content.ErrSlugExists
		}
	}
	p.ID = uuid.New().String()
	repo.postDB.table[p.ID] = &p
	return p, nil
}

func (repo *contentRepository) GetPostByID(_ context.Context, id string, _ ...core.DBExecutor) (content.Post, error) {
	repo.postDB.RLock()
	defer repo.postDB.RUnlock()

	if p, ok := repo.postDB.table[id]; ok {
		return *p, nil
	}
	return content.Post{}, content.ErrPostNotFound
}

func (repo *contentRepository) GetPostBySlug(_ context.Context, sl string, _ ...core.DBExecutor) (content.Post, error) {
	repo.postDB.RLock()
	defer repo.postDB.RUnlock()

	for _, p := range repo.postDB.table {
		if p.Slug == sl {
			return *p, nil
		}
	}
	return content.Post{}, content.ErrPostNotFound
}

func (repo *contentRepository) QueryPosts(_ context.Context, publishedOnly bool, _ ...core.DBExecutor) ([]content.Post, error) {
	repo.postDB.RLock()
	defer repo.postDB.RUnlock()

	posts := make([]content.Post, 0, len(repo.postDB.table))
	for _, p := range repo.postDB.table {
		if publishedOnly && !p.Published {
			continue
		}
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Position < posts[j].Position })
	return posts, nil
}

func (repo *contentRepository) UpdatePost(_ context.Context, p content.Post, _ ...core.DBExecutor) (content.Post, error) {
	repo.postDB.Lock()
	defer repo.postDB.Unlock()

	if _, ok := repo.postDB.table[p.ID]; !ok {
		return content.Post{}, content.ErrPostNotFound
	}
	for _, existing := range repo.postDB.table {
		if existing.ID != p.ID && existing.Slug == p.Slug {
			return content.Post{}, content.ErrSlugExists
		}
	}
	repo.postDB.table[p.ID] = &p
	return p, nil
}

func (repo *contentRepository) DeletePostsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.postDB.Lock()
	defer repo.postDB.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.postDB.table[id]; ok {
			delete(repo.postDB.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *contentRepository) ReorderPosts(_ context.Context, ids []string, _ ...core.DBExecutor) error {
	repo.postDB.Lock()
	defer repo.postDB.Unlock()

	now := time.Now().UTC()
	for pos, id := range ids {
		if p, ok := repo.postDB.table[id]; ok {
			p.Position = pos
			p.UpdatedAt = now
		}
	}
	return nil
}

func (repo *contentRepository) NextPostPosition(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.postDB.RLock()
	defer repo.postDB.RUnlock()

	next := 0
	for _, p := range repo.postDB.table {
		if p.Position >= next {
			next = p.Position + 1
		}
	}
	return next, nil
}

func (repo *contentRepository) CreateNotification(_ context.Context, n content.Notification, _ ...core.DBExecutor) (content.Notification, error) {
	repo.notifDB.Lock()
	defer repo.notifDB.Unlock()

	n.ID = uuid.New().String()
	repo.notifDB.table[n.ID] = &n
	return n, nil
}

func (repo *contentRepository) QueryNotifications(_ context.Context, _ ...core.DBExecutor) ([]content.Notification, error) {
	repo.notifDB.RLock()
	defer repo.notifDB.RUnlock()

	notifs := make([]content.Notification, 0, len(repo.notifDB.table))
	for _, n := range repo.notifDB.table {
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[j].CreatedAt.Before(notifs[i].CreatedAt) })
	return notifs, nil
}

func (repo *contentRepository) DeleteNotificationsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.notifDB.Lock()
	defer repo.notifDB.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.notifDB.table[id]; ok {
			delete(repo.notifDB.table, id)
			cnt++
		}
	}
	return cnt, nil
}
