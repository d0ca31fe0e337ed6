package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core/content"
)

type contentApi struct {
	svc      content.Service
	validate *validator.Validate
}

func registerContentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := contentApi{
		svc:      opts.ContentSvc,
		validate: opts.Validate,
	}

	admin := []echo.MiddlewareFunc{jwt, adminMiddleware()}

	pg := g.Group("/posts")
	pg.GET("", api.queryPosts)
	pg.GET("/:slug", api.retrievePost)
	// admin endpoints take route-level middleware; an empty-prefix sub-group
	// would register catch-alls that shadow the public listing
	pg.GET("/all", api.queryAllPosts, admin...)
	pg.POST("", api.createPost, admin...)
	pg.PUT("/reorder", api.reorderPosts, admin...)
	pg.PUT("/:id", api.updatePost, admin...)
	pg.DELETE("/:id", api.destroyPost, admin...)

	ng := g.Group("/notifications")
	ng.GET("", api.queryNotifications)
	ng.POST("", api.createNotification, admin...)
	ng.DELETE("/:id", api.destroyNotification, admin...)
}

// Post handlers

// queryPosts is the public listing: published posts only.
func (api *contentApi) queryPosts(ctx echo.Context) error {
	return api.listPosts(ctx, true)
}

// queryAllPosts is the dashboard listing: drafts included.
func (api *contentApi) queryAllPosts(ctx echo.Context) error {
	return api.listPosts(ctx, false)
}

func (api *contentApi) listPosts(ctx echo.Context, publishedOnly bool) error {
	posts, err := api.svc.QueryPosts(ctx.Request().Context(), publishedOnly)
	if err != nil {
		return errors.Wrap(err, "querying posts")
	}
	if posts == nil {
		posts = []content.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *contentApi) retrievePost(ctx echo.Context) error {
	post, err := api.svc.GetPostBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Cause(err) == content.ErrPostNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding post by slug")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *contentApi) createPost(ctx echo.Context) error {
	var data content.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.CreatePost(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *contentApi) updatePost(ctx echo.Context) error {
	var data content.UpdatePost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.UpdatePost(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == content.ErrPostNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, post)
}

func (api *contentApi) destroyPost(ctx echo.Context) error {
	if err := api.svc.DeletePosts(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *contentApi) reorderPosts(ctx echo.Context) error {
	var data content.PostOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PostOrder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ReorderPosts(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "reordering posts")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Notification handlers

func (api *contentApi) queryNotifications(ctx echo.Context) error {
	notifs, err := api.svc.QueryNotifications(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []content.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *contentApi) createNotification(ctx echo.Context) error {
	var data content.NewNotification
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotification")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	notif, err := api.svc.CreateNotification(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notification")
	}
	return ctx.JSON(http.StatusCreated, notif)
}

func (api *contentApi) destroyNotification(ctx echo.Context) error {
	if err := api.svc.DeleteNotifications(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}
