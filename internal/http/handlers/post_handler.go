// Post HTTP handlers.
//
// This file exposes REST endpoints for posts:
//   - GET    /posts       (list, paginated)
//   - GET    /posts/{id}  (fetch)
//   - POST   /posts       (create, optionally idempotent)
//   - PUT    /posts/{id}  (partial update)
//   - DELETE /posts/{id}  (remove)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous create with
// the same key succeeded within the TTL, the recorded post is returned again
// and the response carries `Idempotency-Replayed: true`.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-users-posts-api/internal/http/middleware"
	"github.com/tbourn/go-users-posts-api/internal/repo"
	"github.com/tbourn/go-users-posts-api/internal/services"
)

// ListPosts godoc
// @ID          listPosts
// @Summary     List posts
// @Description Returns posts newest first, each with its author summary.
// @Tags        Posts
// @Produce     json
// @Param       page   query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.Envelope{data=[]domain.Post}
// @Failure     400  {object}  handlers.ErrorResponse  "Bad pagination"
// @Router      /posts [get]
func (h *Handlers) ListPosts(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		abort(c, err)
		return
	}
	items, total, err := h.postSvc.List(c.Request.Context(), page, limit)
	if err != nil {
		abort(c, err)
		return
	}
	okPage(c, "", items, pagination(page, limit, total))
}

// GetPost godoc
// @ID          getPost
// @Summary     Get a post
// @Tags        Posts
// @Produce     json
// @Param       id   path      string  true  "Post ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.Envelope{data=domain.Post}
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [get]
func (h *Handlers) GetPost(c *gin.Context) {
	p, err := h.postSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	ok(c, http.StatusOK, "", p)
}

// CreatePost godoc
// @ID          createPost
// @Summary     Create a post
// @Description Supports idempotency via the Idempotency-Key header (same key → same post).
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header    string                      false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body      handlers.CreatePostRequest  true   "Post payload"
// @Success     201              {object}  handlers.Envelope{data=domain.Post}
// @Failure     400              {object}  handlers.ErrorResponse  "Validation failure"
// @Router      /posts [post]
func (h *Handlers) CreatePost(c *gin.Context) {
	req, _ := middleware.Payload[CreatePostRequest](c)
	key, _ := middleware.GetIdempotencyKey(c)

	p, replayed, err := h.postSvc.Create(c.Request.Context(), services.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		UserID:  req.UserID,
	}, middleware.IdempotencyScope(c), key)
	if err != nil {
		abort(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusCreated, "", p)
}

// UpdatePost godoc
// @ID          updatePost
// @Summary     Update a post
// @Tags        Posts
// @Accept      json
// @Produce     json
// @Param       id    path      string                      true  "Post ID (UUID)"  format(uuid)
// @Param       body  body      handlers.UpdatePostRequest  true  "Fields to change"
// @Success     200   {object}  handlers.Envelope{data=domain.Post}
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed id or validation failure"
// @Failure     404   {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [put]
func (h *Handlers) UpdatePost(c *gin.Context) {
	req, _ := middleware.Payload[UpdatePostRequest](c)

	p, err := h.postSvc.Update(c.Request.Context(), c.Param("id"), repo.PostPatch{
		Title:   req.Title,
		Content: req.Content,
		UserID:  req.UserID,
	})
	if err != nil {
		abort(c, err)
		return
	}
	ok(c, http.StatusOK, "", p)
}

// DeletePost godoc
// @ID          deletePost
// @Summary     Delete a post
// @Tags        Posts
// @Param       id   path  string  true  "Post ID (UUID)"  format(uuid)
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "Post not found"
// @Router      /posts/{id} [delete]
func (h *Handlers) DeletePost(c *gin.Context) {
	if err := h.postSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	noContent(c)
}
