// User HTTP handlers.
//
// This file exposes REST endpoints for user accounts:
//   - POST   /users/signup  (register a regular user)
//   - POST   /users/login   (exchange credentials for a bearer token)
//   - GET    /users         (list active users, paginated, ETag support)
//   - GET    /users/{id}    (fetch)
//   - PATCH  /users/{id}    (partial update of name/email)
//   - DELETE /users/{id}    (remove)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-users-posts-api/internal/http/middleware"
	"github.com/tbourn/go-users-posts-api/internal/repo"
	"github.com/tbourn/go-users-posts-api/internal/services"
)

// SignUp godoc
// @ID          signUp
// @Summary     Register a user
// @Description Creates a regular user. The password is stored hashed and never returned.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.SignUpRequest  true  "Sign-up payload"
// @Success     201   {object}  handlers.Envelope{data=domain.User}
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failure or duplicate email"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many requests"
// @Router      /users/signup [post]
func (h *Handlers) SignUp(c *gin.Context) {
	req, _ := middleware.Payload[SignUpRequest](c)

	u, err := h.userSvc.SignUp(c.Request.Context(), services.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		abort(c, err)
		return
	}
	ok(c, http.StatusCreated, "User created successfully", u)
}

// LogIn godoc
// @ID          logIn
// @Summary     Log in
// @Description Verifies credentials and returns a bearer token valid for one hour.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LogInRequest  true  "Credentials"
// @Success     200   {object}  handlers.Envelope{data=handlers.TokenData}
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid email/password combination"
// @Failure     429   {object}  handlers.ErrorResponse  "Too many requests"
// @Router      /users/login [post]
func (h *Handlers) LogIn(c *gin.Context) {
	req, _ := middleware.Payload[LogInRequest](c)

	token, err := h.userSvc.LogIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abort(c, err)
		return
	}
	ok(c, http.StatusOK, "User logged in successfully", TokenData{Token: token})
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List active users
// @Description Returns active users, newest first. Supports If-None-Match.
// @Tags        Users
// @Produce     json
// @Security    BearerAuth
// @Param       page   query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.Envelope{data=[]domain.User}
// @Success     304  "Not modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad pagination"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     403  {object}  handlers.ErrorResponse  "Role not permitted"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()

	page, limit, err := parsePagination(c)
	if err != nil {
		abort(c, err)
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.userSvc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"users:%d:%d:%d:%d"`, count, ts, page, limit)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.userSvc.List(ctx, page, limit)
	if err != nil {
		abort(c, err)
		return
	}
	okPage(c, "Users fetched successfully", items, pagination(page, limit, total))
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id   path      string  true  "User ID (UUID)"  format(uuid)
// @Success     200  {object}  handlers.Envelope{data=domain.User}
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	ok(c, http.StatusOK, "User fetched successfully", u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update a user
// @Description Changes name and/or email. Other fields are ignored.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       id    path      string                      true  "User ID (UUID)"  format(uuid)
// @Param       body  body      handlers.UpdateUserRequest  true  "Fields to change"
// @Success     200   {object}  handlers.Envelope{data=domain.User}
// @Failure     400   {object}  handlers.ErrorResponse  "Malformed id, validation failure or duplicate email"
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [patch]
func (h *Handlers) UpdateUser(c *gin.Context) {
	req, _ := middleware.Payload[UpdateUserRequest](c)

	u, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), repo.UserPatch{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		abort(c, err)
		return
	}
	ok(c, http.StatusOK, "User updated successfully", u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user
// @Tags        Users
// @Param       id   path  string  true  "User ID (UUID)"  format(uuid)
// @Success     204  "Deleted"
// @Failure     400  {object}  handlers.ErrorResponse  "Malformed id"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	noContent(c)
}
