// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes shared by every endpoint and the
// helpers that write them. Success bodies look like
//
//	{ "status": "success", "message": "...", "data": ..., "pagenation": {...} }
//
// where message and pagenation are optional. The "pagenation" spelling is
// part of the public contract. Error bodies are written only by
// ErrorTranslator (see errors.go).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope is the success body of every endpoint that returns content.
//
// omitempty on Data only drops a nil interface. A typed nil slice stored in
// Data still encodes as null, so list responses go through okPage, which
// substitutes an empty slice.
type Envelope struct {
	Status     string      `json:"status" example:"success"`
	Message    string      `json:"message,omitempty" example:"Users fetched successfully"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagenation,omitempty"`
}

// Pagination carries page metadata for list responses.
type Pagination struct {
	Page       int   `json:"page" example:"1"`
	Total      int64 `json:"total" example:"25"`
	TotalPages int   `json:"totalPages" example:"3"`
	Limit      int   `json:"limit" example:"10"`
}

// ErrorResponse is the error body written by ErrorTranslator.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"User not found"`
	// Correlates server logs and client errors
	RequestID string `json:"requestId,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
}

// TokenData is the data member of a successful log-in.
type TokenData struct {
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// ok writes a success envelope with the given status.
func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Status: statusSuccess, Message: message, Data: data})
}

// okPage writes a success envelope with pagination metadata. A nil items
// slice is written as [].
func okPage[T any](c *gin.Context, message string, items []T, p Pagination) {
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, Envelope{Status: statusSuccess, Message: message, Data: items, Pagination: &p})
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
