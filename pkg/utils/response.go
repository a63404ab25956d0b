package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response envelope used by every JSON endpoint.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PaginatedResponse wraps list payloads with the next-page cursor. An empty
// NextCursor means the client has reached the end.
type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Error writes a failure response with a user-legible message; the underlying
// error is logged by the caller, never leaked to the client.
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}

func PaginatedSuccess(c *gin.Context, data interface{}, nextCursor string) {
	c.JSON(http.StatusOK, PaginatedResponse{Success: true, Data: data, NextCursor: nextCursor})
}
