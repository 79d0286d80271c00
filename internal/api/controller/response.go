package controller

import (
	"errors"
	"net/http"

	"github.com/bassista/go_quill/internal/model"
	"github.com/bassista/go_quill/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func respond[T any](c *gin.Context, status int, data T, message string) {
	c.JSON(status, model.Envelope[T]{Success: true, Data: data, Message: message})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, model.Envelope[any]{Success: true, Message: message})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, model.Envelope[any]{Success: false, Message: message, Error: message})
}

// failStore maps a repository error onto the response. what names the
// resource in messages ("Type"); verb is used for the generic 500 message.
func failStore(c *gin.Context, log *logrus.Entry, err error, what, verb string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		fail(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, repository.ErrConflict):
		fail(c, http.StatusConflict, what+" already exists")
	case errors.Is(err, repository.ErrInvalidReference):
		fail(c, http.StatusBadRequest, "A referenced record does not exist")
	case c.Request.Context().Err() != nil:
		// RequestTimeout answers 504 once the handler returns.
		log.Debugf("%s %s: request context done: %v", verb, what, err)
	default:
		log.Errorf("%s %s: %v", verb, what, err)
		fail(c, http.StatusInternalServerError, "Failed to "+verb+" "+lower(what))
	}
}

func lower(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// chain returns guards followed by h in a fresh slice.
func chain(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}
