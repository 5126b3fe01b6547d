// Package apierror maps domain errors to the JSON error responses shared by
// the public and admin APIs.
package apierror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/crud"
	"github.com/Zachkp/portfolio/internal/objectstore"
	"github.com/Zachkp/portfolio/internal/remote"
)

// GenericMessage is shown when the backend gave no usable message.
const GenericMessage = "Something went wrong while talking to the backend. Please try again."

// Status picks the HTTP status for err.
func Status(err error) int {
	var bnf *objectstore.BucketNotFoundError

	switch {
	case errors.Is(err, crud.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	case errors.As(err, &bnf):
		return http.StatusFailedDependency
	case errors.Is(err, crud.ErrValidation),
		errors.Is(err, remote.ErrValidation),
		errors.Is(err, objectstore.ErrInvalidFile):
		return http.StatusBadRequest
	case errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, remote.ErrNotConfigured),
		errors.Is(err, objectstore.ErrNotConfigured),
		errors.Is(err, contact.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// message strips our sentinel prefixes so users see the actionable part.
func message(err error) string {
	var rerr *remote.Error
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	msg := err.Error()
	for _, sentinel := range []error{crud.ErrValidation, objectstore.ErrInvalidFile} {
		if errors.Is(err, sentinel) {
			if i := strings.Index(msg, sentinel.Error()+": "); i >= 0 {
				return msg[i+len(sentinel.Error())+2:]
			}
		}
	}
	return msg
}

// Write renders err once and logs it. Client errors log at warn, backend
// failures at error.
func Write(c *gin.Context, log *zap.Logger, err error) {
	status := Status(err)
	body := gin.H{"ok": false}

	var bnf *objectstore.BucketNotFoundError
	switch {
	case status == http.StatusPreconditionRequired:
		body["error"] = "confirmation required"
		body["prompt"] = crud.ConfirmPrompt
	case errors.As(err, &bnf):
		body["error"] = bnf.Error()
		body["bucket"] = bnf.Bucket
		body["steps"] = bnf.Steps()
		body["instructions"] = bnf.Instructions()
	case status == http.StatusBadGateway:
		var rerr *remote.Error
		if errors.As(err, &rerr) && rerr.Message != "" {
			body["error"] = rerr.Message
		} else {
			body["error"] = GenericMessage
		}
	default:
		body["error"] = message(err)
	}

	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= 500 || status == http.StatusFailedDependency {
		log.Error("request failed", fields...)
	} else {
		log.Warn("request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

// BadRequest answers 400 for malformed input caught by the handler itself.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}
