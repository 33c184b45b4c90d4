package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"realty-marketplace/internal/apperr"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an infrastructure failure and stays a generic 500.
func respondError(c *gin.Context, err error) {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		body := gin.H{"error": domainErr.Message, "kind": domainErr.Kind}
		if domainErr.Field != "" {
			body["field"] = domainErr.Field
		}
		c.JSON(statusForKind(domainErr.Kind), body)
		return
	}

	log.Printf("[API] internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case apperr.KindAuthorization:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
