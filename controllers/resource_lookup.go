package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondLookupError maps a lookup failure to 400, 404 or 500.
func respondLookupError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, errInvalidIdentifier):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": capitalize(what) + " not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve " + what})
	}
}

func respondValidation(c *gin.Context, errorMessages map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"status": http.StatusUnprocessableEntity,
		"error":  errorMessages,
	})
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
