package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rebornapp/reborn-golang/internal/apperr"
)

// respondError maps the error taxonomy to HTTP exactly once. Anything that
// is not an apperr reaches the wire as a generic 500.
func respondError(c *gin.Context, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Internal("Internal server error", err)
	}

	switch ae.Kind {
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": ae.Message})
	case apperr.KindConflict:
		c.JSON(http.StatusBadRequest, gin.H{"error": ae.Message})
	case apperr.KindValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ae.Message, "errors": ae.Fields})
	case apperr.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": ae.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": ae.Message})
	}
}

// bindError turns gin binding failures into the taxonomy: validator errors
// become a 422 with per-field messages, everything else (malformed JSON,
// type mismatches) a 400.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := map[string][]string{}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], fieldMessage(fe))
		}
		return apperr.Validation(fields)
	}
	return apperr.Conflict("Invalid request body")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	case "datetime":
		return "Must be a valid date (YYYY-MM-DD)"
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	default:
		return "Invalid value"
	}
}
