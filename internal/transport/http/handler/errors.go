package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/citymarket/marketplace/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	errInternalServer     = "Internal server error"
	errInvalidBody        = "Invalid request body"
	errValidationFailed   = "Validation failed"
	errUnauthorized       = "Unauthorized"
	errInvalidCredentials = "Invalid email or password"
	errEmailTaken         = "An account with this email already exists"
	errPhoneTaken         = "An account with this phone number already exists"
	errInvalidCity        = "Invalid city selected"
	errCityNotFound       = "City not found"

	errScopeRequired       = "cityId is required. Listings are scoped by city."
	errCityListingNotFound = "Listing not found or does not belong to this city"
	errListingNotFound     = "Listing not found"
	errInvalidCategory     = "Invalid category selected"
	errImageRequired       = "Image file is required"
	errImageTooLarge       = "Image must be 5MB or smaller"
	errNotAnImage          = "File must be a JPEG, PNG, WebP or GIF image"
	errUploadsDisabled     = "Image uploads are not available"
)

var fieldNamesOnce sync.Once

// useJSONFieldNames makes validator report fields by their json tag, so
// error details use the same names clients send.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindJSON decodes and validates the body. On failure it writes the 400
// response itself and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	fieldNamesOnce.Do(useJSONFieldNames)

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = append(details[fe.Field()], fieldMessage(fe))
		}
		writeValidation(c, details)
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody})
	return false
}

func writeValidation(c *gin.Context, details map[string][]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": errValidationFailed, "details": details})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email address"
	case "url":
		return "Must be a valid URL"
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at least %s items", fe.Param())
		}
		return "Must be at least " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at most %s items", fe.Param())
		}
		return "Must be at most " + fe.Param()
	default:
		return "Invalid value"
	}
}

// writeUsecaseError maps errors shared by every handler. It returns false
// for errors the caller must handle itself.
func writeUsecaseError(c *gin.Context, err error) bool {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(c, verr.Fields)
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
	case errors.Is(err, domain.ErrScopeRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": errScopeRequired})
	case errors.Is(err, domain.ErrInvalidCategory):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCategory})
	default:
		return false
	}
	return true
}
