package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"contactcleaner/internal/contacts/pipeline"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// CleanRequest selects the stages to run. Unknown option names are accepted and ignored by the runner.
type CleanRequest struct {
	CleaningOptions []string `json:"cleaning_options" validate:"required,min=1,dive,required,max=64"`
}

func (r *CleanRequest) StageIDs() []model.StageID {
	return pipeline.ParseStageIDs(r.CleaningOptions)
}

type CleanRequestValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCleanRequestValidator(log *logger.Logger) *CleanRequestValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &CleanRequestValidator{
		validate: v,
		logger:   log,
	}
}

func (v *CleanRequestValidator) Validate(req *CleanRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *CleanRequestValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			if err.Field() == "cleaning_options" {
				message = "select at least one cleaning option"
			} else {
				message = fmt.Sprintf("%s cannot be empty", err.Field())
			}
		case "min":
			message = "select at least one cleaning option"
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	v.logger.Debug("Clean request rejected", "errors", len(validationErrors))
	return validationErrors
}
