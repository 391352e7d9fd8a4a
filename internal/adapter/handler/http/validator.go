package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wekeepgrowing/semo-syslog/internal/domain/entity"
	apperrors "github.com/wekeepgrowing/semo-syslog/pkg/errors"
)

// RequestValidator implements echo.Validator with go-playground/validator.
// Failures are returned as *apperrors.ValidationError.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator registers the log-specific tags: loglevel, timerange and environment.
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseLevel(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("levelfilter", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.EqualFold(s, entity.AllLevels) {
			return true
		}
		_, ok := entity.ParseLevel(s)
		return ok
	})
	_ = v.RegisterValidation("timerange", func(fl validator.FieldLevel) bool {
		_, ok := entity.TimeRange(fl.Field().String()).Duration()
		return ok
	})
	_ = v.RegisterValidation("environment", func(fl validator.FieldLevel) bool {
		return entity.Environment(fl.Field().String()).Valid()
	})
	return &RequestValidator{validate: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.InvalidArgument("invalid request", err)
	}
	out := &apperrors.ValidationError{}
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe), fieldMessage(fe))
	}
	return out
}

// fieldPath drops the struct name from the namespace: createLogRequest.tags[0] -> tags[0].
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "loglevel":
		return "must be one of: " + joinLevels()
	case "levelfilter":
		return fmt.Sprintf("must be one of: %s, %s", entity.AllLevels, joinLevels())
	case "timerange":
		ranges := make([]string, len(entity.TimeRanges))
		for i, r := range entity.TimeRanges {
			ranges[i] = string(r)
		}
		return "must be one of: " + strings.Join(ranges, ", ")
	case "environment":
		envs := make([]string, len(entity.Environments))
		for i, e := range entity.Environments {
			envs[i] = string(e)
		}
		return "must be one of: " + strings.Join(envs, ", ")
	}
	return "is invalid"
}

func joinLevels() string {
	levels := make([]string, len(entity.Levels))
	for i, l := range entity.Levels {
		levels[i] = string(l)
	}
	return strings.Join(levels, ", ")
}
