package domain

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateSettings enforces field ranges and the contact-channel
// dependencies: email when notifyEmail is on, phone and phoneProvider when
// notifyPhone is on.
func ValidateSettings(s UserSettings) error {
	return structErrors(validate.Struct(s))
}

// ValidateUserEvent checks a personal calendar entry.
func ValidateUserEvent(e UserEvent) error {
	return structErrors(validate.Struct(e))
}

// NearQuery is a radius search around a point.
type NearQuery struct {
	Lat      float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon      float64 `json:"lon" validate:"gte=-180,lte=180"`
	RadiusKm float64 `json:"radius" validate:"gte=0"`
}

// ValidateNearQuery rejects out-of-range coordinates and negative, NaN or
// infinite radii.
func ValidateNearQuery(q NearQuery) error {
	if err := structErrors(validate.Struct(q)); err != nil {
		return err
	}
	if math.IsInf(q.RadiusKm, 0) {
		return NewValidationError("radius", "must be finite")
	}
	return nil
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "len":
		return fmt.Sprintf("must be %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte", "lte":
		return fmt.Sprintf("out of range (%s %s)", fe.Tag(), fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return "failed " + fe.Tag()
	}
}

// ValidateEvent checks a generated event against the type table and the
// generation window anchored at generatedAt.
func ValidateEvent(e AstronomicalEvent, generatedAt time.Time) error {
	if e.ID == "" {
		return NewValidationError("id", "is required")
	}
	r, ok := RangeFor(e.Type)
	if !ok {
		return NewValidationError("type", fmt.Sprintf("unknown event type %q", e.Type))
	}
	if e.Location.Type != GeoJSONPoint {
		return NewValidationError("location.type", "must be Point")
	}
	if !r.Contains(e.Location.Coordinates) {
		return NewValidationError("location", fmt.Sprintf("[%f, %f] outside %s range", e.Location.Lon(), e.Location.Lat(), e.Type))
	}
	if !e.EndDate.After(e.StartDate) {
		return NewValidationError("endDate", "must be after startDate")
	}
	if !e.StartDate.After(generatedAt) {
		return NewValidationError("startDate", "must be after generation time")
	}
	if e.StartDate.Sub(generatedAt) > (maxStartDays+1)*24*time.Hour {
		return NewValidationError("startDate", "more than 8 days after generation time")
	}
	if e.EndDate.Sub(e.StartDate) > (maxSpanDays+1)*24*time.Hour {
		return NewValidationError("endDate", "span longer than 6 days")
	}
	if !slices.Contains(eventNames[e.Type], e.Name) {
		return NewValidationError("name", fmt.Sprintf("%q is not a %s name", e.Name, e.Type))
	}
	return nil
}
