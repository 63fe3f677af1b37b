package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"causebridge/internal/domain"
)

const (
	maxNameLen = 120
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// validate is shared by every service.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkInput runs the struct tags of in and reports the first failing field
// as a validation error.
func checkInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return domain.Internal("validate input", err)
	}
	return domain.Validation(fieldMessage(fields[0]))
}

func fieldMessage(fe validator.FieldError) string {
	// drop the struct name: RegisterInput.locations[0].latitude
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is malformed"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, layoutNames[fe.Param()])
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

var layoutNames = map[string]string{dateLayout: "YYYY-MM-DD", timeLayout: "HH:MM"}

type LocationInput struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	ContactNo string  `json:"contact_no"`
}

// buildLocations expects in to have passed checkInput already.
func buildLocations(in []LocationInput) []domain.Location {
	out := make([]domain.Location, 0, len(in))
	for _, l := range in {
		out = append(out, domain.Location{
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Address:   strings.TrimSpace(l.Address),
			City:      strings.TrimSpace(l.City),
			Country:   strings.TrimSpace(l.Country),
			ContactNo: strings.TrimSpace(l.ContactNo),
		})
	}
	return out
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", domain.Validation("name is required")
	case len(name) > maxNameLen:
		return "", domain.Validationf("name must be at most %d characters", maxNameLen)
	}
	return name, nil
}

func checkYearEst(v *int, now time.Time) error {
	if v != nil && (*v < 1800 || *v > now.Year()) {
		return domain.Validationf("year_est must be between 1800 and %d", now.Year())
	}
	return nil
}

// entryDate parses an optional YYYY-MM-DD, defaulting to the current UTC day.
func entryDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, domain.Validation("date must match YYYY-MM-DD")
	}
	return t, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
