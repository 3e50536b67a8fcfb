package domain

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// User-facing validation messages of the creation form.
const (
	MsgNameRequired     = "Website name is required"
	MsgURLRequired      = "URL is required"
	MsgURLInvalid       = "Please enter a valid URL"
	MsgCategoryRequired = "Please select a category"
)

// Form is the creation form as submitted by the popup or the CLI.
type Form struct {
	Name     string   `json:"name" validate:"required"`
	URL      string   `json:"url" validate:"required,siteurl"`
	Category Category `json:"category" validate:"required,category"`
}

// NewForm returns an empty form with the default category preselected.
func NewForm() Form {
	return Form{Category: DefaultCategory}
}

// DraftFromTab pre-populates a form from a browser tab.
func DraftFromTab(title, url string) Form {
	return Form{Name: title, URL: url, Category: DefaultCategory}
}

// FormValidator wraps go-playground/validator with the form's custom rules.
type FormValidator struct {
	v *validator.Validate
}

// NewFormValidator registers the siteurl and category rules and reports
// fields by their JSON names.
func NewFormValidator() *FormValidator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("siteurl", func(fl validator.FieldLevel) bool {
		return LooksLikeURL(fl.Field().String())
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})

	return &FormValidator{v: v}
}

var defaultValidator = NewFormValidator()

// Validate trims the form and checks it. Field messages are returned as
// details of an invalid error.
func (f Form) Validate() (Form, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.URL = strings.TrimSpace(f.URL)
	return f, defaultValidator.Validate(f)
}

// Validate checks a form and converts validator errors to a domain error.
func (fv *FormValidator) Validate(f Form) error {
	err := fv.v.Struct(f)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	details := make(map[string]string, len(fieldErrs))
	for _, e := range fieldErrs {
		details[e.Field()] = friendlyMessage(e)
	}
	return Invalid("validation failed", details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Field() {
	case "name":
		return MsgNameRequired
	case "url":
		if e.Tag() == "required" {
			return MsgURLRequired
		}
		return MsgURLInvalid
	case "category":
		return MsgCategoryRequired
	default:
		return "is invalid"
	}
}

// ToRecord builds the local record for a validated form.
func (f Form) ToRecord(ownerID, recordID string, now time.Time) Record {
	return Record{
		OwnerID:     ownerID,
		RecordID:    recordID,
		DisplayName: f.Name,
		TargetURL:   NormalizeURL(f.URL),
		Category:    f.Category,
		AddedAt:     now.UTC(),
	}
}

// ToNewWebsite builds the remote insert for a validated form.
func (f Form) ToNewWebsite() NewWebsite {
	return NewWebsite{
		Name:       f.Name,
		URL:        NormalizeURL(f.URL),
		Categories: []Category{f.Category},
		Status:     StatusActive,
	}
}
