package domain_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_ValidateSuccess(t *testing.T) {
	f, err := domain.Form{Name: "  GitHub ", URL: " github.com ", Category: domain.CategoryWork}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "GitHub", f.Name)
	assert.Equal(t, "github.com", f.URL)
}

func TestForm_ValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		form    domain.Form
		field   string
		message string
	}{
		{
			name:    "missing name",
			form:    domain.Form{Name: "   ", URL: "github.com", Category: domain.CategoryWork},
			field:   "name",
			message: domain.MsgNameRequired,
		},
		{
			name:    "missing url",
			form:    domain.Form{Name: "GitHub", Category: domain.CategoryWork},
			field:   "url",
			message: domain.MsgURLRequired,
		},
		{
			name:    "malformed url",
			form:    domain.Form{Name: "GitHub", URL: "not a url", Category: domain.CategoryWork},
			field:   "url",
			message: domain.MsgURLInvalid,
		},
		{
			name:    "missing category",
			form:    domain.Form{Name: "GitHub", URL: "github.com"},
			field:   "category",
			message: domain.MsgCategoryRequired,
		},
		{
			name:    "unknown category",
			form:    domain.Form{Name: "GitHub", URL: "github.com", Category: "Gaming"},
			field:   "category",
			message: domain.MsgCategoryRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.form.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalid))

			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, http.StatusBadRequest, de.Kind.HTTPStatus())
			assert.Equal(t, tt.message, de.Details[tt.field])
		})
	}
}

func TestForm_ValidateReportsEveryField(t *testing.T) {
	_, err := domain.Form{}.Validate()

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Len(t, de.Details, 3)
}

func TestNewFormDefaultsToWork(t *testing.T) {
	assert.Equal(t, domain.CategoryWork, domain.NewForm().Category)
	assert.Equal(t, domain.CategoryWork, domain.DraftFromTab("t", "u").Category)
}

func TestForm_ToRecord(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	rec := domain.Form{Name: "GitHub", URL: "github.com", Category: domain.CategoryWork}.
		ToRecord("user-1", "site-1", now)

	assert.Equal(t, "user-1", rec.OwnerID)
	assert.Equal(t, "site-1", rec.RecordID)
	assert.Equal(t, "https://github.com", rec.TargetURL)
	assert.Equal(t, time.UTC, rec.AddedAt.Location())
}

func TestForm_ToNewWebsite(t *testing.T) {
	w := domain.Form{Name: "Docs", URL: "http://docs.example.com", Category: domain.CategoryLearning}.ToNewWebsite()

	assert.Equal(t, "http://docs.example.com", w.URL)
	assert.Equal(t, []domain.Category{domain.CategoryLearning}, w.Categories)
	assert.Equal(t, domain.StatusActive, w.Status)
}
