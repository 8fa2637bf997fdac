package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamehub/backend/internal/apperr"
	"gamehub/backend/internal/models"
)

type reviewInput struct {
	Game   string `json:"game" validate:"required,objectid"`
	Rating *int   `json:"rating" validate:"required,min=1,max=10"`
	Title  string `json:"title" validate:"required,max=40"`
}

type trackInput struct {
	Status string `json:"status" validate:"omitempty,status"`
}

func intPtr(i int) *int { return &i }

func TestValidate_Passes(t *testing.T) {
	v := New()

	err := v.Validate(reviewInput{Game: models.NewID(), Rating: intPtr(8), Title: "Great"})
	assert.NoError(t, err)
}

func TestValidate_Messages(t *testing.T) {
	v := New()

	tests := []struct {
		name  string
		input reviewInput
		want  string
	}{
		{
			name:  "missing fields",
			input: reviewInput{},
			want:  "game is required, rating is required, title is required",
		},
		{
			name:  "bad id",
			input: reviewInput{Game: "123", Rating: intPtr(5), Title: "ok"},
			want:  "game must be a valid id",
		},
		{
			name:  "uppercase id",
			input: reviewInput{Game: strings.ToUpper(models.NewID()), Rating: intPtr(5), Title: "ok"},
			want:  "game must be a valid id",
		},
		{
			name:  "rating out of range",
			input: reviewInput{Game: models.NewID(), Rating: intPtr(11), Title: "ok"},
			want:  "rating must be at most 10",
		},
		{
			name:  "rating zero",
			input: reviewInput{Game: models.NewID(), Rating: intPtr(0), Title: "ok"},
			want:  "rating must be at least 1",
		},
		{
			name:  "title too long",
			input: reviewInput{Game: models.NewID(), Rating: intPtr(5), Title: "this title is definitely longer than forty characters"},
			want:  "title must be 40 characters or less",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, tt.want, err.(*apperr.Error).Message)
		})
	}
}

func TestNew_RegistersCustomTags(t *testing.T) {
	v := New()
	assert.NotPanics(t, func() {
		_ = v.v.Var(models.NewID(), "objectid")
		_ = v.v.Var("Owned", "status")
	})
	assert.NoError(t, v.v.Var(models.NewID(), "objectid"))
	assert.Error(t, v.v.Var("nope", "status"))
}

func TestValidate_Status(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(trackInput{}))
	assert.NoError(t, v.Validate(trackInput{Status: "Wishlisted"}))

	err := v.Validate(trackInput{Status: "Playing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status must be one of: Owned, Wishlisted, Unowned, Blacklisted")
}
