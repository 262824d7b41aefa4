package validator

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/snapreviews/snapreviews/pkg/errors"
)

type reviewInput struct {
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Body   string `json:"body" validate:"required,notblank"`
}

type businessInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Location string `json:"location" validate:"required"`
	Internal string `json:"-" validate:"omitempty,uuid"`
	Untagged string `validate:"omitempty,min=3"`
}

func TestValidate_Success(t *testing.T) {
	err := Validate(reviewInput{Rating: 4, Body: "Great coffee"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(businessInput{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "is required", fields["location"])
}

func TestValidate_FallsBackToStructFieldName(t *testing.T) {
	err := Validate(businessInput{Title: "t", Location: "l", Internal: "nope", Untagged: "ab"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be a valid UUID", fields["Internal"])
	assert.Equal(t, "must be at least 3 characters", fields["Untagged"])
}

func TestValidate_RatingRange(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		err := Validate(reviewInput{Rating: rating, Body: "ok"})
		require.Error(t, err, "rating %d", rating)

		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Contains(t, valErr.Fields(), "rating")
	}
	for _, rating := range []int{1, 3, 5} {
		assert.NoError(t, Validate(reviewInput{Rating: rating, Body: "ok"}), "rating %d", rating)
	}
}

func TestValidate_NotBlank(t *testing.T) {
	err := Validate(reviewInput{Rating: 3, Body: "   "})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must not be blank", valErr.Fields()["body"])
}

func TestValidate_MaxLength(t *testing.T) {
	err := Validate(businessInput{Title: strings.Repeat("x", 201), Location: "Venice, CA"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at most 200 characters", valErr.Fields()["title"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(businessInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'title'")
	assert.Contains(t, err.Error(), "is required")
}

func TestValidationError_IsInvalidInput(t *testing.T) {
	err := Validate(businessInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"rating":5,"body":"Best sandwich in town"}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var in reviewInput
	err := DecodeAndValidate(req, &in)

	require.NoError(t, err)
	assert.Equal(t, 5, in.Rating)
	assert.Equal(t, "Best sandwich in town", in.Body)
}

func TestDecodeAndValidate_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))

	var in reviewInput
	err := DecodeAndValidate(req, &in)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestDecodeAndValidate_ValidationFails(t *testing.T) {
	body := `{"rating":9,"body":""}`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))

	var in reviewInput
	err := DecodeAndValidate(req, &in)

	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Len(t, valErr.Fields(), 2)
}
