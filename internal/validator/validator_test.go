package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string  `json:"email" validate:"required,email"`
	Username string  `form:"username" validate:"omitempty,username"`
	Phone    *string `json:"phone_number" validate:"omitempty,phone"`
	Start    string  `json:"start_date" validate:"omitempty,date"`
}

func TestValidate_FieldNamesFromTags(t *testing.T) {
	v := New()
	bad := "abc"
	err := v.Validate(&sample{Email: "nope", Username: "has space", Phone: &bad, Start: "2024-13-01"})

	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Must be a valid email address", vErr.Errors["email"])
	assert.Contains(t, vErr.Errors, "username")
	assert.Contains(t, vErr.Errors, "phone_number")
	assert.Contains(t, vErr.Errors, "start_date")
}

func TestValidate_Passes(t *testing.T) {
	phone := "+33 6 12-34-56-78"
	assert.NoError(t, New().Validate(&sample{Email: "a@b.co", Username: "john.doe+1", Phone: &phone, Start: "2024-02-29"}))
}

func TestValidateVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.ValidateVar("banner_url", "https://cdn.example.com/b.png", "url"))

	err := v.ValidateVar("banner_url", "not a url", "url")
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "Must be a valid URL", vErr.Errors["banner_url"])
}
