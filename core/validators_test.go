package core

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestIsValidRecipient(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{email: "", want: false},
		{email: "no-at-sign.az", want: false},
		{email: "@domain.az", want: false},
		{email: "user@", want: false},
		{email: "user@localhost", want: false},
		{email: "a@b@c.az", want: false},
		{email: "user@company.az", want: true},
		{email: "  first.last@mail.example.com ", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidRecipient(tt.email); got != tt.want {
				t.Errorf("IsValidRecipient(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestRecipientValidation(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type draft struct {
		To  string   `json:"to" validate:"recipient"`
		Cc  []string `json:"cc" validate:"omitempty,recipient"`
		Bcc []string `json:"bcc" validate:"omitempty,recipient"`
	}

	assert.NoError(t, validate.Struct(draft{To: "a@b.az"}))
	assert.NoError(t, validate.Struct(draft{To: "a@b.az", Cc: []string{"hr@b.az"}}))

	err := validate.Struct(draft{To: "a@b.az", Bcc: []string{"hr@b.az", "broken"}})
	if assert.Error(t, err) {
		flds := ValidationFieldErrors(err.(validator.ValidationErrors), translator)
		assert.Equal(t, []FieldError{{Field: "bcc", Error: "bcc is not a deliverable email address"}}, flds)
	}
}
