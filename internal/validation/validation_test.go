package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesona-id/pesona-backend/internal/apperror"
)

type sampleInput struct {
	Name  string  `json:"name" validate:"required,min=3,max=30"`
	Email *string `json:"email" validate:"omitempty,email"`
	Role  string  `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

func TestStructValid(t *testing.T) {
	email := "a@b.co"
	assert.NoError(t, Struct(sampleInput{Name: "valid", Email: &email, Role: "USER"}))
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	bad := "not-an-email"
	err := Struct(sampleInput{Name: "x", Email: &bad, Role: "ROOT"})
	require.Error(t, err)

	appErr := apperror.From(err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	require.Len(t, appErr.Fields, 3)

	forms := map[string]string{}
	for _, f := range appErr.Fields {
		forms[f.Form] = f.Message
	}
	assert.Equal(t, "name must be at least 3 characters long", forms["name"])
	assert.Equal(t, "invalid email format", forms["email"])
	assert.Equal(t, "role must be one of: USER ADMIN", forms["role"])
}

func TestStructRequired(t *testing.T) {
	err := Struct(sampleInput{})
	require.Error(t, err)
	appErr := apperror.From(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "name", appErr.Fields[0].Form)
	assert.Equal(t, "name is required", appErr.Fields[0].Message)
}
