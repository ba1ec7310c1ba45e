package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
)

func validSubmission() map[string]interface{} {
	return map[string]interface{}{
		"name":             "Jane Tan",
		"nric":             "S1234567A",
		"dob":              "1990-04-12",
		"nationality":      "Singaporean",
		"email":            "jane.tan@example.com",
		"certificate_type": "Digital Identity",
		"payment_mode":     "card",
	}
}

func TestValidateSubmission_Valid(t *testing.T) {
	assert.NoError(t, ValidateSubmission(validSubmission()))
}

func TestValidateSubmission_MissingRequiredField(t *testing.T) {
	tests := []string{"name", "dob", "nationality", "email", "certificate_type", "payment_mode"}

	for _, field := range tests {
		t.Run(field, func(t *testing.T) {
			doc := validSubmission()
			delete(doc, field)

			err := ValidateSubmission(doc)
			require.Error(t, err)

			var stdErr *errors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, errors.ErrCodeValidationInputInvalid, stdErr.Code)
			assert.Contains(t, stdErr.Details, field)
		})
	}
}

func TestValidateSubmission_BadDOBFormat(t *testing.T) {
	doc := validSubmission()
	doc["dob"] = "12/04/1990"

	err := ValidateSubmission(doc)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationInputInvalid, errors.CodeOf(err))
}

func TestValidateSubmission_WrongFieldType(t *testing.T) {
	doc := validSubmission()
	doc["auto_processing"] = "yes"

	err := ValidateSubmission(doc)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationInputInvalid, errors.CodeOf(err))
}

func TestValidateSubmission_CollectsAllViolations(t *testing.T) {
	doc := validSubmission()
	delete(doc, "name")
	delete(doc, "email")

	err := ValidateSubmission(doc)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Contains(t, stdErr.Details, "name")
	assert.Contains(t, stdErr.Details, "email")
}
