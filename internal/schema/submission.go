// internal/schema/submission.go
package schema

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/rkbisoi/applus-backend-demo/internal/common/errors"
)

// submissionSchema describes a valid application submission payload.
var submissionSchema = map[string]interface{}{
	"type": "object",
	"required": []interface{}{
		"name", "dob", "nationality", "email", "certificate_type", "payment_mode",
	},
	"properties": map[string]interface{}{
		"name":             map[string]interface{}{"type": "string", "minLength": 1},
		"nric":             map[string]interface{}{"type": "string"},
		"passport":         map[string]interface{}{"type": "string"},
		"dob":              map[string]interface{}{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"nationality":      map[string]interface{}{"type": "string", "minLength": 1},
		"email":            map[string]interface{}{"type": "string", "format": "email"},
		"organisation":     map[string]interface{}{"type": "string"},
		"address":          map[string]interface{}{"type": "string"},
		"certificate_type": map[string]interface{}{"type": "string", "minLength": 1},
		"payment_mode":     map[string]interface{}{"type": "string", "minLength": 1},
		"auto_processing":  map[string]interface{}{"type": "boolean"},
		"attachments":      map[string]interface{}{"type": "array"},
	},
}

// ValidateSubmission checks an incoming submission document against the
// application schema and returns a VALIDATION_INPUT_INVALID error listing
// every violation.
func ValidateSubmission(document map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(submissionSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.NewValidationInputInvalidError(err.Error())
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return errors.NewValidationInputInvalidError(strings.Join(errs, "; "))
	}
	return nil
}
