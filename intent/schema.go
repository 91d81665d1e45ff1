package intent

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Model output is loose about types: numbers may arrive as Vietnamese
// strings and any field may be null. Only the overall shape is enforced.
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "text": {"type": ["string", "null"]},
    "amount": {"type": ["number", "string", "null"]},
    "phrases": {"type": ["array", "null"], "items": {"type": ["string", "number"]}}
  },
  "properties": {
    "property_type": {"$ref": "#/definitions/text"},
    "location": {
      "type": ["object", "null"],
      "properties": {
        "city": {"$ref": "#/definitions/text"},
        "district": {"$ref": "#/definitions/text"},
        "ward": {"$ref": "#/definitions/text"},
        "street": {"$ref": "#/definitions/text"}
      }
    },
    "price": {
      "type": ["object", "null"],
      "properties": {
        "min": {"$ref": "#/definitions/amount"},
        "max": {"$ref": "#/definitions/amount"},
        "text": {"$ref": "#/definitions/text"}
      }
    },
    "area": {
      "type": ["object", "null"],
      "properties": {
        "min": {"$ref": "#/definitions/amount"},
        "max": {"$ref": "#/definitions/amount"}
      }
    },
    "bedrooms": {"$ref": "#/definitions/amount"},
    "bathrooms": {"$ref": "#/definitions/amount"},
    "features": {"$ref": "#/definitions/phrases"},
    "keywords": {"$ref": "#/definitions/phrases"},
    "requirements": {"$ref": "#/definitions/phrases"},
    "intent": {"$ref": "#/definitions/text"}
  }
}`

var intentSchema = jsonschema.MustCompileString("intent.json", payloadSchema)

func validatePayload(payload map[string]any) error {
	if err := intentSchema.Validate(payload); err != nil {
		return fmt.Errorf("intent payload: %w", err)
	}
	return nil
}
