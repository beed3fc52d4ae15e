// internal/questionset/schema.go
package questionset

// questionSetSchema validates admin-supplied question set payloads
// before any semantic checks run.
const questionSetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["title", "questions"],
  "properties": {
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string", "maxLength": 2000},
    "jobId": {"type": "string"},
    "isActive": {"type": "boolean"},
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["fieldKey", "prompt", "validation"],
        "properties": {
          "step": {"type": "integer", "minimum": 1},
          "fieldKey": {"type": "string", "pattern": "^[a-zA-Z][a-zA-Z0-9_]*$"},
          "prompt": {"type": "string", "minLength": 1, "maxLength": 1000},
          "required": {"type": "boolean"},
          "validation": {
            "type": "object",
            "required": ["type"],
            "properties": {
              "type": {"enum": ["text", "email", "phone", "number", "url", "custom"]},
              "minLength": {"type": "integer", "minimum": 0},
              "maxLength": {"type": "integer", "minimum": 1},
              "pattern": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`
