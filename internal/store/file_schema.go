package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// questionsSchema accepts both the module map and the legacy flat list.
const questionsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "question": {
      "type": "object",
      "required": ["question", "options", "correct"],
      "properties": {
        "id": {"type": "string"},
        "question": {"type": "string", "minLength": 1},
        "options": {
          "type": "array",
          "items": {"type": "string", "minLength": 1},
          "minItems": 4,
          "maxItems": 4
        },
        "correct": {"type": "integer", "minimum": 0, "maximum": 3}
      }
    },
    "questions": {
      "type": "array",
      "items": {"$ref": "#/definitions/question"}
    }
  },
  "oneOf": [
    {"type": "object", "additionalProperties": {"$ref": "#/definitions/questions"}},
    {"$ref": "#/definitions/questions"}
  ]
}`

const usersSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["pw"],
    "properties": {
      "pw": {"type": "string"},
      "moderator": {"type": "boolean"},
      "xp": {"type": "integer", "minimum": 0},
      "unlocked": {"type": "array", "items": {"type": "string"}},
      "achievements": {"type": "array", "items": {"type": "string"}},
      "correct": {"type": "integer", "minimum": 0},
      "wrong": {"type": "integer", "minimum": 0}
    }
  }
}`

var (
	compiledQuestions = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(questionsSchema))
	})
	compiledUsers = sync.OnceValues(func() (*gojsonschema.Schema, error) {
		return gojsonschema.NewSchema(gojsonschema.NewStringLoader(usersSchema))
	})
)

func validateDocument(compile func() (*gojsonschema.Schema, error), data []byte) error {
	schema, err := compile()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema violations: %s", strings.Join(msgs, "; "))
}
