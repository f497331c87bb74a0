package analysis

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const qualitySchemaJSON = `{
  "type": "object",
  "required": ["confidence_score"],
  "properties": {
    "confidence_score": {"type": ["number", "null"], "minimum": 0, "maximum": 100},
    "confidence_level": {"enum": ["Low", "Medium", "High", null]},
    "feedback": {
      "type": ["object", "null"],
      "properties": {
        "issues": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    }
  }
}`

const extractionSchemaJSON = `{
  "type": "object",
  "required": ["extracted"],
  "properties": {
    "extracted": {"type": "object"}
  }
}`

var (
	qualitySchema    = mustCompile("quality.json", qualitySchemaJSON)
	extractionSchema = mustCompile("extraction.json", extractionSchemaJSON)
)

func mustCompile(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader([]byte(src))); err != nil {
		panic(eris.Wrapf(err, "analysis: add schema %s", name))
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		panic(eris.Wrapf(err, "analysis: compile schema %s", name))
	}
	return schema
}

// decodeValidated cleans a model response, decodes it and checks it against
// schema. It returns the decoded value and the cleaned JSON text.
func decodeValidated(schema *jsonschema.Schema, raw string) (any, []byte, error) {
	cleaned := []byte(CleanJSON(raw))

	var v any
	if err := json.Unmarshal(cleaned, &v); err != nil {
		return nil, nil, eris.Wrap(err, "analysis: unmarshal response")
	}
	if err := schema.Validate(v); err != nil {
		return nil, nil, eris.Wrap(err, "analysis: response does not match schema")
	}
	return v, cleaned, nil
}
