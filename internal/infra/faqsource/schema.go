package faqsource

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/yanqian/faq-chatbot/internal/domain/faq"
	apperrors "github.com/yanqian/faq-chatbot/pkg/errors"
)

const entriesSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["tag", "patterns", "responses"],
		"properties": {
			"tag": {"type": "string"},
			"patterns": {"type": "array", "items": {"type": "string"}},
			"responses": {"type": "array", "items": {"type": "string"}}
		}
	}
}`

var (
	// payloadSchema describes {"FAQ": [...]} as served by the backend and the object store.
	payloadSchema = mustSchema(`{
		"type": "object",
		"required": ["FAQ"],
		"properties": {"FAQ": ` + entriesSchema + `}
	}`)
	// fileSchema describes a local dataset file keyed by audience.
	fileSchema = mustSchema(`{
		"type": "object",
		"additionalProperties": false,
		"properties": {"student": ` + entriesSchema + `, "staff": ` + entriesSchema + `}
	}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile faq schema: %v", err))
	}
	return schema
}

// validateDocument checks a decoded document against schema. Violations are reported as
// malformed entries so they surface with the same code as semantic dataset errors.
func validateDocument(schema *gojsonschema.Schema, loader gojsonschema.JSONLoader) error {
	result, err := schema.Validate(loader)
	if err != nil {
		return apperrors.Wrap(faq.CodeMalformedEntry, "faq payload is not valid json", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return apperrors.Wrap(faq.CodeMalformedEntry, "faq payload failed schema validation", fmt.Errorf("%s", strings.Join(errs, "; ")))
}
