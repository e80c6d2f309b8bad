package vision

import (
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// pageSchema constrains the JSON the model must return. Output that does not
// conform is rejected outright rather than best-effort field-guessed.
const pageSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["pages"],
  "additionalProperties": false,
  "properties": {
    "pages": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["number", "text"],
        "additionalProperties": false,
        "properties": {
          "number": {"type": "integer", "minimum": 1},
          "text": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "rows": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "properties": {
                "code": {"type": "string"},
                "modifiers": {"type": "array", "items": {"type": "string"}},
                "description": {"type": "string"},
                "units": {"type": "string"},
                "date_of_service": {"type": "string"},
                "charge": {"type": "string"},
                "allowed": {"type": "string"},
                "plan_paid": {"type": "string"},
                "patient_resp": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("vision_pages.json", pageSchema)

func validateShape(doc interface{}) error {
	return compiledSchema.Validate(doc)
}

// buildPrompt asks for verbatim transcription plus structured billing rows.
func buildPrompt() string {
	var b strings.Builder
	b.WriteString("You are transcribing a scanned healthcare billing document (itemized bill, ")
	b.WriteString("explanation of benefits, denial letter, portal screenshot, or insurance card).\n\n")
	b.WriteString("Return ONLY a JSON object, no markdown fences, with this shape:\n")
	b.WriteString(`{"pages":[{"number":1,"text":"<full verbatim page text>","confidence":0.0,` + "\n")
	b.WriteString(`"rows":[{"code":"","modifiers":[],"description":"","units":"","date_of_service":"",` + "\n")
	b.WriteString(`"charge":"","allowed":"","plan_paid":"","patient_resp":""}]}]}` + "\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Transcribe text exactly as printed. Do not correct, infer, or total anything.\n")
	b.WriteString("- Populate rows only for billing table lines; copy amounts as printed (keep $ and commas).\n")
	b.WriteString("- Omit a row field entirely when the cell is blank.\n")
	b.WriteString("- confidence is your own read quality estimate between 0 and 1.\n")
	return b.String()
}
