package classify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Each classifier call kind has a strict schema; a response must validate
// before it is decoded into a typed verdict.
var (
	verdictSchema = jsonschema.MustCompileString("verdict.json", `{
		"type": "object",
		"required": ["error"],
		"properties": {
			"error": {"type": "boolean"},
			"message": {"type": "string"}
		}
	}`)

	finalVerdictSchema = jsonschema.MustCompileString("final_verdict.json", `{
		"type": "object",
		"required": ["error"],
		"properties": {
			"error": {"type": "boolean"},
			"message": {"type": "string"},
			"download_available": {"type": "boolean"}
		}
	}`)

	summarySchema = jsonschema.MustCompileString("summary.json", `{
		"type": "object",
		"required": ["analysis", "troubleshooting"],
		"properties": {
			"analysis": {"type": "string"},
			"troubleshooting": {"type": "string"}
		}
	}`)
)

// Models are not guaranteed to emit pure JSON; the first brace-balanced-
// looking substring is extracted before any structural parse is attempted.
var jsonBlob = regexp.MustCompile(`(?s)\{.*\}`)

func extractJSON(raw string) (string, bool) {
	blob := jsonBlob.FindString(raw)
	if blob == "" {
		return "", false
	}
	return blob, true
}

// decodeInto extracts, schema-validates, and unmarshals a model response.
func decodeInto(raw string, schema *jsonschema.Schema, out any) error {
	blob, ok := extractJSON(raw)
	if !ok {
		return fmt.Errorf("no JSON object in response")
	}

	var generic any
	if err := json.Unmarshal([]byte(blob), &generic); err != nil {
		return err
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("schema validation: %s", firstLine(err.Error()))
	}
	return json.Unmarshal([]byte(blob), out)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
