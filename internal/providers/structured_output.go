package providers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DecodeStructured validates raw model output against the request schema and
// unmarshals it into out. The core never trusts unvalidated attribute access
// on model output; any schema violation is a ParseError, which feeds the
// invoker's retry state machine.
func DecodeStructured(rf *ResponseFormat, raw []byte, out any) error {
	if rf == nil || rf.JSONSchema == nil {
		return &ParseError{Msg: "no response schema provided", Raw: string(raw)}
	}

	cleaned := StripCodeFences(raw)

	var v any
	if err := json.Unmarshal(cleaned, &v); err != nil {
		return &ParseError{Msg: "response is not valid JSON", Raw: string(raw), Err: err}
	}

	schema, err := compileSchema(rf.JSONSchema)
	if err != nil {
		return fmt.Errorf("compile response schema: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return &ParseError{Msg: "response does not match schema", Raw: string(raw), Err: err}
	}

	if out != nil {
		if err := json.Unmarshal(cleaned, out); err != nil {
			return &ParseError{Msg: "response does not unmarshal into target", Raw: string(raw), Err: err}
		}
	}
	return nil
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("schema.json")
}

// StripCodeFences removes a markdown code fence wrapper if the model emitted
// one around its JSON payload. Local models do this even when asked not to.
func StripCodeFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return raw
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return []byte(strings.TrimSpace(s))
}
