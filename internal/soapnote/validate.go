package soapnote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/soapscribe/soapscribe/schemas"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// noteSchema is the compiled JSON Schema for parsed notes.
var noteSchema = mustCompileSchema(schemas.SOAPNoteSchemaJSON, "soapnote.schema.json")

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// Validate checks note against the embedded note schema. A violation is
// reported as a *SchemaError.
func Validate(note *models.SOAPNote) error {
	raw, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encoding note: %w", err)
	}
	return ValidateJSON(raw)
}

// ValidateJSON checks an encoded note against the note schema.
func ValidateJSON(raw []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decoding note: %w", err)
	}

	err = noteSchema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema: %w", err)
	}
	var problems []string
	collectSchemaErrors(ve, &problems)
	return &SchemaError{Problems: problems}
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// DecodeJSON checks a saved note against the note schema and decodes it.
// Notes read back from disk or another service are untrusted.
func DecodeJSON(raw []byte) (*models.SOAPNote, error) {
	if err := ValidateJSON(raw); err != nil {
		return nil, err
	}
	var note models.SOAPNote
	if err := json.Unmarshal(raw, &note); err != nil {
		return nil, fmt.Errorf("decoding note: %w", err)
	}
	return &note, nil
}
