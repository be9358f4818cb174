// Package schemas embeds the JSON Schemas used to validate generated documents.
package schemas

import _ "embed"

// SOAPNoteSchemaJSON is the schema every parsed note must satisfy.
//
//go:embed soapnote.schema.json
var SOAPNoteSchemaJSON string
