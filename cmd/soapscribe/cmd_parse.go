package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/soapscribe/soapscribe/internal/models"
	"github.com/soapscribe/soapscribe/internal/soapnote"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newParseCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse [response-file]",
		Short: "Parse a saved model response or check a saved note",
		Long: `Parse raw language model output into the structured SOAP note the service
would store, and check it against the note schema.

Input that is a JSON object is treated as a saved note instead: either a
/soap-note response or the record printed by "process --format json". It is
checked against the note schema and printed in the requested format.

Reads from standard input when no file is given or the file is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = defaultFormat(cmd.OutOrStdout())
			}
			if err := checkFormat(format); err != nil {
				return err
			}

			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			note, err := decodeInput(raw)
			if err != nil {
				return err
			}
			return writeNote(cmd.OutOrStdout(), note, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json or yaml")

	return cmd
}

func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(stdin)
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading model response: %w", err)
	}
	return raw, nil
}

// decodeInput parses model text, or validates and decodes a saved JSON note.
func decodeInput(raw []byte) (*models.SOAPNote, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		note := soapnote.Parse(string(raw))
		if err := soapnote.Validate(note); err != nil {
			return nil, err
		}
		return note, nil
	}

	var record struct {
		SOAPNote json.RawMessage `json:"soap_note"`
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decoding saved note: %w", err)
	}
	if len(record.SOAPNote) > 0 {
		raw = record.SOAPNote
	}
	return soapnote.DecodeJSON(raw)
}

func writeNote(w io.Writer, note *models.SOAPNote, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(note)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(note)
	default:
		writeNoteText(w, note)
		return nil
	}
}

func writeNoteText(w io.Writer, note *models.SOAPNote) {
	for i, section := range note.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, section.Name)
		for _, entry := range section.Entries {
			fmt.Fprintf(w, "  - %s%s\n", entry.Text, formatCitations(entry.SourceIndices))
		}
	}
}
