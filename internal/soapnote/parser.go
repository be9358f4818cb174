package soapnote

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/soapscribe/soapscribe/internal/models"
)

var (
	// sectionHeader matches a section tag and colon at the start of a line.
	sectionHeader = regexp.MustCompile(`(?m)^(Subjective|Objective|Assessment|Plan):`)

	// indexGroup matches "[n]" or "[n, n, ...]".
	indexGroup = regexp.MustCompile(`\[(\d+(?:,\s*\d+)*)\]`)
)

// Parse decodes a model response into a note. It never fails: text before
// the first header is ignored, sections the response omits are absent, and
// bullet lines that carry no text besides index markers are dropped.
func Parse(text string) *models.SOAPNote {
	note := &models.SOAPNote{Sections: []models.SOAPSection{}}

	headers := sectionHeader.FindAllStringSubmatchIndex(text, -1)
	for i, h := range headers {
		bodyEnd := len(text)
		if i+1 < len(headers) {
			bodyEnd = headers[i+1][0]
		}
		note.Sections = append(note.Sections, models.SOAPSection{
			Name:    models.SectionName(text[h[2]:h[3]]),
			Entries: parseEntries(text[h[1]:bodyEnd]),
		})
	}
	return note
}

func parseEntries(body string) []models.SOAPEntry {
	entries := []models.SOAPEntry{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		entry, ok := parseEntry(strings.TrimSpace(line[1:]))
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries
}

// parseEntry strips every index group from line and collects the indices
// in the order they appear.
func parseEntry(line string) (models.SOAPEntry, bool) {
	indices := []int{}
	var sb strings.Builder
	last := 0
	for _, m := range indexGroup.FindAllStringSubmatchIndex(line, -1) {
		parsed, ok := parseIndices(line[m[2]:m[3]])
		if !ok {
			// Too large for an int: leave the group as literal text.
			continue
		}
		indices = append(indices, parsed...)
		sb.WriteString(line[last:m[0]])
		last = m[1]
	}
	sb.WriteString(line[last:])

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return models.SOAPEntry{}, false
	}
	return models.SOAPEntry{Text: text, SourceIndices: indices}, true
}

func parseIndices(group string) ([]int, bool) {
	parts := strings.Split(group, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}
