package models

// SectionName is one of the four SOAP section tags.
type SectionName string

const (
	SectionSubjective SectionName = "Subjective"
	SectionObjective  SectionName = "Objective"
	SectionAssessment SectionName = "Assessment"
	SectionPlan       SectionName = "Plan"
)

// SectionNames lists the section tags in canonical order.
var SectionNames = []SectionName{
	SectionSubjective,
	SectionObjective,
	SectionAssessment,
	SectionPlan,
}

// SOAPEntry is a single clinical statement and the transcript indices it
// cites. Indices come from model output and are not validated against the
// transcript; they may repeat or fall out of range.
type SOAPEntry struct {
	Text          string `json:"text" yaml:"text"`
	SourceIndices []int  `json:"source_indices" yaml:"source_indices"`
}

// SOAPSection holds the entries of one section in source order.
type SOAPSection struct {
	Name    SectionName `json:"name" yaml:"name"`
	Entries []SOAPEntry `json:"entries" yaml:"entries"`
}

// SOAPNote is the structured note. Sections appear in the order the model
// emitted them; a section missing from the model response is absent here.
type SOAPNote struct {
	Sections []SOAPSection `json:"sections" yaml:"sections"`
}

// Section returns the first section with the given name.
func (n *SOAPNote) Section(name SectionName) (*SOAPSection, bool) {
	if n == nil {
		return nil, false
	}
	for i := range n.Sections {
		if n.Sections[i].Name == name {
			return &n.Sections[i], true
		}
	}
	return nil, false
}

// Sources resolves an entry's indices against transcript, skipping indices
// that fall outside it.
func (e SOAPEntry) Sources(transcript []Utterance) []Utterance {
	out := make([]Utterance, 0, len(e.SourceIndices))
	for _, idx := range e.SourceIndices {
		if idx < 0 || idx >= len(transcript) {
			continue
		}
		out = append(out, transcript[idx])
	}
	return out
}

// Clone returns a deep copy of the note.
func (n *SOAPNote) Clone() *SOAPNote {
	if n == nil {
		return nil
	}
	out := &SOAPNote{Sections: make([]SOAPSection, len(n.Sections))}
	for i, s := range n.Sections {
		entries := make([]SOAPEntry, len(s.Entries))
		for j, e := range s.Entries {
			indices := make([]int, len(e.SourceIndices))
			copy(indices, e.SourceIndices)
			entries[j] = SOAPEntry{Text: e.Text, SourceIndices: indices}
		}
		out.Sections[i] = SOAPSection{Name: s.Name, Entries: entries}
	}
	return out
}
