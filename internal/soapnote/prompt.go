package soapnote

import (
	"fmt"
	"strings"

	"github.com/soapscribe/soapscribe/internal/models"
)

const promptHeader = `Generate a structured SOAP note from this medical conversation.
Include references to transcript segments using their [numbers] in square brackets.
Use exactly this format:

Subjective:
- Patient reported chest pain starting 2 hours ago [0,3]
- Denies history of cardiac issues [5]

Objective:
- BP 150/95, HR 110 [12]
- Lungs clear to auscultation [14]

Assessment:
- Probable acute coronary syndrome [15,18]

Plan:
- ECG and cardiac enzymes ordered [20]
- Aspirin 325mg administered [22]

Transcript:
`

// FormatTranscript renders utterances one per line as
// "[i] [Speaker S] [start-end s]: text", i being the position in the slice.
func FormatTranscript(utterances []models.Utterance) string {
	lines := make([]string, len(utterances))
	for i, u := range utterances {
		lines[i] = fmt.Sprintf("[%d] [Speaker %s] [%.1f-%.1fs]: %s", i, u.Speaker, u.Start, u.End, u.Text)
	}
	return strings.Join(lines, "\n")
}

// BuildPrompt returns the full instruction prompt for utterances.
func BuildPrompt(utterances []models.Utterance) string {
	return promptHeader + FormatTranscript(utterances)
}
