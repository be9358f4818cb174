package transcription

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/soapscribe/soapscribe/internal/models"
)

// transcriptPayload is the subset of the provider's transcript resource
// that acquisition reads.
type transcriptPayload struct {
	ID         string             `mapstructure:"id"`
	Status     string             `mapstructure:"status"`
	Error      string             `mapstructure:"error"`
	Utterances []utterancePayload `mapstructure:"utterances"`
}

// utterancePayload times are milliseconds.
type utterancePayload struct {
	Start   float64 `mapstructure:"start"`
	End     float64 `mapstructure:"end"`
	Text    string  `mapstructure:"text"`
	Speaker string  `mapstructure:"speaker"`
}

// decodeTranscript maps a loosely typed JSON object onto transcriptPayload.
// Weak typing lets numeric speaker labels arrive as strings; unknown keys
// such as words or auto_highlights_result are ignored.
func decodeTranscript(raw map[string]any) (*transcriptPayload, error) {
	var p transcriptPayload
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := d.Decode(raw); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *transcriptPayload) toUtterances() []models.Utterance {
	out := make([]models.Utterance, 0, len(p.Utterances))
	for _, u := range p.Utterances {
		out = append(out, models.Utterance{
			Start:   u.Start / 1000,
			End:     u.End / 1000,
			Text:    u.Text,
			Speaker: u.Speaker,
		})
	}
	return out
}
