package delivery

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"commutecast/internal/domain/entity"
	"commutecast/internal/infra/notifier"
)

const (
	// Subject is used for every episode email.
	Subject = "Your Daily CommuteCast Podcast"

	// DefaultFrom is the sender when DELIVERY_FROM is unset.
	DefaultFrom = "CommuteCast <noreply@commutecast.com>"
)

const textBody = `Your daily podcast is ready!

Listen here: {{.AudioURL}}

Today's script:

{{.Script}}
`

const htmlBody = `<h1>Your daily podcast is ready!</h1>
<p><a href="{{.AudioURL}}">Listen to today's episode</a></p>
<h2>Today's script</h2>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}`

var (
	textTmpl = texttemplate.Must(texttemplate.New("text").Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
)

type messageData struct {
	AudioURL   string
	Script     string
	Paragraphs []string
}

// BuildMessage renders the episode email. The HTML part escapes the script.
func BuildMessage(ep *entity.Episode, to, from string) (notifier.Message, error) {
	if from == "" {
		from = DefaultFrom
	}
	data := messageData{
		AudioURL:   ep.AudioURL,
		Script:     ep.Script,
		Paragraphs: paragraphs(ep.Script),
	}

	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return notifier.Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return notifier.Message{}, fmt.Errorf("render html body: %w", err)
	}

	return notifier.Message{
		From:    from,
		To:      to,
		Subject: Subject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

func paragraphs(script string) []string {
	var out []string
	for _, p := range strings.Split(script, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
