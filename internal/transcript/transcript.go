// ABOUTME: HTML transcript export for the conversation
// ABOUTME: Renders message content as markdown via goldmark into a standalone page

package transcript

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yuin/goldmark"

	"github.com/samhq/sam-client/internal/conversation"
)

const pageTemplate = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Conversation transcript</title>
<style>
body { font-family: sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.message { margin: 1rem 0; padding: 0.75rem 1rem; border-radius: 0.5rem; }
.user { background: #e8f0fe; }
.bot { background: #f1f3f4; }
.meta { font-size: 0.8rem; color: #5f6368; margin-bottom: 0.25rem; }
.docs { font-size: 0.85rem; color: #5f6368; margin-top: 0.5rem; }
</style>
</head>
<body>
<h1>Conversation transcript</h1>
<p class="meta">Exported {{.ExportedAt}}</p>
{{range .Messages}}
<div class="message {{.Sender}}">
<div class="meta">{{.Sender}} &middot; {{.Timestamp}}</div>
{{.Body}}
{{if .Documents}}<div class="docs">Documents: {{.Documents}}</div>{{end}}
</div>
{{end}}
</body>
</html>
`

// renderedMessage holds one message prepared for the template
type renderedMessage struct {
	Sender    string
	Timestamp string
	Body      template.HTML
	Documents string
}

// Write renders the messages as an HTML transcript. Loading placeholders
// are skipped; message content is converted from markdown.
func Write(w io.Writer, msgs []conversation.Message) error {
	tmpl, err := template.New("transcript").Parse(pageTemplate)
	if err != nil {
		return fmt.Errorf("parsing transcript template: %w", err)
	}

	rendered := make([]renderedMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.IsLoading {
			continue
		}

		var htmlBuf bytes.Buffer
		if err := goldmark.Convert([]byte(m.Content), &htmlBuf); err != nil {
			htmlBuf.Reset()
			htmlBuf.WriteString("<p>" + template.HTMLEscapeString(m.Content) + "</p>")
		}

		docs := ""
		for i, d := range m.DocumentReferences {
			if i > 0 {
				docs += ", "
			}
			docs += d.Name
		}

		rendered = append(rendered, renderedMessage{
			Sender:    string(m.Sender),
			Timestamp: m.Timestamp.Format(time.RFC1123),
			Body:      template.HTML(htmlBuf.String()),
			Documents: docs,
		})
	}

	data := struct {
		ExportedAt string
		Messages   []renderedMessage
	}{
		ExportedAt: time.Now().Format(time.RFC1123),
		Messages:   rendered,
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("rendering transcript: %w", err)
	}
	return nil
}
