package summary

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"strings"
	"text/template"

	"github.com/ravijp/portfolio-advisor/pkg/models"
	"github.com/yuin/goldmark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/summary.md.tmpl
var templateFS embed.FS

// Subject of every summary email
const Subject = "Your Daily Portfolio Summary"

// Message is a rendered summary: Markdown text plus its HTML rendition
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns a DailySummary into a message body. Section order is fixed
// and empty sections render a placeholder line.
type Renderer struct {
	tmpl     *template.Template
	markdown goldmark.Markdown
}

// NewRenderer creates a renderer that prefixes amounts with currencySymbol
func NewRenderer(currencySymbol string) (*Renderer, error) {
	printer := message.NewPrinter(language.English)

	funcs := template.FuncMap{
		"money": func(v float64) string {
			return currencySymbol + printer.Sprintf("%.2f", v)
		},
		"wholeMoney": func(v float64) string {
			return currencySymbol + printer.Sprintf("%.0f", v)
		},
		"percent": func(v float64) string {
			return fmt.Sprintf("%.2f%%", v)
		},
		"abs": math.Abs,
		"arrow": func(v float64) string {
			if v >= 0 {
				return "▲"
			}
			return "▼"
		},
		"md": escapeMarkdown,
	}

	tmpl, err := template.New("summary.md.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/summary.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary template: %w", err)
	}
	return &Renderer{tmpl: tmpl, markdown: goldmark.New()}, nil
}

// Render produces the Markdown and HTML bodies for s
func (r *Renderer) Render(s *models.DailySummary) (Message, error) {
	var text bytes.Buffer
	if err := r.tmpl.Execute(&text, s); err != nil {
		return Message{}, fmt.Errorf("failed to render summary: %w", err)
	}

	var body bytes.Buffer
	if err := r.markdown.Convert(text.Bytes(), &body); err != nil {
		return Message{}, fmt.Errorf("failed to convert summary to HTML: %w", err)
	}

	html := "<html>\n<body style=\"font-family: Arial, sans-serif; line-height: 1.6; color: #333;\">\n" +
		body.String() +
		"</body>\n</html>\n"

	return Message{
		Subject: fmt.Sprintf("%s (%s)", Subject, s.Date),
		Text:    text.String(),
		HTML:    html,
	}, nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return markdownEscaper.Replace(s)
}
