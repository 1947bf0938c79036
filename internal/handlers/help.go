package handlers

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"sales-drilldown/internal/ui/templates"
)

//go:embed content/help.md
var helpMarkdown []byte

// HelpHandler serves the "How to use" page, rendered once at start-up.
type HelpHandler struct {
	body template.HTML
}

func NewHelpHandler() (*HelpHandler, error) {
	body, err := RenderMarkdown(helpMarkdown)
	if err != nil {
		return nil, fmt.Errorf("render help: %w", err)
	}
	return &HelpHandler{body: body}, nil
}

func (h *HelpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	templ.Handler(templates.Help(h.body)).ServeHTTP(w, r)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func newHelpPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// RenderMarkdown converts GitHub-flavoured Markdown to sanitised HTML.
func RenderMarkdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(newHelpPolicy().SanitizeBytes(buf.Bytes())), nil
}
