package utils

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// RenderText turns stored plain text into HTML: everything is escaped and line breaks
// become <br>. The UGC policy runs last so the output never carries more than that.
func RenderText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	escaped := strings.ReplaceAll(template.HTMLEscapeString(text), "\n", "<br>")
	return sanitizer.Sanitize(escaped)
}
