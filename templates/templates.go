package templates

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/yatube/yatube/utils"
)

//go:embed html/*.html html/includes/*.html html/about/*.html html/misc/*.html
var files embed.FS

// Fragment names rendered on their own and cached.
const IndexPostsFragment = "index_posts"

// Parse builds the template set. mediaURL maps a stored image path to its public address.
// Page templates are addressed by file name (index.html, misc/404.html is 404.html, ...).
func Parse(mediaURL func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"mediaURL": mediaURL,
		"richtext": richtext,
		"date":     func(t time.Time) string { return t.Format("2 January 2006") },
		"datetime": func(t time.Time) string { return t.Format("2 January 2006 15:04") },
		"dict":     dict,
	}
	return template.New("").Funcs(funcs).ParseFS(files,
		"html/*.html", "html/includes/*.html", "html/about/*.html", "html/misc/*.html")
}

// Must is Parse for package initialisation and tests.
func Must(mediaURL func(string) string) *template.Template {
	return template.Must(Parse(mediaURL))
}

// Render executes a named template into a byte slice.
func Render(t *template.Template, name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// richtext shows stored plain text escaped, keeping the author's line breaks.
func richtext(s string) template.HTML {
	return template.HTML(utils.RenderText(s))
}

// dict builds a map from alternating keys and values so includes can take several arguments.
func dict(kv ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			m[k] = kv[i+1]
		}
	}
	return m
}
