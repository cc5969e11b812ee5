package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by gin's c.HTML and by Execute.
const (
	PageDetail = "detail.html"
	PageIndex  = "index.html"
	PageError  = "error.html"
)

var funcs = template.FuncMap{
	"seq": func(from, to int) []int {
		if to < from {
			return nil
		}
		out := make([]int, 0, to-from+1)
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
}

// Templates parses the embedded page set.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Execute renders one page outside of gin.
func Execute(tmpl *template.Template, w io.Writer, page string, data interface{}) error {
	return tmpl.ExecuteTemplate(w, page, data)
}
