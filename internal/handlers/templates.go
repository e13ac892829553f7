package handlers

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"price": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

func mustParseTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))
}

// render executes a page template with the common layout data.
func (h *Handler) render(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["errors"]; !ok {
		data["errors"] = map[string]string{}
	}
	_, loggedIn := currentUserID(c)
	data["loggedIn"] = loggedIn
	data["flashes"] = h.popFlashes(c)
	c.HTML(code, name, data)
}
