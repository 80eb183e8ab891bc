package handler

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strconv"

	"github.com/makkenzo/sorvide-admin/internal/dashboard"
	"github.com/makkenzo/sorvide-admin/internal/domain/license"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"money":   money,
	"dashURL": DashboardURL,
	"keyPath": url.PathEscape,
	"inc":     inc,
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func inc(i int) int {
	return i + 1
}

// Templates parses the embedded pages. Every page pulls in the shared
// head, nav, toast and foot blocks.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// DashboardURL keeps the filter and search when moving between pages.
func DashboardURL(q dashboard.Query, page, activityPage int) string {
	v := url.Values{}
	if q.Filter != "" && q.Filter != license.FilterAll {
		v.Set("filter", string(q.Filter))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if activityPage > 1 {
		v.Set("activityPage", strconv.Itoa(activityPage))
	}
	if len(v) == 0 {
		return "/"
	}
	return "/?" + v.Encode()
}
