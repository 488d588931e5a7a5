package handlers

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"grc-risk/internal/scoring"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// TemplateFuncs are the helpers available to the dashboard templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"levelClass": func(l scoring.Level) string { return "level-" + string(l) },
		"join":       strings.Join,
		"ratings": func() []int {
			r := make([]int, 0, scoring.MaxRating)
			for i := scoring.MinRating; i <= scoring.MaxRating; i++ {
				r = append(r, i)
			}
			return r
		},
		"sortLink": sortLink,
	}
}

// sortLink toggles the direction when the column is already the sort key.
func sortLink(level, currentSort, currentDir, column string) string {
	dir := "asc"
	if column == currentSort && currentDir == "asc" {
		dir = "desc"
	}
	q := url.Values{}
	if level != "" {
		q.Set("level", level)
	}
	q.Set("sort", column)
	q.Set("dir", dir)
	return "/?" + q.Encode()
}

// render wraps c.HTML and passes pending flash messages to every page.
func render(c *gin.Context, status int, tmpl string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	sess := sessions.Default(c)
	var flashes []string
	for _, f := range sess.Flashes() {
		flashes = append(flashes, fmt.Sprint(f))
	}
	if len(flashes) > 0 {
		_ = sess.Save()
	}
	data["flashes"] = flashes

	c.HTML(status, tmpl, data)
}

func flash(c *gin.Context, msg string) {
	sess := sessions.Default(c)
	sess.AddFlash(msg)
	_ = sess.Save()
}
