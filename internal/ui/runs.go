// Package ui renders the server's HTML pages as templ components.
package ui

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// RunListItem is one row of the run overview.
type RunListItem struct {
	ID        string
	State     string
	Title     string
	Reference string
	Labels    []string
	Samples   int
	Error     string
}

// HasPlot reports whether the run has results to plot.
func (r RunListItem) HasPlot() bool {
	return r.State == "completed"
}

// RunURL links to the run's JSON representation.
func (r RunListItem) RunURL() templ.SafeURL {
	return templ.URL("/api/v1/runs/" + r.ID)
}

// PlotURL links to the run's rendered plot.
func (r RunListItem) PlotURL() templ.SafeURL {
	return templ.URL("/api/v1/runs/" + r.ID + "/plot.png")
}

const pageStyle = `body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { padding: 0.3rem 0.8rem; border-bottom: 1px solid #ddd; text-align: left; }
.failed { color: #b00; }
.cancelled { color: #888; }`

// Layout wraps body in the page skeleton.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
		hw.text(title)
		hw.raw("</title>\n<style>\n" + pageStyle + "\n</style>\n</head>\n<body>\n<h1>")
		hw.text(title)
		hw.raw("</h1>\n")
		hw.render(ctx, body)
		hw.raw("</body>\n</html>\n")
		return hw.err
	})
}

// RunList is the index page listing all runs, newest first.
func RunList(items []RunListItem) templ.Component {
	return Layout("MSE Comparison Runs", RunTable(items))
}

// RunTable renders the run rows, or a notice when there are none.
func RunTable(items []RunListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		if len(items) == 0 {
			hw.raw("<p>No runs yet.</p>\n")
			return hw.err
		}

		hw.raw("<table>\n<thead><tr><th>ID</th><th>State</th><th>Title</th><th>Reference</th>" +
			"<th>Series</th><th>Samples</th><th>Plot</th></tr></thead>\n<tbody>\n")
		for _, item := range items {
			hw.render(ctx, RunRow(item))
		}
		hw.raw("</tbody>\n</table>\n")
		return hw.err
	})
}

// RunRow renders a single run.
func RunRow(item RunListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.raw("<tr>\n<td><a href=\"")
		hw.text(string(item.RunURL()))
		hw.raw("\">")
		hw.text(item.ID)
		hw.raw("</a></td>\n<td class=\"")
		hw.text(item.State)
		hw.raw("\">")
		hw.text(item.State)
		if item.Error != "" {
			hw.text(" (" + item.Error + ")")
		}
		hw.raw("</td>\n<td>")
		hw.text(item.Title)
		hw.raw("</td>\n<td>")
		hw.text(item.Reference)
		hw.raw("</td>\n<td>")
		hw.text(strings.Join(item.Labels, ", "))
		hw.raw("</td>\n<td>")
		hw.text(strconv.Itoa(item.Samples))
		hw.raw("</td>\n<td>")
		if item.HasPlot() {
			hw.raw("<a href=\"")
			hw.text(string(item.PlotURL()))
			hw.raw("\">plot</a>")
		}
		hw.raw("</td>\n</tr>\n")
		return hw.err
	})
}

// htmlWriter keeps the first write error and skips all later output.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (hw *htmlWriter) raw(s string) {
	if hw.err == nil {
		_, hw.err = io.WriteString(hw.w, s)
	}
}

func (hw *htmlWriter) text(s string) {
	hw.raw(templ.EscapeString(s))
}

func (hw *htmlWriter) render(ctx context.Context, c templ.Component) {
	if hw.err == nil {
		hw.err = c.Render(ctx, hw.w)
	}
}
