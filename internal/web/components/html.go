// Package components holds the console's HTML components. Every component
// is a templ.Component; markup is written through a small helper that
// escapes text and attribute values.
package components

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// html writes markup and keeps the first write error.
type html struct {
	w   io.Writer
	err error
}

func newHTML(w io.Writer) *html { return &html{w: w} }

func (h *html) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *html) int(n int) { h.raw(strconv.Itoa(n)) }

// open writes "<tag" followed by attributes given as name, value pairs.
// The caller closes the tag with ">" (or "/>").
func (h *html) open(tag string, attrs ...string) {
	h.raw("<" + tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		h.attr(attrs[i], attrs[i+1])
	}
}

func (h *html) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// flag writes a boolean attribute when on.
func (h *html) flag(name string, on bool) {
	if on {
		h.raw(" " + name)
	}
}

func (h *html) url(name, u string) {
	h.attr(name, string(templ.URL(u)))
}

func (h *html) child(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// navLink renders a link that swaps the grid in place and replaces the
// history entry. Without JavaScript it is a plain link.
func (h *html) navLink(href, class, label string, disabled bool) {
	if disabled || href == "" {
		h.open("span", "class", class+" disabled", "aria-disabled", "true")
		h.raw(">")
		h.text(label)
		h.raw("</span>")
		return
	}
	h.open("a", "class", class)
	h.url("href", href)
	h.url("hx-get", href)
	h.raw(` hx-replace-url="true">`)
	h.text(label)
	h.raw("</a>")
}

// postForm opens a form that posts to action and swaps the grid.
func (h *html) postForm(action, class string) {
	h.open("form", "method", "post", "class", class)
	h.url("action", action)
	h.url("hx-post", action)
	h.raw(">")
}

func component(fn func(ctx context.Context, h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newHTML(w)
		fn(ctx, h)
		return h.err
	})
}
