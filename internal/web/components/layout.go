package components

import (
	"context"

	"github.com/JonMunkholm/console/internal/grid"
	"github.com/a-h/templ"
)

// htmxSrc is the pinned HTMX build served to the browser.
const htmxSrc = "https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"

// Layout wraps body in the console's page shell.
func Layout(title string, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw(" · Console</title>")
		h.raw(`<link rel="stylesheet" href="/static/app.css">`)
		h.open("script", "src", htmxSrc)
		h.raw(` defer></script><script src="/static/app.js" defer></script></head><body>`)
		h.raw(`<header class="topbar"><a class="brand" href="/">Console</a></header>`)
		h.raw(`<main class="page">`)
		h.child(ctx, body)
		h.raw(`</main><div id="toasts" class="toasts" aria-live="polite"></div></body></html>`)
	})
}

// Dashboard lists the features by group.
func Dashboard(groups []FeatureGroup) templ.Component {
	return Layout("Dashboard", component(func(ctx context.Context, h *html) {
		h.raw(`<h1>Dashboard</h1>`)
		if len(groups) == 0 {
			h.raw(`<p class="muted">No features are configured.</p>`)
			return
		}
		for _, g := range groups {
			h.raw(`<section class="group"><h2>`)
			h.text(g.Name)
			h.raw(`</h2><div class="cards">`)
			for _, f := range g.Features {
				h.open("a", "class", "card", "id", "feature-"+f.Key)
				h.url("href", f.Href)
				h.raw("><strong>")
				h.text(f.Label)
				h.raw("</strong>")
				if f.Description != "" {
					h.raw(`<span class="muted">`)
					h.text(f.Description)
					h.raw("</span>")
				}
				h.raw("</a>")
			}
			h.raw("</div></section>")
		}
	}))
}

// ErrorAlert renders a user-facing error with its suggested action and
// code.
func ErrorAlert(message, action, code string) templ.Component {
	return component(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-error" role="alert"><strong>`)
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.raw("<p>")
			h.text(action)
			h.raw("</p>")
		}
		if code != "" {
			h.raw(`<small class="muted">Code: `)
			h.text(code)
			h.raw("</small>")
		}
		h.raw("</div>")
	})
}

// ErrorPage is ErrorAlert inside the page shell, for full page loads.
func ErrorPage(message, action, code string) templ.Component {
	return Layout("Error", component(func(ctx context.Context, h *html) {
		h.child(ctx, ErrorAlert(message, action, code))
		h.raw(`<p><a href="/">Back to dashboard</a></p>`)
	}))
}

// Toasts renders notifications inline. app.js dismisses them.
func Toasts(notes []grid.Notification) templ.Component {
	return component(func(ctx context.Context, h *html) {
		for _, n := range notes {
			h.open("div", "class", "toast toast-"+string(n.Level), "role", "status")
			h.raw("><strong>")
			h.text(n.Title)
			h.raw("</strong>")
			if n.Message != "" {
				h.raw("<span>")
				h.text(n.Message)
				h.raw("</span>")
			}
			h.raw("</div>")
		}
	})
}
