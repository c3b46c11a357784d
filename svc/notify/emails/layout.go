// Package emails holds the billing emails as templ components. Every
// message shares the RTL layout with a link back to the billing page.
package emails

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Message is one email: a plain-text subject and an HTML body.
type Message struct {
	Subject string
	Body    templ.Component
}

// html accumulates the first write error so components read top to bottom.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) { h.raw(templ.EscapeString(s)) }

func (h *html) strong(s string) {
	h.raw("<strong>")
	h.text(s)
	h.raw("</strong>")
}

func (h *html) child(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// billingURL is appURL/billing. Unsafe schemes render as templ's
// sanitized placeholder.
func billingURL(appURL string) templ.SafeURL {
	return templ.URL(strings.TrimRight(appURL, "/") + "/billing")
}

func layout(subject, appURL string, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<!DOCTYPE html><html lang="ar" dir="rtl"><head><meta charset="utf-8"><title>`)
		h.text(subject)
		h.raw(`</title></head><body style="font-family: Tahoma, Arial, sans-serif; background:#f6f7f9; padding:24px;">`)
		h.raw(`<div style="max-width:560px; margin:0 auto; background:#fff; border-radius:8px; padding:24px;">`)
		h.child(ctx, content)
		h.raw(`<p style="margin-top:32px;"><a href="`)
		h.text(string(billingURL(appURL)))
		h.raw(`" style="color:#2f6feb;">Manage billing</a></p></div></body></html>`)
		return h.err
	})
}

func message(subject, appURL string, body func(h *html)) Message {
	content := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &html{w: w}
		body(h)
		return h.err
	})
	return Message{Subject: subject, Body: layout(subject, appURL, content)}
}
