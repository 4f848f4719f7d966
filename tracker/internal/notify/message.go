// Package notify delivers new-posting batches by email. One message per
// run, multipart/alternative with plain-text and HTML bodies.
package notify

import (
	"fmt"
	"html"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"
)

// Item is one posting included in a notification batch.
type Item struct {
	Title    string
	Company  string
	Location string
	URL      string
}

// Message is a rendered notification email.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// BuildMessage renders the batch into subject, text and HTML bodies.
func BuildMessage(items []Item, now time.Time) *Message {
	plural := "s"
	if len(items) == 1 {
		plural = ""
	}
	subject := fmt.Sprintf("%d New Job Opening%s Found", len(items), plural)
	stamp := now.Format("2006-01-02 15:04")

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n\nThe following new positions have been posted:\n\n", subject)
	for i, it := range items {
		fmt.Fprintf(&text, "%d. %s\n", i+1, it.Title)
		if it.Company != "" {
			fmt.Fprintf(&text, "   Company: %s\n", it.Company)
		}
		if it.Location != "" {
			fmt.Fprintf(&text, "   Location: %s\n", it.Location)
		}
		if it.URL != "" {
			fmt.Fprintf(&text, "   Link: %s\n", it.URL)
		}
		text.WriteString("\n")
	}
	fmt.Fprintf(&text, "---\nSent by jobtrack at %s\n", stamp)

	var rows strings.Builder
	for _, it := range items {
		title := html.EscapeString(it.Title)
		if it.URL != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(it.URL), title)
		}
		meta := html.EscapeString(it.Company)
		if it.Location != "" {
			if meta != "" {
				meta += " · "
			}
			meta += html.EscapeString(it.Location)
		}
		fmt.Fprintf(&rows, `<tr><td style="padding:12px;border-bottom:1px solid #eee;">
<strong>%s</strong><br><span style="color:#666;">%s</span></td></tr>
`, title, meta)
	}

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#333;">
<div style="max-width:600px;margin:0 auto;padding:20px;">
<h1 style="color:#2563eb;border-bottom:2px solid #2563eb;padding-bottom:10px;">%s</h1>
<p>The following new positions have been posted:</p>
<table style="width:100%%;border-collapse:collapse;">%s</table>
<p style="color:#888;font-size:12px;margin-top:30px;">Sent by jobtrack at %s</p>
</div></body></html>`, subject, rows.String(), stamp)

	return &Message{Subject: subject, Text: text.String(), HTML: htmlBody}
}

// Encode writes the message as a multipart/alternative MIME body and returns
// the full payload including headers, ready for SMTP DATA.
func (m *Message) Encode(from, to string) ([]byte, error) {
	var buf strings.Builder
	mp := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mp.Boundary())

	textPart, err := mp.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := textPart.Write([]byte(m.Text)); err != nil {
		return nil, err
	}

	htmlPart, err := mp.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := htmlPart.Write([]byte(m.HTML)); err != nil {
		return nil, err
	}

	if err := mp.Close(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
