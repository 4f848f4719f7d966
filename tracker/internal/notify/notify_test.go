package notify

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestBuildMessage(t *testing.T) {
	// WHAT: The rendered message carries every posting in both bodies.
	// WHY: One batch email per run is the notification contract.
	items := []Item{
		{Title: "Backend Engineer", Company: "Acme", Location: "Berlin", URL: "https://acme.example/jobs/1"},
		{Title: "Data Scientist", Company: "Acme"},
	}
	msg := BuildMessage(items, testNow)

	if !strings.Contains(msg.Subject, "2 New Job Openings") {
		t.Errorf("subject = %q", msg.Subject)
	}
	for _, want := range []string{"Backend Engineer", "Data Scientist", "Berlin", "https://acme.example/jobs/1"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text missing %q", want)
		}
		if want != "https://acme.example/jobs/1" && !strings.Contains(msg.HTML, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if !strings.Contains(msg.HTML, `href="https://acme.example/jobs/1"`) {
		t.Error("html missing posting link")
	}
}

func TestBuildMessageSingular(t *testing.T) {
	msg := BuildMessage([]Item{{Title: "Engineer"}}, testNow)
	if !strings.Contains(msg.Subject, "1 New Job Opening Found") {
		t.Errorf("subject = %q", msg.Subject)
	}
}

func TestBuildMessageEscapesHTML(t *testing.T) {
	// WHAT: Posting fields are escaped in the HTML body.
	// WHY: Titles come from scraped pages; they are untrusted.
	msg := BuildMessage([]Item{{Title: `<script>alert("x")</script>`, Company: "A & B"}}, testNow)
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("unescaped title in html body")
	}
	if !strings.Contains(msg.HTML, "A &amp; B") {
		t.Error("company not escaped")
	}
}

func TestEncodeMultipart(t *testing.T) {
	// WHAT: Encode produces a multipart/alternative payload with both parts.
	// WHY: Mail clients pick the richest part they can render.
	msg := BuildMessage([]Item{{Title: "Engineer"}}, testNow)
	payload, err := msg.Encode("bot@example.com", "me@example.com")
	if err != nil {
		t.Fatal(err)
	}
	s := string(payload)
	for _, want := range []string{
		"From: bot@example.com",
		"To: me@example.com",
		"Content-Type: multipart/alternative",
		"text/plain; charset=utf-8",
		"text/html; charset=utf-8",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("payload missing %q", want)
		}
	}
}

type stubMailer struct {
	sent []*Message
	err  error
}

func (s *stubMailer) Send(msg *Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestGatewayEmptyBatchIsNoOp(t *testing.T) {
	// WHAT: An empty batch succeeds without sending anything.
	// WHY: Runs with zero new postings are the common case.
	mailer := &stubMailer{}
	g := NewGateway(mailer, nil)

	res, err := g.Notify(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Delivered || res.Count != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(mailer.sent) != 0 {
		t.Error("mail sent for empty batch")
	}
}

func TestGatewayDelivers(t *testing.T) {
	mailer := &stubMailer{}
	g := NewGateway(mailer, nil)

	res, err := g.Notify([]Item{{Title: "Engineer"}, {Title: "Analyst"}})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Delivered || res.Count != 2 {
		t.Errorf("result = %+v", res)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 batch", len(mailer.sent))
	}
}

func TestGatewayDeliveryFailure(t *testing.T) {
	// WHAT: A transport failure reports Delivered=false with the error.
	// WHY: The orchestrator must leave those postings unnotified for retry.
	g := NewGateway(&stubMailer{err: errors.New("connection refused")}, nil)

	res, err := g.Notify([]Item{{Title: "Engineer"}})
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if res.Delivered {
		t.Error("delivered should be false on failure")
	}
}

func TestGatewayUnconfigured(t *testing.T) {
	// WHAT: No mailer means the batch is skipped, not failed.
	// WHY: Running without SMTP credentials is a supported mode.
	g := NewGateway(nil, nil)

	res, err := g.Notify([]Item{{Title: "Engineer"}})
	if err != nil {
		t.Fatalf("unconfigured gateway should not error: %v", err)
	}
	if res.Delivered {
		t.Error("skipped batch must not count as delivered")
	}
}
