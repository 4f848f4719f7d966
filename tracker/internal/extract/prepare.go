// Package extract turns raw page markup into validated job postings via an
// AI structuring service. Raw HTML is sanitized and converted to markdown
// before submission to cut token cost; the service response is validated
// into a strict candidate shape before it reaches reconciliation.
package extract

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxContentBytes bounds what we send upstream per page.
const DefaultMaxContentBytes = 100_000

// Prepared is page content ready for submission to the structuring service.
type Prepared struct {
	Content   string // markdown, or raw text fallback
	TitleHint string // <title> of the page, if any
	Truncated bool   // content exceeded the byte ceiling
}

// Preparer sanitizes and condenses raw markup.
type Preparer struct {
	policy      *bluemonday.Policy
	mdConverter *converter.Converter
	maxBytes    int
}

// NewPreparer creates a Preparer. maxBytes <= 0 uses DefaultMaxContentBytes.
func NewPreparer(maxBytes int) *Preparer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxContentBytes
	}
	return &Preparer{
		policy: bluemonday.UGCPolicy(),
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		maxBytes: maxBytes,
	}
}

// Prepare sanitizes the markup, converts it to markdown and applies the byte
// ceiling. Conversion failure falls back to the sanitized text rather than
// failing the source.
func (p *Preparer) Prepare(rawHTML []byte, sourceURL string) *Prepared {
	out := &Prepared{TitleHint: pageTitle(rawHTML)}

	clean := p.policy.Sanitize(string(rawHTML))

	md, err := p.mdConverter.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(md) == "" {
		md = clean
	}
	md = strings.TrimSpace(md)

	if len(md) > p.maxBytes {
		md = md[:p.maxBytes]
		out.Truncated = true
	}
	out.Content = md
	return out
}

// pageTitle extracts the <title> text, or "".
func pageTitle(rawHTML []byte) string {
	doc, err := html.Parse(strings.NewReader(string(rawHTML)))
	if err != nil {
		return ""
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
