package provider

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stripHTML returns the visible text of an HTML fragment with whitespace collapsed.
// Google News descriptions are an anchor plus a <font> element naming the outlet.
func stripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
