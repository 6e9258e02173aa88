// Package annotate discovers links in a document, resolves their visited
// status through the query cache, and applies a visual marker class,
// re-scanning incrementally as the document mutates.
package annotate

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkmark/linkmark/pkg/urlnorm"
)

// ScanResult is the outcome of one document scan: the ordered distinct
// normalized URL list and the link elements backing each URL (one URL may
// back several elements).
type ScanResult struct {
	URLs     []string
	Elements map[string][]*goquery.Selection
}

// Scan collects all link elements with a resolvable, non-fragment,
// http(s) target, resolved against base. URLs matched by the optional
// exclude predicate are dropped.
func Scan(doc *goquery.Document, base *url.URL, exclude func(string) bool) *ScanResult {
	result := &ScanResult{Elements: make(map[string][]*goquery.Selection)}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		norm, ok := urlnorm.Resolvable(base, href)
		if !ok {
			return
		}
		if exclude != nil && exclude(norm) {
			return
		}
		if _, seen := result.Elements[norm]; !seen {
			result.URLs = append(result.URLs, norm)
		}
		result.Elements[norm] = append(result.Elements[norm], sel)
	})

	return result
}
