package confluence

import (
	"net/url"

	html2md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/mackee/go-readability"
)

// ToMarkdown converts the HTML body of a page or search result to
// Markdown. Readability extraction is tried first; when it cannot
// build a document tree the raw HTML is converted directly.
func (c *Client) ToMarkdown(body string) (string, error) {
	article, err := readability.Extract(body, readability.DefaultOptions())
	if err == nil && article.Root != nil {
		return readability.ToMarkdown(article.Root), nil
	}

	domain := ""
	if u, err := url.Parse(c.baseURL); err == nil {
		domain = u.Host
	}

	converter := html2md.NewConverter(domain, true, &html2md.Options{})
	md, err := converter.ConvertString(body)
	if err != nil {
		return "", err
	}
	return md, nil
}
