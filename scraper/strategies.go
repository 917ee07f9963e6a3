package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Common article containers, tried in order. The first selector that
// matches wins; among its matches the largest text block is taken.
var contentSelectors = []string{
	"article", ".article-content", ".entry-content",
	".post-content", ".story-body", ".article-body",
	`[itemprop="articleBody"]`, ".news-article", ".story",
	".content", ".post", ".article", ".story-content",
	"#content", "#article-body", ".main-content",
}

// Noise stripped from within a matched block and from fallback documents.
var noiseSelectors = []string{
	".ad", ".advertisement", ".social-share", ".related",
	".sidebar", ".comment", ".footer", ".nav", ".menu",
	".subscription", ".newsletter", ".popup", ".overlay",
	".cookie-notice",
}

var structuralSelectors = []string{
	"header", "footer", "nav", "aside",
	"script", "style", "noscript", "iframe", "svg",
}

// outcome is the tagged result of one extraction strategy.
type outcome struct {
	text   string
	reason string
}

func ok(text string) outcome       { return outcome{text: text} }
func failed(reason string) outcome { return outcome{reason: reason} }

func (o outcome) ok() bool { return o.reason == "" }

type strategy struct {
	name string
	run  func(doc *goquery.Document, rawHTML string) outcome
}

// The cascade: CSS selectors, long paragraphs, readability, trafilatura,
// body text, whole-document text. Later strategies only run when every
// earlier one produced nothing.
var strategies = []strategy{
	{name: "selectors", run: selectorBlocks},
	{name: "paragraphs", run: longParagraphs},
	{name: "readability", run: readabilityText},
	{name: "trafilatura", run: trafilaturaText},
	{name: "body", run: bodyText},
	{name: "document", run: documentText},
}

// selectorBlocks picks, for the first matching selector, the element with
// the largest text and strips noise sub-elements from it.
func selectorBlocks(doc *goquery.Document, _ string) outcome {
	for _, selector := range contentSelectors {
		matches := doc.Find(selector)
		if matches.Length() == 0 {
			continue
		}

		var largest *goquery.Selection
		largestLen := -1
		matches.Each(func(_ int, s *goquery.Selection) {
			if l := len(s.Text()); l > largestLen {
				largest = s
				largestLen = l
			}
		})

		for _, noise := range noiseSelectors {
			largest.Find(noise).Remove()
		}
		return ok(largest.Text())
	}
	return failed("no content selector matched")
}

// longParagraphs strips structural and noise elements from the whole
// document and joins every paragraph longer than 50 characters.
func longParagraphs(doc *goquery.Document, _ string) outcome {
	for _, sel := range structuralSelectors {
		doc.Find(sel).Remove()
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); len(text) > 50 {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return failed("no long paragraphs")
	}
	return ok(strings.Join(paragraphs, "\n\n"))
}

func readabilityText(_ *goquery.Document, rawHTML string) outcome {
	node, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return failed(err.Error())
	}
	article, err := readability.FromDocument(node, nil)
	if err != nil {
		return failed(err.Error())
	}
	return ok(article.TextContent)
}

func trafilaturaText(_ *goquery.Document, rawHTML string) outcome {
	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{})
	if err != nil {
		return failed(err.Error())
	}
	return ok(result.ContentText)
}

func bodyText(doc *goquery.Document, _ string) outcome {
	body := doc.Find("body")
	if body.Length() == 0 {
		return failed("no body element")
	}
	return ok(body.Text())
}

func documentText(doc *goquery.Document, _ string) outcome {
	return ok(doc.Text())
}

var (
	blankLineSplit = regexp.MustCompile(`\n\s*\n`)
	innerSpace     = regexp.MustCompile(`\s+`)
)

// cleanText collapses repeated whitespace within paragraphs and rejoins
// paragraphs with a single blank line.
func cleanText(content string) string {
	var paragraphs []string
	for _, p := range blankLineSplit.Split(content, -1) {
		p = strings.TrimSpace(innerSpace.ReplaceAllString(p, " "))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
