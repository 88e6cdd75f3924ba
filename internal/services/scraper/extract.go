package scraper

import (
	"strings"
	"unicode/utf8"

	"codeberg.org/readeck/go-readability/v2"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// extractFunc pulls article text out of an outlet page. It may modify doc.
type extractFunc func(doc *goquery.Document) string

const (
	// minFallbackParagraph is the shortest paragraph kept by the generic fallback
	minFallbackParagraph = 50

	// minReadabilityText filters readability results that only caught a title or byline
	minReadabilityText = 200
)

// ExtractText runs the outlet extractor, then the generic paragraph fallback,
// then readability. It returns "" when nothing usable is found.
func ExtractText(html string, extract extractFunc) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if extract != nil {
		if text := strings.TrimSpace(extract(doc)); text != "" {
			return text
		}
	}

	if text := paragraphFallback(doc); text != "" {
		return text
	}

	return readabilityText(html)
}

// cleanText collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func paragraphTexts(sel *goquery.Selection) []string {
	var out []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out
}

// firstMatch returns the first element matching any selector, in selector order
func firstMatch(doc *goquery.Document, selectors ...string) *goquery.Selection {
	for _, selector := range selectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

// containerText returns the container's paragraphs, or its whole text if it has none
func containerText(container *goquery.Selection) string {
	if container == nil {
		return ""
	}
	if paras := paragraphTexts(container); len(paras) > 0 {
		return strings.Join(paras, "\n")
	}
	return cleanText(container.Text())
}

// paragraphFallback keeps every paragraph longer than minFallbackParagraph characters
func paragraphFallback(doc *goquery.Document) string {
	var out []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := cleanText(p.Text())
		if utf8.RuneCountInString(text) > minFallbackParagraph {
			out = append(out, text)
		}
	})
	return strings.Join(out, "\n")
}

func readabilityText(html string) string {
	article, err := readability.FromReader(strings.NewReader(html), nil)
	if err != nil {
		return ""
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}

	text := strings.TrimSpace(buf.String())
	if utf8.RuneCountInString(text) < minReadabilityText {
		return ""
	}
	return text
}

var wsjParagraphClasses = map[string]bool{
	"css-1akm6h5-Paragraph e1e4oisd0":     true,
	"e141zjhk0 css-18f125c-FormattedText": true,
}

// extractWSJ keeps paragraphs whose class list is exactly one of the article body styles
func extractWSJ(doc *goquery.Document) string {
	var out []string
	doc.Find("p[class]").Each(func(_ int, p *goquery.Selection) {
		class := strings.Join(strings.Fields(p.AttrOr("class", "")), " ")
		if !wsjParagraphClasses[class] {
			return
		}
		if text := cleanText(p.Text()); text != "" {
			out = append(out, text)
		}
	})
	return strings.Join(out, "\n")
}

// extractFT converts the article body to markdown and flattens it. Without an
// article element the body.content wrapper is used as plain text.
func extractFT(doc *goquery.Document) string {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		if body := doc.Find("body.content").First(); body.Length() > 0 {
			return cleanText(body.Text())
		}
		return ""
	}

	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "img", "figure", "button", "aside", "nav", "form")
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String(content)
		},
	})

	return flattenMarkdown(converter.Convert(article))
}

var markdownEmphasis = strings.NewReplacer("**", "", "__", "", "`", "")

// flattenMarkdown drops heading and quote markers and emphasis, keeping one line per block
func flattenMarkdown(markdown string) string {
	var out []string
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#> ")
		line = cleanText(markdownEmphasis.Replace(line))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// extractReuters reads the summary bullets and the numbered paragraph blocks.
// Visually hidden spans (screen-reader text) are removed first.
func extractReuters(doc *goquery.Document) string {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return ""
	}

	var bullets []string
	article.Find(`ul[data-testid="Summary"] li[data-testid="Body"]`).Each(func(_ int, li *goquery.Selection) {
		if text := cleanText(li.Text()); text != "" {
			bullets = append(bullets, "• "+text)
		}
	})

	var paragraphs []string
	article.Find(`div[data-testid^="paragraph-"]`).Each(func(_ int, div *goquery.Selection) {
		div.Find("span").FilterFunction(func(_ int, span *goquery.Selection) bool {
			style := span.AttrOr("style", "")
			return strings.Contains(style, "clip") && strings.Contains(style, "absolute")
		}).Remove()

		if text := cleanText(div.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	var blocks []string
	if len(bullets) > 0 {
		blocks = append(blocks, strings.Join(bullets, "\n"))
	}
	if len(paragraphs) > 0 {
		blocks = append(blocks, strings.Join(paragraphs, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func extractEconomicTimes(doc *goquery.Document) string {
	return containerText(firstMatch(doc, "div.artText", "div.Normal"))
}

func extractTimesOfIndia(doc *goquery.Document) string {
	return containerText(firstMatch(doc, "div._s30J.clearfix", "div.Normal", "article"))
}
