// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads source documents and extracts their readable
// text. Extraction is best-effort: any failure yields empty text rather
// than an error, so one dead link never aborts a research run.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/finbrief/pkg/types"
)

// minReadableChars is the threshold below which the readability
// extraction is considered to have missed the article body and the
// plain-text fallback is used instead.
const minReadableChars = 200

// maxBodyBytes caps how much of a response body is read. Large PDFs
// past this point rarely add extractable prose.
const maxBodyBytes = 20 << 20

// Fetcher downloads pages and PDFs over HTTP.
type Fetcher struct {
	cfg  types.FetchConfig
	http *http.Client
}

// New constructs a Fetcher. A zero timeout defaults to 20s.
func New(cfg types.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (f *Fetcher) userAgent() string {
	if f.cfg.UserAgent != "" {
		return f.cfg.UserAgent
	}
	return "finbrief/0.1"
}

// Fetch downloads rawURL and returns its readable text content. HTML
// goes through readability extraction with a plain-text fallback; PDFs
// go through page-by-page text extraction, falling back to HTML parsing
// when that yields nothing. Returns "" when the document cannot be
// fetched or yields no text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", f.userAgent())

	resp, err := f.http.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ""
	}

	if isPDF(resp.Header.Get("Content-Type"), rawURL) {
		if text := sanitize(pdfText(body)); text != "" {
			return text
		}
		// .pdf URLs sometimes serve HTML landing pages; fall through.
	}
	return htmlText([]byte(sanitize(string(body))), rawURL)
}

// isPDF reports whether the response should be treated as a PDF, by
// content type first and URL extension as a fallback.
func isPDF(contentType, rawURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// htmlText extracts the main article text from an HTML document. When
// readability extracts too little it falls back to the text of the
// whole body with scripts and styles removed.
func htmlText(body []byte, rawURL string) string {
	pageURL, _ := url.Parse(rawURL)

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		text := strings.TrimSpace(article.TextContent)
		if len([]rune(text)) >= minReadableChars {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(doc.Find("body").Text())
}

// pdfText extracts plain text from each page of a PDF. Pages that fail
// to extract are skipped.
func pdfText(body []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return strings.TrimSpace(sb.String())
}

// sanitize strips C0 control characters except tab, newline and
// carriage return. HTML is sanitized before extraction so control
// bytes cannot perturb the parse; PDF text is sanitized after
// extraction, which leaks form feeds and vertical tabs that break
// downstream JSON prompts.
func sanitize(text string) string {
	if text == "" {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r == '\t' || r == '\n' || r == '\r' {
			sb.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
