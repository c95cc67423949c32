// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/finbrief/pkg/types"
)

func articleHTML() string {
	para := strings.Repeat("Corporate credit spreads widened sharply as investors repriced default risk. ", 5)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Credit Markets Weekly</title></head>
<body>
<nav>Home | Markets | About</nav>
<article>
<h1>Credit Markets Weekly</h1>
<p>%s</p>
<p>%s</p>
</article>
<script>trackPageView();</script>
</body>
</html>`, para, para)
}

func TestFetch_ReadabilityPath(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "finbrief/0.1" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML())
	}))
	defer ts.Close()

	f := New(types.FetchConfig{})
	text := f.Fetch(context.Background(), ts.URL)

	if !strings.Contains(text, "credit spreads widened sharply") {
		t.Errorf("article body missing from %q", text)
	}
	if strings.Contains(text, "trackPageView") {
		t.Errorf("script content leaked into %q", text)
	}
}

func TestFetch_PlainTextFallback(t *testing.T) {
	// Too short for readability to treat as an article body.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>Rates held steady.</p><script>x()</script></body></html>`)
	}))
	defer ts.Close()

	f := New(types.FetchConfig{})
	text := f.Fetch(context.Background(), ts.URL)

	if !strings.Contains(text, "Rates held steady.") {
		t.Errorf("fallback text = %q", text)
	}
	if strings.Contains(text, "x()") {
		t.Errorf("script content leaked into %q", text)
	}
}

func TestFetch_PDFLandingPageFallsBackToHTML(t *testing.T) {
	// Publishers serve HTML landing pages at .pdf URLs; PDF extraction
	// yields nothing and the HTML path must take over.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, articleHTML())
	}))
	defer ts.Close()

	f := New(types.FetchConfig{})
	text := f.Fetch(context.Background(), ts.URL+"/landing.pdf")

	if !strings.Contains(text, "credit spreads widened sharply") {
		t.Errorf("landing page body missing from %q", text)
	}
}

func TestFetch_UnparseablePDFFallsThroughToPlainParse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4\nnot actually a pdf body"))
	}))
	defer ts.Close()

	f := New(types.FetchConfig{})
	text := f.Fetch(context.Background(), ts.URL+"/broken.pdf")
	if !strings.Contains(text, "not actually a pdf body") {
		t.Errorf("plain-parse fallback missing, got %q", text)
	}
}

func TestFetch_ControlBytesStrippedBeforeParse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, strings.ReplaceAll(articleHTML(), "widened sharply", "widened\x0c\x00 sharply"))
	}))
	defer ts.Close()

	f := New(types.FetchConfig{})
	text := f.Fetch(context.Background(), ts.URL)

	if !strings.Contains(text, "widened sharply") {
		t.Errorf("control bytes not stripped before extraction: %q", text)
	}
	if strings.ContainsAny(text, "\x0c\x00") {
		t.Errorf("control bytes leaked into %q", text)
	}
}

func TestFetch_HTTPErrorYieldsEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	f := New(types.FetchConfig{})
	if text := f.Fetch(context.Background(), ts.URL); text != "" {
		t.Errorf("got %q, want empty on 404", text)
	}
}

func TestFetch_UnreachableYieldsEmpty(t *testing.T) {
	f := New(types.FetchConfig{})
	if text := f.Fetch(context.Background(), "http://127.0.0.1:1/nothing"); text != "" {
		t.Errorf("got %q, want empty on connection failure", text)
	}
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		contentType string
		url         string
		want        bool
	}{
		{"application/pdf", "https://example.com/doc", true},
		{"application/PDF; charset=binary", "https://example.com/doc", true},
		{"text/html", "https://example.com/paper.pdf", true},
		{"text/html", "https://example.com/paper.PDF", true},
		{"text/html", "https://example.com/page?file=x.pdf", false},
		{"text/html", "https://example.com/page", false},
	}
	for _, tt := range tests {
		if got := isPDF(tt.contentType, tt.url); got != tt.want {
			t.Errorf("isPDF(%q, %q) = %v", tt.contentType, tt.url, got)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"keeps tab newline cr", "a\tb\nc\rd", "a\tb\nc\rd"},
		{"strips form feed and vertical tab", "a\x0cb\x0bc", "abc"},
		{"strips DEL", "a\x7fb", "ab"},
		{"keeps multibyte", "хүү 5%\x00 байна", "хүү 5% байна"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.in); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
