package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"concept-visualizer-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longParagraph(word string) string {
	return strings.TrimSpace(strings.Repeat(word+" ", 120))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{raw: "https://example.com/article", wantErr: false},
		{raw: "http://example.com", wantErr: false},
		{raw: "example.com", wantErr: true},
		{raw: "ftp://example.com/file", wantErr: true},
		{raw: "https://", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ValidateURL(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPDFURL(t *testing.T) {
	assert.True(t, IsPDFURL("https://example.com/paper.PDF"))
	assert.True(t, IsPDFURL("https://arxiv.org/pdf/1706.03762"))
	assert.False(t, IsPDFURL("https://example.com/blog/post"))
}

func TestExtractText(t *testing.T) {
	page := `<html><head><title>Ignored title</title><style>p{}</style></head><body>
<nav>Home About</nav>
<header>Site header</header>
<div class="sidebar">Related links</div>
<article>
  <h1>Transformers</h1>
  <p>Attention   is
  all you need.</p>
  <!-- a comment -->
  <script>alert(1)</script>
  <p>Self-attention <em>relates</em> positions.</p>
</article>
<footer>Copyright</footer>
</body></html>`

	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Transformers\n\nAttention is all you need.\n\nSelf-attention relates positions.", text)
}

func TestExtractText_FallsBackToBody(t *testing.T) {
	text, err := ExtractText(strings.NewReader(`<body><p>One.</p><p>Two.</p><form>Search</form></body>`))
	require.NoError(t, err)
	assert.Equal(t, "One.\n\nTwo.", text)
}

func TestExtractText_SelectorPriority(t *testing.T) {
	page := `<body><div id="content">Secondary</div><main>Primary</main></body>`
	text, err := ExtractText(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Primary", text)
}

func TestScraper_Fetch(t *testing.T) {
	body := longParagraph("concept")
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><main><p>" + body + "</p></main></body></html>"))
	})
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>tiny</p>"))
	})
	mux.HandleFunc("/binary", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	scraper := NewScraper(50*time.Millisecond, logger.NewNopLogger())
	ctx := context.Background()

	text, err := scraper.Fetch(ctx, srv.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, body, text)

	_, err = scraper.Fetch(ctx, srv.URL+"/short")
	assert.ErrorIs(t, err, ErrContentTooShort)

	_, err = scraper.Fetch(ctx, srv.URL+"/binary")
	assert.ErrorIs(t, err, ErrPDFURL)

	_, err = scraper.Fetch(ctx, srv.URL+"/paper.pdf")
	assert.ErrorIs(t, err, ErrPDFURL)

	_, err = scraper.Fetch(ctx, srv.URL+"/missing")
	assert.ErrorIs(t, err, ErrFetch)

	_, err = scraper.Fetch(ctx, srv.URL+"/slow")
	assert.ErrorIs(t, err, ErrFetch)

	_, err = scraper.Fetch(ctx, "not a url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestExtractPDF_Invalid(t *testing.T) {
	_, err := ExtractPDF(strings.NewReader("hello world"))
	assert.ErrorIs(t, err, ErrInvalidPDF)

	_, err = ExtractPDF(strings.NewReader("%PDF-1.4\nnot really a pdf"))
	assert.ErrorIs(t, err, ErrInvalidPDF)
}
