package browser

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/pagelet/fetch"
	"github.com/ByLCY/pagelet/layout"
)

// fixedMetrics: 每个字符 10px，行高 16px（换行步长 20px）。
type fixedMetrics struct{}

func (fixedMetrics) MeasureText(text string, _ layout.Font) float64 {
	return 10 * float64(utf8.RuneCountInString(text))
}

func (fixedMetrics) LineHeight(layout.Font) float64 { return 16 }

type stubFetcher map[string]string

var errNotFound = errors.New("stub: not found")

func (f stubFetcher) Fetch(_ context.Context, raw string) (string, error) {
	body, ok := f[raw]
	if !ok {
		return "", errNotFound
	}
	return body, nil
}

func lines(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "line"
	}
	return strings.Join(parts, "\n")
}

func newTestSession(t *testing.T, docs stubFetcher) *Session {
	t.Helper()
	s, err := New(Options{Fetcher: docs, Metrics: fixedMetrics{}, Viewport: layout.Viewport{Width: 800, Height: 600}})
	require.NoError(t, err)
	return s
}

func TestNewRequiresMetrics(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	s, err := New(Options{Metrics: fixedMetrics{}})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, s.ID)

	frame := s.Frame()
	require.Equal(t, layout.Viewport{Width: DefaultWidth, Height: DefaultHeight}, frame.Viewport)
	require.Empty(t, frame.Words)
	require.Equal(t, DefaultScrollbarWidth, frame.Scrollbar.Width)
	require.Equal(t, DefaultHeight, frame.Scrollbar.Height)
	require.False(t, s.Loaded())
}

func TestLoad(t *testing.T) {
	s := newTestSession(t, stubFetcher{"http://example.org/": "<i>hi</i> there"})
	require.NoError(t, s.Load(context.Background(), "http://example.org/"))
	require.True(t, s.Loaded())
	require.Len(t, s.Tokens(), 4)

	frame := s.Frame()
	require.Len(t, frame.Words, 2)
	require.Equal(t, layout.SlantItalic, frame.Words[0].Slant)
	require.Equal(t, layout.HStep+20+10, frame.Words[1].X)
	require.Equal(t, layout.VStep, frame.MaxHeight)
}

func TestLoadFailureShowsEmptyDocument(t *testing.T) {
	s := newTestSession(t, stubFetcher{"http://example.org/": lines(100)})
	require.NoError(t, s.Load(context.Background(), "http://example.org/"))
	s.ScrollDown()

	err := s.Load(context.Background(), "http://missing.example/")
	require.ErrorIs(t, err, errNotFound)
	require.True(t, s.Loaded())
	require.Empty(t, s.Frame().Words)
	require.Zero(t, s.Frame().MaxHeight)
	require.Zero(t, s.Offset())
}

func TestLoadWithoutFetcher(t *testing.T) {
	s, err := New(Options{Metrics: fixedMetrics{}})
	require.NoError(t, err)
	require.Error(t, s.Load(context.Background(), "http://example.org/"))
}

func TestScrollIsClamped(t *testing.T) {
	s := newTestSession(t, stubFetcher{"doc": lines(100)})
	require.Zero(t, s.ScrollDown(), "scrolling before load must be a no-op")

	require.NoError(t, s.Load(context.Background(), "doc"))
	maxHeight := s.Result().MaxHeight
	require.Equal(t, layout.VStep+99*20, maxHeight)

	require.Equal(t, 100.0, s.ScrollDown())
	require.Equal(t, 0.0, s.ScrollUp())
	require.Equal(t, 0.0, s.ScrollUp())

	for i := 0; i < 100; i++ {
		s.ScrollDown()
	}
	require.Equal(t, maxHeight-600, s.Offset())

	frame := s.Frame()
	require.Equal(t, math.Floor(s.Offset()/maxHeight*600), frame.Scrollbar.Y)
	for _, w := range frame.VisibleWords() {
		require.True(t, layout.Visible(w, s.Offset(), 600))
	}
}

func TestScrollShortDocumentStaysAtTop(t *testing.T) {
	s := newTestSession(t, stubFetcher{"doc": "short"})
	require.NoError(t, s.Load(context.Background(), "doc"))
	require.Zero(t, s.ScrollDown())
	require.Zero(t, s.Scroll(-50))
}

func TestWheel(t *testing.T) {
	s := newTestSession(t, stubFetcher{"doc": lines(100)})
	require.NoError(t, s.Load(context.Background(), "doc"))
	require.Equal(t, 100.0, s.Wheel(-120))
	require.Equal(t, 100.0, s.Wheel(0))
	require.Equal(t, 0.0, s.Wheel(120))
}

func TestResizeRelayouts(t *testing.T) {
	body := strings.Repeat("word ", 40)
	s := newTestSession(t, stubFetcher{"doc": body})
	require.NoError(t, s.Load(context.Background(), "doc"))
	wide := s.Result().MaxHeight

	require.NoError(t, s.Resize(200, 600))
	narrow := s.Result().MaxHeight
	require.Greater(t, narrow, wide)
	for _, w := range s.Frame().Words {
		require.LessOrEqual(t, w.X+w.Width, 200-layout.HStep)
	}

	require.Error(t, s.Resize(0, 600))
}

func TestResizeReclampsScroll(t *testing.T) {
	s := newTestSession(t, stubFetcher{"doc": lines(100)})
	require.NoError(t, s.Load(context.Background(), "doc"))
	for i := 0; i < 100; i++ {
		s.ScrollDown()
	}
	require.NoError(t, s.Resize(800, 5000))
	require.Equal(t, layout.MaxScroll(s.Result().MaxHeight, 5000), s.Offset())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<b>bold</b>\nplain"), 0o644))

	s, err := New(Options{Fetcher: fetch.New(fetch.Options{}), Metrics: fixedMetrics{}})
	require.NoError(t, err)
	require.NoError(t, s.Load(context.Background(), "file://"+path))

	words := s.Frame().Words
	require.Len(t, words, 2)
	require.Equal(t, layout.WeightBold, words[0].Weight)
	require.Equal(t, layout.VStep+20, words[1].Y)
}
