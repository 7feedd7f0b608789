package layout

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/pagelet/lexer"
)

// stubMetrics 是一个最小实现，仅用于测试，避免依赖 renderer 造成循环依赖。
// 常规字每个字符 7px，粗体 8px；常规行高 16px，粗体 20px。
type stubMetrics struct {
	sizes []float64
}

func (s *stubMetrics) MeasureText(text string, font Font) float64 {
	s.sizes = append(s.sizes, font.Size)
	per := 7.0
	if font.Weight == WeightBold {
		per = 8
	}
	return per * float64(utf8.RuneCountInString(text))
}

func (s *stubMetrics) LineHeight(font Font) float64 {
	if font.Weight == WeightBold {
		return 20
	}
	return 16
}

func computeString(t *testing.T, body string, width float64) *Result {
	t.Helper()
	res, err := Compute(lexer.Lex(body), Viewport{Width: width, Height: 600}, Options{Metrics: &stubMetrics{}})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return res
}

func TestComputeEndToEnd(t *testing.T) {
	res := computeString(t, "<i>hi</i> there", 800)
	if len(res.Words) != 2 {
		t.Fatalf("expected 2 words, got %d: %+v", len(res.Words), res.Words)
	}
	hi, there := res.Words[0], res.Words[1]
	if hi.Text != "hi" || hi.Slant != SlantItalic || hi.X != 13 || hi.Y != 18 {
		t.Fatalf("unexpected first word: %+v", hi)
	}
	wantX := 13 + 14.0 + 7.0
	if there.Text != "there" || there.Slant != SlantRoman || there.X != wantX || there.Y != 18 {
		t.Fatalf("unexpected second word: %+v (want x=%g)", there, wantX)
	}
	if res.MaxHeight != 18 {
		t.Fatalf("MaxHeight 期望 18，实际 %g", res.MaxHeight)
	}
	if res.ScrollbarHeight != 600 {
		t.Fatalf("内容未超出视口时滑块应占满轨道，实际 %g", res.ScrollbarHeight)
	}
}

func TestComputeAppliesBold(t *testing.T) {
	res, err := Compute([]lexer.Token{lexer.Tag{Tag: "b"}, lexer.Text{Text: "x"}}, Viewport{Width: 800, Height: 600}, Options{Metrics: &stubMetrics{}})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(res.Words) != 1 || res.Words[0].Weight != WeightBold {
		t.Fatalf("expected bold x, got %+v", res.Words)
	}
	if res.Words[0].Width != 8 {
		t.Fatalf("bold width should come from bold metrics, got %g", res.Words[0].Width)
	}
}

func TestComputeWrapsAtRightMargin(t *testing.T) {
	// 两个词各 28px，空格 7px；第二个词放在 48 处会超出 80-13。
	res := computeString(t, "aaaa bbbb", 80)
	if len(res.Words) != 2 {
		t.Fatalf("expected 2 words, got %+v", res.Words)
	}
	first, second := res.Words[0], res.Words[1]
	if second.Y != first.Y+20 {
		t.Fatalf("second word should drop one line: first.y=%g second.y=%g", first.Y, second.Y)
	}
	if second.X != HStep {
		t.Fatalf("second word x should reset to %g, got %g", HStep, second.X)
	}
	if res.MaxHeight != 38 {
		t.Fatalf("MaxHeight 期望 38，实际 %g", res.MaxHeight)
	}
}

func TestComputeFitsExactlyAtMargin(t *testing.T) {
	// 13 + 28 + 7 + 28 = 76 == 89 - 13，恰好不换行。
	res := computeString(t, "aaaa bbbb", 89)
	if res.Words[1].Y != res.Words[0].Y {
		t.Fatalf("word touching the margin must stay on the line: %+v", res.Words)
	}
}

func TestComputeOverwideWordBreaksFirst(t *testing.T) {
	// 30 个字符 = 210px，即使在行首也超出 100-13，先换行再放置。
	res := computeString(t, strings.Repeat("w", 30), 100)
	if len(res.Words) != 1 {
		t.Fatalf("expected 1 word, got %+v", res.Words)
	}
	w := res.Words[0]
	if w.X != HStep || w.Y != VStep+20 {
		t.Fatalf("overwide word should start a new line at (%g, %g), got (%g, %g)", HStep, VStep+20, w.X, w.Y)
	}
	if res.MaxHeight != VStep+20 {
		t.Fatalf("MaxHeight 期望 %g，实际 %g", VStep+20, res.MaxHeight)
	}
}

func TestComputeNewlines(t *testing.T) {
	tokens := lexer.Lex("a\nb")
	if len(tokens) != 1 {
		t.Fatalf("expected a single text run, got %v", tokens)
	}
	res := computeString(t, "a\nb", 800)
	if len(res.Words) != 2 {
		t.Fatalf("expected 2 words, got %+v", res.Words)
	}
	if res.Words[0].Text != "a" || res.Words[0].Y != 18 {
		t.Fatalf("unexpected first word %+v", res.Words[0])
	}
	if res.Words[1].Text != "b" || res.Words[1].Y != 38 || res.Words[1].X != HStep {
		t.Fatalf("unexpected second word %+v", res.Words[1])
	}
	for _, w := range res.Words {
		if strings.Contains(w.Text, "\n") {
			t.Fatalf("word contains newline: %q", w.Text)
		}
	}
}

func TestComputeBlankLines(t *testing.T) {
	res := computeString(t, "a\n\nb\n", 800)
	if got := res.Words[1].Y; got != 18+40 {
		t.Fatalf("空行应占一行高度，b.y=%g", got)
	}
	if res.MaxHeight != 18+60 {
		t.Fatalf("末尾换行计入 MaxHeight，实际 %g", res.MaxHeight)
	}
}

func TestLineBreakUsesActiveFont(t *testing.T) {
	res := computeString(t, "<b>a\nb", 800)
	if got := res.Words[1].Y; got != 18+25 {
		t.Fatalf("粗体换行应使用粗体行高，b.y=%g", got)
	}
}

func TestStyleFlagsAreFlat(t *testing.T) {
	res := computeString(t, "<b><i>x</i>y</b>z", 800)
	want := []struct {
		w Weight
		s Slant
	}{
		{WeightBold, SlantItalic},
		{WeightBold, SlantRoman},
		{WeightNormal, SlantRoman},
	}
	if len(res.Words) != len(want) {
		t.Fatalf("unexpected words %+v", res.Words)
	}
	for i, w := range want {
		if res.Words[i].Weight != w.w || res.Words[i].Slant != w.s {
			t.Fatalf("word %d style mismatch: %+v", i, res.Words[i])
		}
	}

	// 重复的 <b> 不形成嵌套，第一个 </b> 即恢复常规。
	res = computeString(t, "<b>x<b>y</b>z", 800)
	if res.Words[2].Weight != WeightNormal {
		t.Fatalf("flat flags must not nest: %+v", res.Words[2])
	}
}

func TestUnknownAndUnmatchedTagsAreIgnored(t *testing.T) {
	res := computeString(t, "</b></i><p class=x>text<br>", 800)
	if len(res.Words) != 1 {
		t.Fatalf("unexpected words %+v", res.Words)
	}
	if w := res.Words[0]; w.Weight != WeightNormal || w.Slant != SlantRoman {
		t.Fatalf("unexpected style %+v", w)
	}
}

func TestComputeEmptyDocument(t *testing.T) {
	res := computeString(t, "", 800)
	if len(res.Words) != 0 || res.MaxHeight != 0 {
		t.Fatalf("缺失文档应得到高度为 0 的空文档: %+v", res)
	}
	res = computeString(t, "<b></b>", 800)
	if len(res.Words) != 0 || res.MaxHeight != VStep {
		t.Fatalf("只有标记的文档高度应为 VStep: %+v", res)
	}
}

func TestComputeRequiresMetrics(t *testing.T) {
	if _, err := Compute(nil, Viewport{Width: 800, Height: 600}, Options{}); err == nil {
		t.Fatalf("缺少 Metrics 时应返回错误")
	}
}

func TestComputeUsesConfiguredFontSize(t *testing.T) {
	m := &stubMetrics{}
	if _, err := Compute(lexer.Lex("x"), Viewport{Width: 800, Height: 600}, Options{Metrics: m}); err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	for _, s := range m.sizes {
		if s != DefaultFontSize {
			t.Fatalf("expected default size %g, got %g", DefaultFontSize, s)
		}
	}
	m = &stubMetrics{}
	res, err := Compute(lexer.Lex("x"), Viewport{Width: 800, Height: 600}, Options{Metrics: m, FontSize: 12})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if res.FontSize != 12 || m.sizes[0] != 12 {
		t.Fatalf("configured size not applied: %g %v", res.FontSize, m.sizes)
	}
}

func TestEngineStepPerToken(t *testing.T) {
	e, err := NewEngine(Viewport{Width: 800, Height: 600}, Options{Metrics: &stubMetrics{}})
	if err != nil {
		t.Fatalf("创建引擎失败: %v", err)
	}
	st := InitialState()
	st, words := e.Step(st, lexer.Tag{Tag: "i"})
	if len(words) != 0 || st.Slant != SlantItalic || st.X != HStep {
		t.Fatalf("tag step mismatch: %+v %v", st, words)
	}
	st, words = e.Step(st, lexer.Text{Text: "ab cd"})
	if len(words) != 2 || st.X != HStep+14+7+14+7 {
		t.Fatalf("text step mismatch: %+v %v", st, words)
	}
}

func TestScrollbarHeight(t *testing.T) {
	cases := []struct {
		max, vh, want float64
	}{
		{0, 600, 600},
		{600, 600, 600},
		{400, 600, 600},
		{1200, 600, 600},
		{6600, 600, 60},
		{100000, 600, 30},
	}
	for _, tc := range cases {
		if got := ScrollbarHeight(tc.max, tc.vh); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ScrollbarHeight(%g, %g) = %g, want %g", tc.max, tc.vh, got, tc.want)
		}
	}
}

func TestClampScrollStaysInRange(t *testing.T) {
	for _, maxH := range []float64{0, 18, 600, 601, 5000} {
		for _, start := range []float64{0, 50, 300} {
			for _, delta := range []float64{-10000, -100, -1, 0, 1, 100, 10000} {
				limit := math.Max(0, maxH-600)
				if start > limit {
					continue
				}
				got := ClampScroll(start, delta, maxH, 600)
				if got < 0 || got > limit {
					t.Fatalf("ClampScroll(%g, %g, %g) = %g out of [0, %g]", start, delta, maxH, got, limit)
				}
			}
		}
	}
	if got := ClampScroll(100, 100, 5000, 600); got != 200 {
		t.Fatalf("in-range scroll should apply delta, got %g", got)
	}
}

func TestScrollbarY(t *testing.T) {
	if got := ScrollbarY(100, 0, 600); got != 0 {
		t.Fatalf("空文档滑块位置应为 0，实际 %g", got)
	}
	if got := ScrollbarY(1000, 3000, 600); got != 200 {
		t.Fatalf("ScrollbarY 期望 200，实际 %g", got)
	}
	if got := ScrollbarY(10, 3000, 600); got != 2 {
		t.Fatalf("ScrollbarY 应向下取整，实际 %g", got)
	}
}

func TestFrameCullsOffscreenWords(t *testing.T) {
	res := &Result{
		Viewport: Viewport{Width: 800, Height: 100},
		Words: []Word{
			{Text: "above", Y: 10},
			{Text: "edge", Y: 190},
			{Text: "inside", Y: 250},
			{Text: "below", Y: 301},
		},
		MaxHeight:       1000,
		ScrollbarHeight: ScrollbarHeight(1000, 100),
	}
	f := NewFrame(res, 200, 24)
	var got []string
	for _, w := range f.VisibleWords() {
		got = append(got, w.Text)
	}
	if strings.Join(got, ",") != "edge,inside" {
		t.Fatalf("unexpected visible words %v", got)
	}
	if f.Scrollbar.X != 776 || f.Scrollbar.Y != 20 || f.Scrollbar.Width != 24 {
		t.Fatalf("unexpected scrollbar %+v", f.Scrollbar)
	}
	if empty := NewFrame(nil, 0, 24); empty.Words == nil {
		t.Fatalf("nil result should give an empty frame")
	}
}

func TestWriteDebugJSON(t *testing.T) {
	tokens := lexer.Lex("<b>hi</b>")
	res, err := Compute(tokens, Viewport{Width: 800, Height: 600}, Options{Metrics: &stubMetrics{}})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(path, tokens, res); err != nil {
		t.Fatalf("写入调试 JSON 失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取调试 JSON 失败: %v", err)
	}
	var dump struct {
		Tokens []string `json:"tokens"`
		Result struct {
			Words []Word `json:"words"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("调试 JSON 无法解析: %v", err)
	}
	if strings.Join(dump.Tokens, "") != `<b>"hi"</b>` || len(dump.Result.Words) != 1 {
		t.Fatalf("unexpected dump %+v", dump)
	}
}
