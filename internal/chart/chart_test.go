package chart

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"product-analyze-go/internal/model"
)

func newTarget(t *testing.T, inner string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><div id="target">` + inner + `</div></body></html>`))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return doc.Find("#target")
}

func barWidths(target *goquery.Selection) []string {
	var widths []string
	target.Find("div[style]").Each(func(i int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		widths = append(widths, strings.TrimSpace(strings.TrimPrefix(style, "width:")))
	})
	return widths
}

func TestRenderProportionalWidths(t *testing.T) {
	target := newTarget(t, "")
	data := model.SeriesOf(model.Entry{Label: "A", Value: 10}, model.Entry{Label: "B", Value: 20})

	if err := Render(target, data, WithSuffix(" occurrences")); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	widths := barWidths(target)
	want := []string{"50%", "100%"}
	if len(widths) != len(want) {
		t.Fatalf("got %d bars, want %d", len(widths), len(want))
	}
	for i := range want {
		if widths[i] != want[i] {
			t.Errorf("bar %d width = %q, want %q", i, widths[i], want[i])
		}
	}

	var labels, values []string
	target.Find("span").Each(func(i int, s *goquery.Selection) {
		if i%2 == 0 {
			labels = append(labels, s.Text())
		} else {
			values = append(values, s.Text())
		}
	})
	if strings.Join(labels, ",") != "A,B" {
		t.Errorf("labels = %v, want [A B]", labels)
	}
	if strings.Join(values, ",") != "10 occurrences,20 occurrences" {
		t.Errorf("values = %v", values)
	}
}

func TestRenderMaxEntryIsFullWidth(t *testing.T) {
	testCases := []*model.Series{
		model.SeriesOf(model.Entry{Label: "only", Value: 3}),
		model.SeriesOf(model.Entry{Label: "a", Value: 1}, model.Entry{Label: "b", Value: 7}, model.Entry{Label: "c", Value: 2}),
		model.SeriesOf(model.Entry{Label: "x", Value: 4.5}, model.Entry{Label: "y", Value: 4.5}),
		model.SeriesOf(model.Entry{Label: "big", Value: 1234567}, model.Entry{Label: "small", Value: 0.001}),
	}

	for _, data := range testCases {
		widths, err := Widths(data)
		if err != nil {
			t.Fatalf("Widths() error = %v", err)
		}
		var maxValue float64
		for _, e := range data.Entries() {
			maxValue = max(maxValue, e.Value)
		}
		for i, e := range data.Entries() {
			if widths[i] < 0 || widths[i] > 100 {
				t.Errorf("width for %q = %v, out of [0,100]", e.Label, widths[i])
			}
			if e.Value == maxValue && widths[i] != 100 {
				t.Errorf("width for max entry %q = %v, want 100", e.Label, widths[i])
			}
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	target := newTarget(t, `<p>stale content</p>`)
	data := model.SeriesOf(model.Entry{Label: "Electronics", Value: 490}, model.Entry{Label: "Computers&Accessories", Value: 451})

	if err := Render(target, data); err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	first, _ := target.Html()
	if err := Render(target, data); err != nil {
		t.Fatalf("second Render() error = %v", err)
	}
	second, _ := target.Html()

	if first != second {
		t.Errorf("render not idempotent:\nfirst:  %s\nsecond: %s", first, second)
	}
	if strings.Contains(second, "stale content") {
		t.Error("prior content was not cleared")
	}
	if n := target.Children().Length(); n != 2 {
		t.Errorf("got %d rows, want 2", n)
	}
}

func TestRenderEmptyData(t *testing.T) {
	target := newTarget(t, `<div>old row</div>`)

	err := Render(target, model.NewSeries())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Render() error = %v, want ErrNoData", err)
	}
	if got := strings.TrimSpace(target.Text()); got != NoDataText {
		t.Errorf("target text = %q, want %q", got, NoDataText)
	}
	if target.Find("div[style]").Length() != 0 {
		t.Error("empty data rendered bars")
	}

	if err := Render(target, nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Render(nil) error = %v, want ErrNoData", err)
	}
}

func TestRenderAllZeroValues(t *testing.T) {
	target := newTarget(t, "")
	data := model.SeriesOf(model.Entry{Label: "a", Value: 0}, model.Entry{Label: "b", Value: 0})

	if err := Render(target, data); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, w := range barWidths(target) {
		if w != "0%" {
			t.Errorf("width = %q, want 0%%", w)
		}
	}
}

func TestRenderEscapesLabels(t *testing.T) {
	target := newTarget(t, "")
	data := model.SeriesOf(model.Entry{Label: `<script>alert(1)</script>`, Value: 1})

	if err := Render(target, data); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if target.Find("script").Length() != 0 {
		t.Error("label was injected as markup")
	}
	if !strings.Contains(target.Text(), "<script>alert(1)</script>") {
		t.Errorf("label text missing, got %q", target.Text())
	}
}

func TestFormatValue(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{10, "10"},
		{1234, "1,234"},
		{4.12, "4.12"},
		{4.123456, "4.123"},
		{1234567.5, "1,234,567.5"},
	}

	for _, tc := range testCases {
		if got := FormatValue(tc.in); got != tc.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderPNG(&buf, "empty", model.NewSeries()); !errors.Is(err, ErrNoData) {
		t.Fatalf("RenderPNG(empty) error = %v, want ErrNoData", err)
	}

	data := model.SeriesOf(model.Entry{Label: "A", Value: 10}, model.Entry{Label: "B", Value: 20})
	if err := RenderPNG(&buf, "Top categories", data); err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG image")
	}
}
