package chart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"

	"product-analyze-go/internal/model"
)

// ErrNoData 图表没有可渲染的条目
var ErrNoData = errors.New("chart: no data to render")

const (
	rowClass   = "w-full"
	labelClass = "flex justify-between text-sm font-medium text-slate-700 mb-1"
	trackClass = "w-full bg-slate-200 rounded-full h-2.5"
	barClass   = "bg-blue-600 h-2.5 rounded-full"
	emptyClass = "text-sm text-slate-500"

	// NoDataText 空数据时的占位文本
	NoDataText = "No data available"
)

type options struct {
	suffix string
}

// Option 渲染选项
type Option func(*options)

// WithSuffix 在数值后追加单位，例如 " occurrences"
func WithSuffix(suffix string) Option {
	return func(o *options) {
		o.suffix = suffix
	}
}

// Render 清空target后按插入顺序渲染横向条形图
// 数据为空时渲染占位符并返回ErrNoData
func Render(target *goquery.Selection, data *model.Series, opts ...Option) error {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	target.Empty()

	widths, err := Widths(data)
	if err != nil {
		target.AppendHtml(fmt.Sprintf(`<p class="%s">%s</p>`, emptyClass, NoDataText))
		return err
	}

	var b strings.Builder
	for i, e := range data.Entries() {
		fmt.Fprintf(&b,
			`<div class="%s"><div class="%s"><span>%s</span><span>%s</span></div><div class="%s"><div class="%s" style="width: %s%%"></div></div></div>`,
			rowClass,
			labelClass,
			html.EscapeString(e.Label),
			html.EscapeString(FormatValue(e.Value)+o.suffix),
			trackClass,
			barClass,
			formatPercent(widths[i]),
		)
	}
	target.AppendHtml(b.String())
	return nil
}

// Widths 计算每个条目相对最大值的百分比宽度，最大值对应100
// 所有值为0时宽度全为0
func Widths(data *model.Series) ([]float64, error) {
	entries := data.Entries()
	if len(entries) == 0 {
		return nil, ErrNoData
	}

	maxValue := 0.0
	for _, e := range entries {
		if e.Value > maxValue {
			maxValue = e.Value
		}
	}

	widths := make([]float64, len(entries))
	if maxValue == 0 {
		return widths, nil
	}
	for i, e := range entries {
		widths[i] = e.Value / maxValue * 100
	}
	return widths, nil
}

// FormatValue 千分位分组，最多保留3位小数
func FormatValue(v float64) string {
	rounded := math.Round(v*1000) / 1000
	if rounded == math.Trunc(rounded) && math.Abs(rounded) < 1<<53 {
		return humanize.Comma(int64(rounded))
	}
	return humanize.Commaf(rounded)
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
