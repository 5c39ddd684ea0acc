package chart

import (
	"fmt"
	"io"

	gochart "github.com/wcharczuk/go-chart/v2"

	"product-analyze-go/internal/model"
)

const (
	pngHeight     = 512
	pngBarWidth   = 60
	pngBarSpacing = 20
	pngMinWidth   = 400
)

// RenderPNG 用go-chart把同一份数据画成PNG条形图
func RenderPNG(w io.Writer, title string, data *model.Series) error {
	entries := data.Entries()
	if len(entries) == 0 {
		return ErrNoData
	}

	bars := make([]gochart.Value, 0, len(entries))
	for _, e := range entries {
		bars = append(bars, gochart.Value{Label: e.Label, Value: e.Value})
	}

	graph := gochart.BarChart{
		Title: title,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40},
		},
		Height:     pngHeight,
		Width:      max(pngMinWidth, len(bars)*(pngBarWidth+pngBarSpacing)+200),
		BarWidth:   pngBarWidth,
		BarSpacing: pngBarSpacing,
		Bars:       bars,
	}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render png chart: %w", err)
	}
	return nil
}
