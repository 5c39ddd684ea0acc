package analysis

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"strconv"

	"product-analyze-go/internal/dataset"
	"product-analyze-go/internal/model"
)

const (
	headTableClass  = "table-auto w-full text-left whitespace-no-wrap"
	statsTableClass = "table-auto w-full"
)

var tableTmpl = template.Must(template.New("table").Parse(`<table border="0" class="dataframe {{.Class}}">
  <thead>
    <tr{{if .Indexed}} style="text-align: right;"{{end}}>
      {{- if .Indexed}}
      <th></th>
      {{- end}}
      {{- range .Header}}
      <th>{{.}}</th>
      {{- end}}
    </tr>
  </thead>
  <tbody>
    {{- range .Rows}}
    <tr>
      {{- if $.Indexed}}
      <th>{{.Index}}</th>
      {{- end}}
      {{- range .Cells}}
      <td>{{.}}</td>
      {{- end}}
    </tr>
    {{- end}}
  </tbody>
</table>`))

type table struct {
	Class   string
	Indexed bool
	Header  []string
	Rows    []tableRow
}

type tableRow struct {
	Index string
	Cells []string
}

func (t table) render() (string, error) {
	var buf bytes.Buffer
	if err := tableTmpl.Execute(&buf, t); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return buf.String(), nil
}

// HeadHTML 前n行表格，不带索引列
func HeadHTML(f *dataset.Frame, n int) (string, error) {
	head := f.Head(n)
	t := table{Class: headTableClass}
	for _, c := range head.Columns() {
		t.Header = append(t.Header, c.Name)
	}
	for i := 0; i < head.Len(); i++ {
		row := tableRow{Cells: make([]string, 0, len(head.Columns()))}
		for _, c := range head.Columns() {
			row.Cells = append(row.Cells, c.String(i))
		}
		t.Rows = append(t.Rows, row)
	}
	return t.render()
}

// MissingHTML 有缺失值的列及其数量，没有缺失时返回提示
func MissingHTML(f *dataset.Frame) (string, error) {
	t := table{Class: statsTableClass, Indexed: true, Header: []string{"missing_count"}}
	for _, c := range f.Columns() {
		if n := c.NullCount(); n > 0 {
			t.Rows = append(t.Rows, tableRow{Index: c.Name, Cells: []string{strconv.Itoa(n)}})
		}
	}
	if len(t.Rows) == 0 {
		return model.NoMissingValuesHTML, nil
	}
	return t.render()
}

// DescribeHTML 数值列的描述统计表
func DescribeHTML(f *dataset.Frame) (string, error) {
	var summaries []Summary
	t := table{Class: statsTableClass, Indexed: true}
	for _, c := range f.Columns() {
		if c.Kind != dataset.Numeric {
			continue
		}
		t.Header = append(t.Header, c.Name)
		summaries = append(summaries, Summarize(c.Floats()))
	}

	stats := []struct {
		name string
		get  func(Summary) float64
	}{
		{"count", func(s Summary) float64 { return s.Count }},
		{"mean", func(s Summary) float64 { return s.Mean }},
		{"std", func(s Summary) float64 { return s.Std }},
		{"min", func(s Summary) float64 { return s.Min }},
		{"25%", func(s Summary) float64 { return s.Q25 }},
		{"50%", func(s Summary) float64 { return s.Q50 }},
		{"75%", func(s Summary) float64 { return s.Q75 }},
		{"max", func(s Summary) float64 { return s.Max }},
	}
	for _, st := range stats {
		row := tableRow{Index: st.name}
		for _, s := range summaries {
			row.Cells = append(row.Cells, formatStat(st.get(s)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t.render()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
