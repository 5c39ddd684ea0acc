package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"product-analyze-go/internal/dataset"
)

// Info 列名、非空数量和类型的文本摘要
func Info(f *dataset.Frame) string {
	var b strings.Builder
	cols := f.Columns()

	b.WriteString("<class 'DataFrame'>\n")
	if index := f.Index(); len(index) > 0 {
		fmt.Fprintf(&b, "Index: %d entries, %d to %d\n", len(index), index[0], index[len(index)-1])
	} else {
		b.WriteString("Index: 0 entries\n")
	}
	fmt.Fprintf(&b, "Data columns (total %d columns):\n", len(cols))

	width := len("Column")
	for _, c := range cols {
		width = max(width, len(c.Name))
	}
	fmt.Fprintf(&b, " %-3s %-*s  %-14s  %s\n", "#", width, "Column", "Non-Null Count", "Dtype")
	fmt.Fprintf(&b, " %-3s %-*s  %-14s  %s\n", "---", width, "------", "--------------", "-----")

	kinds := make(map[string]int)
	var memory uint64
	for i, c := range cols {
		nonNull := fmt.Sprintf("%d non-null", c.NonNullCount())
		fmt.Fprintf(&b, " %-3d %-*s  %-14s  %s\n", i, width, c.Name, nonNull, c.Kind)
		kinds[c.Kind.String()]++
		memory += c.MemoryBytes()
	}

	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s(%d)", k, kinds[k]))
	}
	fmt.Fprintf(&b, "dtypes: %s\n", strings.Join(parts, ", "))
	fmt.Fprintf(&b, "memory usage: %s+\n", humanize.IBytes(memory))
	return b.String()
}
