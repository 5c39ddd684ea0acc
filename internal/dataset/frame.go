package dataset

import (
	"math"
	"strconv"
)

// Kind 列类型
type Kind int

const (
	Text Kind = iota
	Numeric
)

// String 与pandas的dtype名称保持一致
func (k Kind) String() string {
	if k == Numeric {
		return "float64"
	}
	return "object"
}

// Column 一列数据，null由valid掩码表示
type Column struct {
	Name  string
	Kind  Kind
	text  []string
	nums  []float64
	valid []bool
}

func newTextColumn(name string, values []string, valid []bool) *Column {
	return &Column{Name: name, Kind: Text, text: values, valid: valid}
}

func newNumericColumn(name string, values []float64, valid []bool) *Column {
	return &Column{Name: name, Kind: Numeric, nums: values, valid: valid}
}

// Len 行数
func (c *Column) Len() int {
	return len(c.valid)
}

// IsNull 第i行是否为空
func (c *Column) IsNull(i int) bool {
	return !c.valid[i]
}

// NullCount 空值数量
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// NonNullCount 非空值数量
func (c *Column) NonNullCount() int {
	return c.Len() - c.NullCount()
}

// Float 第i行的数值
func (c *Column) Float(i int) (float64, bool) {
	if c.Kind != Numeric || !c.valid[i] {
		return math.NaN(), false
	}
	return c.nums[i], true
}

// String 第i行的文本表示，数值按pandas的样式输出
func (c *Column) String(i int) string {
	if !c.valid[i] {
		return "NaN"
	}
	if c.Kind == Numeric {
		return FormatFloat(c.nums[i])
	}
	return c.text[i]
}

// Floats 所有非空数值
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if c.valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// MemoryBytes 估算列占用内存
func (c *Column) MemoryBytes() uint64 {
	if c.Kind == Numeric {
		return uint64(8 * c.Len())
	}
	var n uint64
	for _, s := range c.text {
		n += 8 + uint64(len(s))
	}
	return n
}

func (c *Column) take(keep []int) *Column {
	valid := make([]bool, len(keep))
	for j, i := range keep {
		valid[j] = c.valid[i]
	}
	if c.Kind == Numeric {
		nums := make([]float64, len(keep))
		for j, i := range keep {
			nums[j] = c.nums[i]
		}
		return newNumericColumn(c.Name, nums, valid)
	}
	text := make([]string, len(keep))
	for j, i := range keep {
		text[j] = c.text[i]
	}
	return newTextColumn(c.Name, text, valid)
}

// Frame 内存中的表格，列有序
type Frame struct {
	cols  []*Column
	index []int // 每行在原始CSV中的行号（从0开始）
	names map[string]int
}

func newFrame(cols []*Column, index []int) *Frame {
	f := &Frame{cols: cols, index: index, names: make(map[string]int, len(cols))}
	for i, c := range cols {
		f.names[c.Name] = i
	}
	return f
}

// Len 行数
func (f *Frame) Len() int {
	return len(f.index)
}

// Columns 所有列，按顺序
func (f *Frame) Columns() []*Column {
	return f.cols
}

// Column 按名称查找列
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.names[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Index 原始行号
func (f *Frame) Index() []int {
	return f.index
}

// Head 前n行
func (f *Frame) Head(n int) *Frame {
	n = min(n, f.Len())
	keep := make([]int, n)
	for i := range keep {
		keep[i] = i
	}
	return f.take(keep)
}

func (f *Frame) take(keep []int) *Frame {
	cols := make([]*Column, len(f.cols))
	for i, c := range f.cols {
		cols[i] = c.take(keep)
	}
	index := make([]int, len(keep))
	for j, i := range keep {
		index[j] = f.index[i]
	}
	return newFrame(cols, index)
}

func (f *Frame) replace(col *Column) {
	if i, ok := f.names[col.Name]; ok {
		f.cols[i] = col
		return
	}
	f.names[col.Name] = len(f.cols)
	f.cols = append(f.cols, col)
}

// FormatFloat 整数值保留".0"，其余取最短表示
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		s += ".0"
	}
	return s
}
