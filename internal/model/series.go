package model

import (
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry 图表中的单个条目
type Entry struct {
	Label string
	Value float64
}

// Series 有序的 label -> value 映射，一张条形图的数据源
// JSON 编解码保持插入顺序
type Series struct {
	m *orderedmap.OrderedMap[string, float64]
}

// NewSeries 创建空的Series
func NewSeries() *Series {
	return &Series{m: orderedmap.New[string, float64]()}
}

// SeriesOf 按给定顺序构建Series
func SeriesOf(entries ...Entry) *Series {
	s := NewSeries()
	for _, e := range entries {
		s.Set(e.Label, e.Value)
	}
	return s
}

// Set 设置条目，已存在的label保持原位置
func (s *Series) Set(label string, value float64) {
	if s.m == nil {
		s.m = orderedmap.New[string, float64]()
	}
	s.m.Set(label, value)
}

// Get 获取条目值
func (s *Series) Get(label string) (float64, bool) {
	if s == nil || s.m == nil {
		return 0, false
	}
	return s.m.Get(label)
}

// Len 条目数量
func (s *Series) Len() int {
	if s == nil || s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Entries 按插入顺序返回所有条目
func (s *Series) Entries() []Entry {
	if s == nil || s.m == nil {
		return nil
	}
	entries := make([]Entry, 0, s.m.Len())
	for pair := s.m.Oldest(); pair != nil; pair = pair.Next() {
		entries = append(entries, Entry{Label: pair.Key, Value: pair.Value})
	}
	return entries
}

// Validate 检查所有值有限且非负
func (s *Series) Validate() error {
	for _, e := range s.Entries() {
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return fmt.Errorf("value for %q is not finite", e.Label)
		}
		if e.Value < 0 {
			return fmt.Errorf("value for %q is negative: %v", e.Label, e.Value)
		}
	}
	return nil
}

// MarshalJSON 按插入顺序输出JSON对象
func (s *Series) MarshalJSON() ([]byte, error) {
	if s.m == nil {
		return []byte("{}"), nil
	}
	return s.m.MarshalJSON()
}

// UnmarshalJSON 解析JSON对象并保留key顺序
func (s *Series) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, float64]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	s.m = m
	return nil
}
