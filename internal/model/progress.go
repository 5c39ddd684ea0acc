package model

import (
	"encoding/json"
	"sync"
)

// Section 分析结果中的一个部分
type Section string

const (
	SectionHead          Section = "head"
	SectionInfo          Section = "info"
	SectionMissing       Section = "missing"
	SectionDescribe      Section = "describe"
	SectionTopCategories Section = "top_categories"
	SectionAvgRating     Section = "avg_rating_categories"
	SectionInsight       Section = "discount_rating_insight"
)

// AllSections 所有部分，按计算顺序
var AllSections = []Section{
	SectionHead, SectionInfo, SectionMissing, SectionDescribe,
	SectionTopCategories, SectionAvgRating, SectionInsight,
}

// SectionStatus 部分状态
type SectionStatus string

const (
	StatusPending SectionStatus = "pending"
	StatusDone    SectionStatus = "done"
	StatusError   SectionStatus = "error"
)

// SectionMap 并发安全的部分状态map
type SectionMap struct {
	m sync.Map
}

// NewSectionMap 创建SectionMap，所有部分初始为pending
func NewSectionMap() *SectionMap {
	sm := &SectionMap{}
	for _, s := range AllSections {
		sm.Set(s, StatusPending)
	}
	return sm
}

// Set 设置部分状态
func (c *SectionMap) Set(section Section, status SectionStatus) {
	c.m.Store(section, status)
}

// Get 获取部分状态
func (c *SectionMap) Get(section Section) SectionStatus {
	v, ok := c.m.Load(section)
	if !ok {
		return ""
	}
	return v.(SectionStatus)
}

// CountDone 统计已结束的部分数量
func (c *SectionMap) CountDone() int {
	count := 0
	c.m.Range(func(_, v interface{}) bool {
		if status := v.(SectionStatus); status == StatusDone || status == StatusError {
			count++
		}
		return true
	})
	return count
}

// MarshalJSON 实现json序列化
func (c *SectionMap) MarshalJSON() ([]byte, error) {
	m := make(map[Section]SectionStatus)
	c.m.Range(func(k, v interface{}) bool {
		m[k.(Section)] = v.(SectionStatus)
		return true
	})
	return json.Marshal(m)
}

// ProgressState 进度流每次输出的完整结构
type ProgressState struct {
	Status        string          `json:"status"`           // "analyzing" | "completed" | "error"
	Overall       int             `json:"overall"`          // 整体进度 0-100
	CurrentAction string          `json:"current_action"`   // 当前在做什么
	Sections      *SectionMap     `json:"sections"`         // 各部分状态
	Result        *AnalysisResult `json:"result,omitempty"` // 完成时的结果
	Error         string          `json:"error,omitempty"`  // 全局错误
}

// NewProgressState 创建初始状态
func NewProgressState() *ProgressState {
	return &ProgressState{
		Status:        "analyzing",
		CurrentAction: "Initializing...",
		Sections:      NewSectionMap(),
	}
}
