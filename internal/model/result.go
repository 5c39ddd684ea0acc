package model

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// NoMissingValuesHTML 没有缺失值时missing字段的内容
const NoMissingValuesHTML = "<p>No missing values found. Great!</p>"

// AnalysisResult /api/analyze 的响应
type AnalysisResult struct {
	Head                  string  `json:"head"`                    // 前5行 (HTML表格)
	Info                  string  `json:"info"`                    // 列/类型/非空统计 (纯文本)
	Missing               string  `json:"missing"`                 // 缺失值统计 (HTML)
	Describe              string  `json:"describe"`                // 数值列描述统计 (HTML表格)
	TopCategories         *Series `json:"top_categories"`          // 出现次数最多的主类目
	AvgRatingCategories   *Series `json:"avg_rating_categories"`   // 上述类目的平均评分
	DiscountRatingInsight string  `json:"discount_rating_insight"` // 折扣与评分的相关性解读
}

// Validate 检查结果结构完整
func (r *AnalysisResult) Validate() error {
	if problems := r.problems(); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (r *AnalysisResult) problems() []string {
	var problems []string
	if r.TopCategories == nil {
		problems = append(problems, "top_categories: missing")
	} else if err := r.TopCategories.Validate(); err != nil {
		problems = append(problems, "top_categories: "+err.Error())
	}
	if r.AvgRatingCategories == nil {
		problems = append(problems, "avg_rating_categories: missing")
	} else if err := r.AvgRatingCategories.Validate(); err != nil {
		problems = append(problems, "avg_rating_categories: "+err.Error())
	}
	return problems
}

// ValidationError 响应结构不合法
type ValidationError struct {
	Problems []string
	Err      error // 底层解码错误（如果有）
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed analysis result: %v", e.Err)
	}
	return "malformed analysis result: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// wireResult 用指针区分字段缺失和空值
type wireResult struct {
	Head                  *string `json:"head"`
	Info                  *string `json:"info"`
	Missing               *string `json:"missing"`
	Describe              *string `json:"describe"`
	TopCategories         *Series `json:"top_categories"`
	AvgRatingCategories   *Series `json:"avg_rating_categories"`
	DiscountRatingInsight *string `json:"discount_rating_insight"`
}

// DecodeResult 解析并校验AnalysisResult
func DecodeResult(r io.Reader) (*AnalysisResult, error) {
	var wire wireResult
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return nil, &ValidationError{Err: err}
	}

	var missing []string
	required := []struct {
		name  string
		value *string
	}{
		{"head", wire.Head},
		{"info", wire.Info},
		{"describe", wire.Describe},
		{"discount_rating_insight", wire.DiscountRatingInsight},
	}
	for _, f := range required {
		if f.value == nil {
			missing = append(missing, f.name+": missing")
		}
	}

	result := &AnalysisResult{
		Head:                  deref(wire.Head),
		Info:                  deref(wire.Info),
		Missing:               deref(wire.Missing),
		Describe:              deref(wire.Describe),
		TopCategories:         wire.TopCategories,
		AvgRatingCategories:   wire.AvgRatingCategories,
		DiscountRatingInsight: deref(wire.DiscountRatingInsight),
	}
	missing = append(missing, result.problems()...)
	if len(missing) > 0 {
		return nil, &ValidationError{Problems: missing}
	}
	return result, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
