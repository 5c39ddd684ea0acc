package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"product-analyze-go/internal/dataset"
	"product-analyze-go/internal/model"
)

const (
	// DefaultTopN 默认展示的主类目数量
	DefaultTopN = 10
	headRows    = 5

	// 相关系数超过该阈值才认为存在弱相关
	correlationThreshold = 0.1
)

// Options 分析选项
type Options struct {
	TopN      int                   // 主类目数量，<=0 使用默认值
	OnSection func(s model.Section) // 每完成一个部分回调一次
}

// Analyze 在清洗后的数据上计算全部七个部分
func Analyze(ctx context.Context, f *dataset.Frame, opts Options) (*model.AnalysisResult, error) {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	result := &model.AnalysisResult{}
	steps := []struct {
		section model.Section
		run     func() error
	}{
		{model.SectionHead, func() (err error) {
			result.Head, err = HeadHTML(f, headRows)
			return err
		}},
		{model.SectionInfo, func() error {
			result.Info = Info(f)
			return nil
		}},
		{model.SectionMissing, func() (err error) {
			result.Missing, err = MissingHTML(f)
			return err
		}},
		{model.SectionDescribe, func() (err error) {
			result.Describe, err = DescribeHTML(f)
			return err
		}},
		{model.SectionTopCategories, func() (err error) {
			result.TopCategories, err = TopCategories(f, topN)
			return err
		}},
		{model.SectionAvgRating, func() (err error) {
			result.AvgRatingCategories, err = AverageRatings(f, result.TopCategories)
			return err
		}},
		{model.SectionInsight, func() error {
			corr, err := DiscountRatingCorrelation(f)
			if err != nil {
				return err
			}
			result.DiscountRatingInsight = Insight(corr)
			return nil
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(); err != nil {
			return nil, fmt.Errorf("compute %s: %w", step.section, err)
		}
		if opts.OnSection != nil {
			opts.OnSection(step.section)
		}
	}
	return result, nil
}

// TopCategories 按出现次数降序的前n个主类目，次数相同按首次出现顺序
func TopCategories(f *dataset.Frame, n int) (*model.Series, error) {
	col, ok := f.Column(dataset.ColMainCategory)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, dataset.ColMainCategory)
	}

	counts := make(map[string]int)
	var order []string
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		name := col.String(i)
		if _, seen := counts[name]; !seen {
			order = append(order, name)
		}
		counts[name]++
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})
	if len(order) > n {
		order = order[:n]
	}

	series := model.NewSeries()
	for _, name := range order {
		series.Set(name, float64(counts[name]))
	}
	return series, nil
}

// AverageRatings 给定类目的平均评分（保留两位小数），按评分降序
func AverageRatings(f *dataset.Frame, categories *model.Series) (*model.Series, error) {
	col, ok := f.Column(dataset.ColMainCategory)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, dataset.ColMainCategory)
	}
	rating, ok := f.Column(dataset.ColRating)
	if !ok {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, dataset.ColRating)
	}

	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	for _, e := range categories.Entries() {
		groups[e.Label] = &acc{}
	}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		g, ok := groups[col.String(i)]
		if !ok {
			continue
		}
		if r, ok := rating.Float(i); ok {
			g.sum += r
			g.n++
		}
	}

	names := make([]string, 0, len(groups))
	for name, g := range groups {
		if g.n > 0 {
			names = append(names, name)
		}
	}
	// 先按名称排序，使同分的类目顺序确定
	sort.Strings(names)
	means := make(map[string]float64, len(names))
	for _, name := range names {
		g := groups[name]
		means[name] = math.Round(g.sum/float64(g.n)*100) / 100
	}
	sort.SliceStable(names, func(a, b int) bool {
		return means[names[a]] > means[names[b]]
	})

	series := model.NewSeries()
	for _, name := range names {
		series.Set(name, means[name])
	}
	return series, nil
}

// DiscountRatingCorrelation 折扣比例与评分的相关系数
func DiscountRatingCorrelation(f *dataset.Frame) (float64, error) {
	discount, ok := f.Column(dataset.ColDiscountPercentage)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, dataset.ColDiscountPercentage)
	}
	rating, ok := f.Column(dataset.ColRating)
	if !ok {
		return 0, fmt.Errorf("%w: %s", dataset.ErrMissingColumn, dataset.ColRating)
	}
	return Pearson(discount, rating), nil
}

// Insight 把相关系数翻译成一句结论
func Insight(corr float64) string {
	if math.IsNaN(corr) {
		return "The correlation between discount percentage and rating could not be computed because too few products have both values or one of them never varies."
	}

	insight := fmt.Sprintf("The correlation between discount percentage and rating is %.2f. ", corr)
	switch {
	case corr > correlationThreshold:
		insight += "This suggests a weak positive relationship: slightly higher discounts may be associated with slightly higher ratings."
	case corr < -correlationThreshold:
		insight += "This suggests a weak negative relationship: higher discounts might be associated with slightly lower ratings."
	default:
		insight += "This suggests there is no significant linear relationship between discounts and customer ratings."
	}
	return insight
}
