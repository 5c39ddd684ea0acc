package analysis

import (
	"math"
	"sort"

	"product-analyze-go/internal/dataset"
)

// Summary 一个数值列的描述统计
type Summary struct {
	Count float64
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Summarize 计算count/mean/std/min/分位数/max，std为样本标准差
func Summarize(values []float64) Summary {
	nan := math.NaN()
	s := Summary{Count: float64(len(values)), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(values) == 0 {
		return s
	}

	// Welford
	var mean, m2 float64
	for i, x := range values {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	if len(values) > 1 {
		s.Std = math.Sqrt(m2 / float64(len(values)-1))
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// quantile 线性插值分位数，sorted必须有序
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Pearson 两列同时非空的行上的皮尔逊相关系数
// 少于2对或方差为0时返回NaN
func Pearson(x, y *dataset.Column) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := 0; i < x.Len() && i < y.Len(); i++ {
		a, okA := x.Float(i)
		b, okB := y.Float(i)
		if !okA || !okB {
			continue
		}
		n++
		sumX += a
		sumY += b
		sumXX += a * a
		sumYY += b * b
		sumXY += a * b
	}
	if n < 2 {
		return math.NaN()
	}
	cov := sumXY - sumX*sumY/n
	varX := sumXX - sumX*sumX/n
	varY := sumYY - sumY*sumY/n
	if varX <= 0 || varY <= 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
