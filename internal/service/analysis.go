package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"product-analyze-go/internal/analysis"
	"product-analyze-go/internal/cache"
	"product-analyze-go/internal/dataset"
	"product-analyze-go/internal/model"
)

// Options 分析服务选项
type Options struct {
	Cache  cache.Cache   // 可选
	TTL    time.Duration // 缓存有效期
	TopN   int           // 主类目数量
	Logger logrus.FieldLogger
}

// AnalysisService 持有启动时加载的数据集，按需计算并缓存分析结果
type AnalysisService struct {
	frame     *dataset.Frame
	subjectID string
	cache     cache.Cache
	ttl       time.Duration
	topN      int
	log       logrus.FieldLogger
	group     singleflight.Group
}

// NewAnalysisService 基于已加载的数据创建服务，subjectID为缓存key
func NewAnalysisService(frame *dataset.Frame, subjectID string, opts Options) *AnalysisService {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AnalysisService{
		frame:     frame,
		subjectID: subjectID,
		cache:     opts.Cache,
		ttl:       opts.TTL,
		topN:      opts.TopN,
		log:       log.WithField("component", "analysis"),
	}
}

// LoadAnalysisService 加载并清洗CSV，再创建服务
func LoadAnalysisService(path string, opts Options) (*AnalysisService, error) {
	frame, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	subjectID, err := dataset.Fingerprint(path)
	if err != nil {
		return nil, err
	}
	return NewAnalysisService(frame, subjectID, opts), nil
}

// Rows 清洗后的行数
func (s *AnalysisService) Rows() int {
	return s.frame.Len()
}

// Analyze 返回分析结果，优先读缓存；并发的未命中只计算一次
func (s *AnalysisService) Analyze(ctx context.Context) (*model.AnalysisResult, error) {
	if result := s.cached(ctx); result != nil {
		return result, nil
	}

	ch := s.group.DoChan(s.subjectID, func() (interface{}, error) {
		return s.compute(context.WithoutCancel(ctx), nil)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.AnalysisResult), nil
	}
}

// AnalyzeWithProgress 与Analyze相同，但每完成一个部分回调一次
// 缓存命中时一次性回调所有部分
func (s *AnalysisService) AnalyzeWithProgress(ctx context.Context, onSection func(model.Section)) (*model.AnalysisResult, error) {
	if result := s.cached(ctx); result != nil {
		if onSection != nil {
			for _, section := range model.AllSections {
				onSection(section)
			}
		}
		return result, nil
	}
	return s.compute(ctx, onSection)
}

func (s *AnalysisService) cached(ctx context.Context) *model.AnalysisResult {
	if s.cache == nil {
		return nil
	}
	entry, err := s.cache.Get(ctx, s.subjectID)
	if err != nil {
		s.log.WithError(err).Warn("analysis cache read failed")
		return nil
	}
	if entry == nil || entry.Data == nil {
		return nil
	}
	if err := entry.Data.Validate(); err != nil {
		s.log.WithError(err).Warn("discarding invalid cached analysis")
		return nil
	}
	s.log.WithField("subject_id", s.subjectID).Debug("analysis cache hit")
	return entry.Data
}

func (s *AnalysisService) compute(ctx context.Context, onSection func(model.Section)) (*model.AnalysisResult, error) {
	start := time.Now()
	result, err := analysis.Analyze(ctx, s.frame, analysis.Options{TopN: s.topN, OnSection: onSection})
	if err != nil {
		return nil, fmt.Errorf("analyze dataset: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"rows":     s.frame.Len(),
		"duration": time.Since(start).String(),
	}).Info("analysis computed")

	if s.cache != nil {
		if err := s.cache.Set(ctx, s.subjectID, result, s.ttl); err != nil {
			s.log.WithError(err).Warn("analysis cache write failed")
		}
	}
	return result, nil
}
