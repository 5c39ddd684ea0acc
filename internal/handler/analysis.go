package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"product-analyze-go/internal/chart"
	"product-analyze-go/internal/model"
	"product-analyze-go/internal/sse"
)

// Analyzer 分析服务
type Analyzer interface {
	Analyze(ctx context.Context) (*model.AnalysisResult, error)
	AnalyzeWithProgress(ctx context.Context, onSection func(model.Section)) (*model.AnalysisResult, error)
}

// chartDef 可导出为PNG的图表
type chartDef struct {
	title  string
	series func(*model.AnalysisResult) *model.Series
}

var charts = map[string]chartDef{
	"top_categories": {
		title:  "Top Main Categories",
		series: func(r *model.AnalysisResult) *model.Series { return r.TopCategories },
	},
	"avg_rating_categories": {
		title:  "Average Rating by Category",
		series: func(r *model.AnalysisResult) *model.Series { return r.AvgRatingCategories },
	},
}

// AnalysisHandler 分析接口HTTP处理器
type AnalysisHandler struct {
	service Analyzer
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewAnalysisHandler 创建处理器，timeout<=0 表示不限时
func NewAnalysisHandler(svc Analyzer, timeout time.Duration, log logrus.FieldLogger) *AnalysisHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AnalysisHandler{service: svc, timeout: timeout, log: log}
}

func (h *AnalysisHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// Analyze 返回完整分析结果
// GET /api/analyze
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)
	if !allowGet(log, w, r) {
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.service.Analyze(ctx)
	if err != nil {
		writeError(log, w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(log, w, http.StatusOK, result)
}

// AnalyzeSSE 以SSE推送各部分的计算进度，最后推送结果
// GET /api/analyze/sse
func (h *AnalysisHandler) AnalyzeSSE(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)
	if !allowGet(log, w, r) {
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		writeError(log, w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	defer writer.StopHeartbeat()

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := writer.Start(); err != nil {
		log.WithError(err).Warn("sse write failed")
		return
	}

	log.Info("starting streamed analysis")
	result, err := h.service.AnalyzeWithProgress(ctx, func(section model.Section) {
		if err := writer.SetSection(section); err != nil {
			log.WithError(err).Debug("sse write failed")
		}
	})
	if err != nil {
		log.WithError(err).Error("streamed analysis failed")
		_ = writer.SendError(err.Error())
		return
	}
	if err := writer.SendResult(result); err != nil {
		log.WithError(err).Warn("sse write failed")
	}
}

// Chart 把分析结果中的条形图渲染为PNG
// GET /api/charts/{name}.png
func (h *AnalysisHandler) Chart(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)
	if !allowGet(log, w, r) {
		return
	}

	name := strings.TrimSuffix(r.PathValue("name"), ".png")
	def, ok := charts[name]
	if !ok {
		writeError(log, w, http.StatusNotFound, "unknown chart: "+name)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.service.Analyze(ctx)
	if err != nil {
		writeError(log, w, http.StatusInternalServerError, err.Error())
		return
	}

	// 先渲染到内存，失败时还能返回JSON错误
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, def.title, def.series(result)); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			writeError(log, w, http.StatusNotFound, err.Error())
			return
		}
		writeError(log, w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(buf.Bytes())
}

// Health 健康检查
func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
