package handler

import (
	"bytes"
	"net/http"

	"github.com/sirupsen/logrus"

	"product-analyze-go/internal/report"
)

// ReportHandler 页面处理器
type ReportHandler struct {
	source report.Source
	log    logrus.FieldLogger
}

// NewReportHandler 创建页面处理器
func NewReportHandler(source report.Source, log logrus.FieldLogger) *ReportHandler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReportHandler{source: source, log: log}
}

// Index 空闲状态的页面
// GET /
func (h *ReportHandler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(report.DefaultTemplate()))
}

// Report 在服务端跑一次Process Data，返回渲染后的页面
// 分析失败时页面显示错误横幅，状态码仍为200
// GET /report
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(h.log, r)
	if !allowGet(log, w, r) {
		return
	}

	page, err := report.NewDefaultPage()
	if err != nil {
		writeError(log, w, http.StatusInternalServerError, err.Error())
		return
	}

	orch := report.New(h.source, page, report.WithLogger(log))
	if err := orch.Trigger(r.Context()); err != nil {
		log.WithError(err).Warn("report rendered with error banner")
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		writeError(log, w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
