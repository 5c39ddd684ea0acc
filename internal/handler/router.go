package handler

import "net/http"

// NewRouter 注册所有路由
func NewRouter(analysis *AnalysisHandler, page *ReportHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", analysis.Health)
	mux.HandleFunc("/api/analyze", analysis.Analyze)
	mux.HandleFunc("/api/analyze/sse", analysis.AnalyzeSSE)
	mux.HandleFunc("/api/charts/{name}", analysis.Chart)
	mux.HandleFunc("/report", page.Report)
	mux.HandleFunc("/", page.Index)
	return mux
}
