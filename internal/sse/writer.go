package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"product-analyze-go/internal/model"
)

const heartbeatInterval = 15 * time.Second

// 流状态
const (
	StatusAnalyzing = "analyzing"
	StatusCompleted = "completed"
	StatusError     = "error"
	statusHeartbeat = "heartbeat"
)

// Writer SSE写入器
type Writer struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	mu        sync.Mutex
	state     *model.ProgressState
	stopHeart chan struct{}
	stopOnce  sync.Once
	stopped   chan struct{}
}

// NewWriter 设置SSE响应头并启动心跳
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	return newWriter(w, heartbeatInterval)
}

func newWriter(w http.ResponseWriter, interval time.Duration) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	writer := &Writer{
		w:         w,
		flusher:   flusher,
		state:     model.NewProgressState(),
		stopHeart: make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	// 启动心跳
	go writer.heartbeat(interval)

	return writer, nil
}

// heartbeat 定期发送心跳保持连接
func (s *Writer) heartbeat(interval time.Duration) {
	defer close(s.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			heartbeat := map[string]interface{}{
				"status":         statusHeartbeat,
				"overall":        s.state.Overall,
				"current_action": s.state.CurrentAction,
			}
			data, _ := json.Marshal(heartbeat)
			fmt.Fprintf(s.w, "data: %s\n\n", data)
			s.flusher.Flush()
			s.mu.Unlock()
		case <-s.stopHeart:
			return
		}
	}
}

// StopHeartbeat 停止心跳并等待心跳协程退出，可重复调用
func (s *Writer) StopHeartbeat() {
	s.stopOnce.Do(func() {
		close(s.stopHeart)
	})
	<-s.stopped
}

func (s *Writer) send() error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Start 发送初始状态，所有部分为pending
func (s *Writer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.send()
}

// SetAction 更新当前动作和进度并发送，进度只增不减
func (s *Writer) SetAction(progress int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress > s.state.Overall {
		s.state.Overall = progress
	}
	s.state.CurrentAction = action
	return s.send()
}

// SetSection 标记某部分完成并发送
func (s *Writer) SetSection(section model.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Sections.Set(section, model.StatusDone)
	s.state.CurrentAction = fmt.Sprintf("Computed %s", section)
	s.recalcOverall()
	return s.send()
}

// SendResult 发送最终结果
func (s *Writer) SendResult(result *model.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, section := range model.AllSections {
		s.state.Sections.Set(section, model.StatusDone)
	}
	s.state.Status = StatusCompleted
	s.state.Overall = 100
	s.state.CurrentAction = "Analysis completed"
	s.state.Result = result
	return s.send()
}

// SendError 发送全局错误，未完成的部分标记为error
func (s *Writer) SendError(errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, section := range model.AllSections {
		if s.state.Sections.Get(section) != model.StatusDone {
			s.state.Sections.Set(section, model.StatusError)
		}
	}
	s.state.Status = StatusError
	s.state.CurrentAction = "Analysis failed"
	s.state.Error = errMsg
	return s.send()
}

// recalcOverall 根据完成的部分数量计算进度（只增不减）
func (s *Writer) recalcOverall() {
	done := s.state.Sections.CountDone()
	newOverall := done * 100 / len(model.AllSections)
	if newOverall > s.state.Overall {
		s.state.Overall = newOverall
	}
}
