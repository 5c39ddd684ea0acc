package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"product-analyze-go/internal/model"
)

const (
	// AnalyzePath 分析接口路径
	AnalyzePath = "/api/analyze"
	// RequestIDHeader 请求ID头
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 32 << 20
)

// APIError 服务端返回非2xx
type APIError struct {
	StatusCode int
	Message    string // 响应体中的error字段，缺失时为状态码描述
}

func (e *APIError) Error() string {
	return e.Message
}

// Client /api/analyze 的HTTP客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout 设置请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger 设置日志
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New 创建客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze 请求一次分析结果
// 非2xx返回*APIError，结构不合法返回*model.ValidationError
func (c *Client) Analyze(ctx context.Context) (*model.AnalysisResult, error) {
	requestID := uuid.NewString()
	log := c.log.WithField("request_id", requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+AnalyzePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("analysis request failed")
		return nil, fmt.Errorf("request analysis: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("analysis response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(resp.StatusCode, body)
	}

	return model.DecodeResult(bytes.NewReader(body))
}

// newAPIError 优先使用响应体的error字段
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return &APIError{StatusCode: status, Message: payload.Error}
	}
	return &APIError{StatusCode: status, Message: fmt.Sprintf("HTTP error! Status: %d", status)}
}
