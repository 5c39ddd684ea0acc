package report

import (
	"context"
	"errors"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"product-analyze-go/internal/chart"
	"product-analyze-go/internal/model"
)

// ErrSuperseded 请求完成时已有更新的请求，结果被丢弃
var ErrSuperseded = errors.New("report: superseded by a newer request")

var errEmptyResult = errors.New("empty analysis result")

// ErrorPrefix 错误横幅前缀
const ErrorPrefix = "An error occurred: "

// 图表数值后缀
const (
	OccurrencesSuffix = " occurrences"
	RatingSuffix      = " ★"
)

// Source 分析结果来源（HTTP客户端或进程内服务）
type Source interface {
	Analyze(ctx context.Context) (*model.AnalysisResult, error)
}

// State 页面状态
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Orchestrator 处理一次“Process Data”点击：请求分析并把结果写入页面
type Orchestrator struct {
	source Source
	page   *Page
	log    logrus.FieldLogger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State
}

// Option Orchestrator选项
type Option func(*Orchestrator)

// WithLogger 注入日志
func WithLogger(log logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// New 创建Orchestrator
func New(source Source, page *Page, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		source: source,
		page:   page,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State 当前状态
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Page 绑定的页面
func (o *Orchestrator) Page() *Page {
	return o.page
}

// Trigger 发起一次分析请求，成功返回nil
// 期间有新的Trigger时，上一次请求会被取消，其结果返回ErrSuperseded且不修改页面
func (o *Orchestrator) Trigger(ctx context.Context) error {
	reqCtx, gen := o.begin(ctx)

	result, err := o.source.Analyze(reqCtx)
	if err == nil {
		if result == nil {
			err = errEmptyResult
		} else {
			err = result.Validate()
		}
	}

	return o.settle(gen, result, err)
}

func (o *Orchestrator) begin(ctx context.Context) (context.Context, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.gen++
	reqCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.state = StateLoading

	show(o.page.Loading)
	hide(o.page.Error)
	hide(o.page.Results)
	o.page.Results.RemoveClass(visibleClass)

	return reqCtx, o.gen
}

func (o *Orchestrator) settle(gen uint64, result *model.AnalysisResult, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		o.log.WithField("generation", gen).Debug("discarding superseded analysis response")
		return ErrSuperseded
	}
	o.cancel()
	o.cancel = nil

	defer hide(o.page.Loading)

	if err != nil {
		o.fail(err)
		return err
	}
	o.succeed(result)
	return nil
}

func (o *Orchestrator) succeed(result *model.AnalysisResult) {
	p := o.page
	p.Head.SetHtml(result.Head)
	p.Info.SetText(result.Info)
	p.Missing.SetHtml(result.Missing)
	p.Describe.SetHtml(result.Describe)

	o.renderChart("top_categories", p.TopCategories, result.TopCategories, OccurrencesSuffix)
	o.renderChart("avg_rating_categories", p.AvgRatingCategories, result.AvgRatingCategories, RatingSuffix)

	p.Insight.SetText(result.DiscountRatingInsight)

	show(p.Results)
	p.Results.AddClass(visibleClass)
	o.state = StateSuccess
}

func (o *Orchestrator) renderChart(name string, target *goquery.Selection, data *model.Series, suffix string) {
	if err := chart.Render(target, data, chart.WithSuffix(suffix)); err != nil {
		o.log.WithError(err).WithField("chart", name).Info("chart rendered without data")
	}
}

func (o *Orchestrator) fail(err error) {
	o.log.WithError(err).Warn("analysis request failed")
	o.page.Error.SetText(ErrorPrefix + err.Error())
	show(o.page.Error)
	o.state = StateError
}
