package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

//go:embed templates/index.html
var defaultTemplate string

// DefaultTemplate 内置的页面模板（空闲状态）
func DefaultTemplate() string {
	return defaultTemplate
}

// 页面必须包含的元素id
const (
	IDTrigger             = "processButton"
	IDLoading             = "loadingIndicator"
	IDError               = "errorMessage"
	IDResults             = "results"
	IDHead                = "headOutput"
	IDInfo                = "infoOutput"
	IDMissing             = "missingOutput"
	IDDescribe            = "describeOutput"
	IDTopCategories       = "topCategoriesOutput"
	IDAvgRatingCategories = "avgRatingCategoriesOutput"
	IDInsight             = "discountRatingInsight"
)

const (
	hiddenClass  = "hidden"
	visibleClass = "visible"
)

// Page 页面元素注册表，由调用方注入给Orchestrator
type Page struct {
	doc *goquery.Document

	Trigger             *goquery.Selection
	Loading             *goquery.Selection
	Error               *goquery.Selection
	Results             *goquery.Selection
	Head                *goquery.Selection
	Info                *goquery.Selection
	Missing             *goquery.Selection
	Describe            *goquery.Selection
	TopCategories       *goquery.Selection
	AvgRatingCategories *goquery.Selection
	Insight             *goquery.Selection
}

// NewPage 解析所有固定id，缺少任何一个都会返回错误
func NewPage(doc *goquery.Document) (*Page, error) {
	p := &Page{doc: doc}
	var missing []string

	bind := func(id string) *goquery.Selection {
		sel := doc.Find("#" + id).First()
		if sel.Length() == 0 {
			missing = append(missing, id)
		}
		return sel
	}

	p.Trigger = bind(IDTrigger)
	p.Loading = bind(IDLoading)
	p.Error = bind(IDError)
	p.Results = bind(IDResults)
	p.Head = bind(IDHead)
	p.Info = bind(IDInfo)
	p.Missing = bind(IDMissing)
	p.Describe = bind(IDDescribe)
	p.TopCategories = bind(IDTopCategories)
	p.AvgRatingCategories = bind(IDAvgRatingCategories)
	p.Insight = bind(IDInsight)

	if len(missing) > 0 {
		return nil, fmt.Errorf("page is missing required elements: %s", strings.Join(missing, ", "))
	}
	return p, nil
}

// ParsePage 从HTML解析页面
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return NewPage(doc)
}

// NewDefaultPage 用内置模板创建页面
func NewDefaultPage() (*Page, error) {
	return ParsePage(strings.NewReader(defaultTemplate))
}

// Document 底层文档
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Render 把整个文档写到w
func (p *Page) Render(w io.Writer) error {
	return html.Render(w, p.doc.Get(0))
}

// HTML 整个文档的HTML
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// IsHidden 元素是否带hidden类
func IsHidden(sel *goquery.Selection) bool {
	return sel.HasClass(hiddenClass)
}

func show(sel *goquery.Selection) {
	sel.RemoveClass(hiddenClass)
}

func hide(sel *goquery.Selection) {
	sel.AddClass(hiddenClass)
}
