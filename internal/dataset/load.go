package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn 缺少清洗所需的列
var ErrMissingColumn = errors.New("dataset: missing required column")

// 清洗规则依赖的列
const (
	ColDiscountedPrice    = "discounted_price"
	ColActualPrice        = "actual_price"
	ColDiscountPercentage = "discount_percentage"
	ColRating             = "rating"
	ColRatingCount        = "rating_count"
	ColCategory           = "category"
	ColMainCategory       = "main_category"
)

var requiredColumns = []string{
	ColDiscountedPrice, ColActualPrice, ColDiscountPercentage,
	ColRating, ColRatingCount, ColCategory,
}

// 价格里的货币符号，包括按latin-1误读的UTF-8卢比符号
var currencySymbols = []string{"â‚¹", "₹"}

// Load 从CSV文件加载并清洗数据
func Load(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	frame, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return frame, nil
}

// Read 解析CSV并清洗
func Read(r io.Reader) (*Frame, error) {
	raw, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return Clean(raw)
}

// Fingerprint 根据路径、大小和修改时间生成数据集标识，用作缓存key
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat dataset: %w", err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:16]), nil
}

// readCSV 读取原始CSV，所有列都是文本，空串为null
func readCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset: empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	ncol := len(header)
	text := make([][]string, ncol)
	valid := make([][]bool, ncol)
	var index []int

	for row := 0; ; row++ {
		rec, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		index = append(index, row)
		for j := 0; j < ncol; j++ {
			var v string
			if j < len(rec) {
				v = rec[j]
			}
			text[j] = append(text[j], v)
			valid[j] = append(valid[j], v != "")
		}
	}

	cols := make([]*Column, ncol)
	for j, name := range header {
		cols[j] = newTextColumn(strings.TrimSpace(name), text[j], valid[j])
	}
	return newFrame(cols, index), nil
}

// Clean 类型转换、派生主类目并丢弃评分缺失的行
func Clean(raw *Frame) (*Frame, error) {
	for _, name := range requiredColumns {
		if _, ok := raw.Column(name); !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	for _, name := range []string{ColDiscountedPrice, ColActualPrice} {
		col, err := parseColumn(raw, name, stripPrice, false)
		if err != nil {
			return nil, err
		}
		raw.replace(col)
	}

	rating, err := parseColumn(raw, ColRating, strings.TrimSpace, true)
	if err != nil {
		return nil, err
	}
	raw.replace(rating)

	ratingCount, err := parseColumn(raw, ColRatingCount, stripCommas, false)
	if err != nil {
		return nil, err
	}
	raw.replace(ratingCount)

	discount, err := parseColumn(raw, ColDiscountPercentage, stripPercent, false)
	if err != nil {
		return nil, err
	}
	for i := range discount.nums {
		discount.nums[i] /= 100
	}
	raw.replace(discount)

	raw.replace(mainCategory(raw))

	keep := make([]int, 0, raw.Len())
	for i := 0; i < raw.Len(); i++ {
		if rating.IsNull(i) || ratingCount.IsNull(i) {
			continue
		}
		keep = append(keep, i)
	}
	return raw.take(keep), nil
}

// parseColumn 把文本列转为数值列
// coerce为true时无法解析的值变为null，否则返回错误
func parseColumn(f *Frame, name string, normalize func(string) string, coerce bool) (*Column, error) {
	src, _ := f.Column(name)
	if src.Kind == Numeric {
		return src, nil
	}

	nums := make([]float64, src.Len())
	valid := make([]bool, src.Len())
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			continue
		}
		v, err := strconv.ParseFloat(normalize(src.text[i]), 64)
		if err != nil {
			if coerce {
				continue
			}
			return nil, fmt.Errorf("column %s row %d: cannot parse %q as number", name, f.index[i]+1, src.text[i])
		}
		nums[i] = v
		valid[i] = true
	}
	return newNumericColumn(name, nums, valid), nil
}

func mainCategory(f *Frame) *Column {
	src, _ := f.Column(ColCategory)
	values := make([]string, src.Len())
	valid := make([]bool, src.Len())
	for i := 0; i < src.Len(); i++ {
		if src.IsNull(i) {
			continue
		}
		values[i], _, _ = strings.Cut(src.text[i], "|")
		valid[i] = true
	}
	return newTextColumn(ColMainCategory, values, valid)
}

func stripPrice(s string) string {
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	return stripCommas(s)
}

func stripCommas(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

func stripPercent(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
}
