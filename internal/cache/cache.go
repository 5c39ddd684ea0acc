package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"product-analyze-go/internal/model"
)

// SourceAnalysis 分析结果缓存的数据源标识
const SourceAnalysis = "analysis"

// CachedResult 缓存的分析结果
type CachedResult struct {
	SubjectID string                `json:"subject_id"` // 数据集指纹
	Source    string                `json:"source"`
	Data      *model.AnalysisResult `json:"data"`
	CreatedAt time.Time             `json:"created_at"`
	ExpiresAt time.Time             `json:"expires_at"`
}

// Cache 缓存接口，未命中或已过期时返回 (nil, nil)
type Cache interface {
	Get(ctx context.Context, subjectID string) (*CachedResult, error)
	Set(ctx context.Context, subjectID string, data *model.AnalysisResult, ttl time.Duration) error
	Delete(ctx context.Context, subjectID string) error
}

// FileCache 基于文件的缓存实现
type FileCache struct {
	dir    string
	source string
	mu     sync.RWMutex
}

// NewFileCache 创建文件缓存
func NewFileCache(dir, source string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir, source: source}, nil
}

func (c *FileCache) cacheFile(subjectID string) string {
	return filepath.Join(c.dir, c.source+"_"+subjectID+".json")
}

// Get 获取缓存
func (c *FileCache) Get(ctx context.Context, subjectID string) (*CachedResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.cacheFile(subjectID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // 缓存不存在
		}
		return nil, err
	}

	var result CachedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	// 检查是否过期
	if time.Now().After(result.ExpiresAt) {
		go c.Delete(context.Background(), subjectID)
		return nil, nil
	}

	return &result, nil
}

// Set 设置缓存
func (c *FileCache) Set(ctx context.Context, subjectID string, data *model.AnalysisResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	result := CachedResult{
		SubjectID: subjectID,
		Source:    c.source,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.cacheFile(subjectID), jsonData, 0644)
}

// Delete 删除缓存
func (c *FileCache) Delete(ctx context.Context, subjectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.cacheFile(subjectID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryCache 内存缓存实现（用于测试或单机部署）
type MemoryCache struct {
	data map[string]*CachedResult
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]*CachedResult),
		now:  time.Now,
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(ctx context.Context, subjectID string) (*CachedResult, error) {
	c.mu.RLock()
	result, ok := c.data[subjectID]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	// 检查是否过期
	if c.now().After(result.ExpiresAt) {
		c.Delete(ctx, subjectID)
		return nil, nil
	}

	return result, nil
}

// Set 设置缓存
func (c *MemoryCache) Set(ctx context.Context, subjectID string, data *model.AnalysisResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.data[subjectID] = &CachedResult{
		SubjectID: subjectID,
		Source:    SourceAnalysis,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

// Delete 删除缓存
func (c *MemoryCache) Delete(ctx context.Context, subjectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, subjectID)
	return nil
}

// PostgresCache PostgreSQL缓存实现
type PostgresCache struct {
	db     *sql.DB
	source string
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS analysis_cache (
	source     TEXT        NOT NULL,
	subject_id TEXT        NOT NULL,
	data       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (source, subject_id)
)`

// NewPostgresCache 创建PostgreSQL缓存，表不存在时自动创建
func NewPostgresCache(ctx context.Context, databaseURL, source string) (*PostgresCache, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 测试连接
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init analysis_cache table: %w", err)
	}

	return &PostgresCache{db: db, source: source}, nil
}

// Get 获取缓存
func (c *PostgresCache) Get(ctx context.Context, subjectID string) (*CachedResult, error) {
	query := `
	SELECT subject_id, source, data, created_at, expires_at
	FROM analysis_cache
	WHERE source = $1 AND subject_id = $2 AND expires_at > NOW()
	`

	var result CachedResult
	var dataJSON []byte

	err := c.db.QueryRowContext(ctx, query, c.source, subjectID).Scan(
		&result.SubjectID,
		&result.Source,
		&dataJSON,
		&result.CreatedAt,
		&result.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // 缓存不存在或已过期
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &result.Data); err != nil {
		return nil, err
	}

	return &result, nil
}

// Set 设置缓存
func (c *PostgresCache) Set(ctx context.Context, subjectID string, data *model.AnalysisResult, ttl time.Duration) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(ttl)

	query := `
	INSERT INTO analysis_cache (source, subject_id, data, created_at, expires_at)
	VALUES ($1, $2, $3, NOW(), $4)
	ON CONFLICT (source, subject_id)
	DO UPDATE SET data = $3, created_at = NOW(), expires_at = $4
	`

	_, err = c.db.ExecContext(ctx, query, c.source, subjectID, dataJSON, expiresAt)
	return err
}

// Delete 删除缓存
func (c *PostgresCache) Delete(ctx context.Context, subjectID string) error {
	query := `DELETE FROM analysis_cache WHERE source = $1 AND subject_id = $2`
	_, err := c.db.ExecContext(ctx, query, c.source, subjectID)
	return err
}

// Close 关闭数据库连接
func (c *PostgresCache) Close() error {
	return c.db.Close()
}

// CleanExpired 清理过期缓存
func (c *PostgresCache) CleanExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM analysis_cache WHERE expires_at < NOW()`
	result, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
