package nightscout

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"xdrip-watch/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const entriesPath = "/api/v1/entries/sgv.json"

// Entry Nightscout sgv 条目
type Entry struct {
	ID        string  `json:"_id"`
	SGV       float64 `json:"sgv"`
	Date      int64   `json:"date"` // 毫秒时间戳
	Direction string  `json:"direction"`
	Device    string  `json:"device"`
}

// Reading 转换为内部读数
func (e Entry) Reading() models.Reading {
	return models.Reading{
		Value:     e.SGV,
		Timestamp: time.UnixMilli(e.Date).UTC(),
		Trend:     e.Direction,
	}
}

// Client Nightscout REST 客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建 Nightscout 客户端；apiSecret 为空时不带鉴权头
func NewClient(baseURL, apiSecret string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	if apiSecret != "" {
		client.SetHeader("api-secret", HashSecret(apiSecret))
	}

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// HashSecret Nightscout 要求 api-secret 头为 SHA1 十六进制
func HashSecret(secret string) string {
	sum := sha1.Sum([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// FetchEntries 拉取最近 count 条 sgv 读数（最新在前）
func (c *Client) FetchEntries(ctx context.Context, count int) ([]models.Reading, error) {
	if count <= 0 {
		count = 1
	}

	var entries []Entry
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("count", strconv.Itoa(count)).
		SetResult(&entries).
		Get(entriesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to call Nightscout API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Nightscout API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("Nightscout API error: status %d", resp.StatusCode())
	}

	readings := make([]models.Reading, 0, len(entries))
	for _, e := range entries {
		if e.SGV <= 0 || e.Date <= 0 {
			continue
		}
		readings = append(readings, e.Reading())
	}

	c.logger.Debug("Fetched Nightscout entries",
		zap.Int("entry_count", len(entries)),
		zap.Int("reading_count", len(readings)),
	)

	return readings, nil
}
