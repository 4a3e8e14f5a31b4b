package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier 通过 HTTP POST 发送低库存提醒
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier 创建 webhook 客户端
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

// NotifyLowStock posts the alert as JSON. Any non-2xx response is an error.
func (n *WebhookNotifier) NotifyLowStock(ctx context.Context, alert LowStockAlert) error {
	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"event": "low_stock",
			"data":  alert,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("low stock webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("low stock webhook: unexpected status %d", resp.StatusCode())
	}

	n.logger.Info("Low stock notification sent",
		zap.String("item_id", alert.ItemID),
		zap.String("item_name", alert.ItemName),
		zap.Int("stock", alert.Stock),
		zap.Int("minimum_stock", alert.MinimumStock),
	)
	return nil
}
