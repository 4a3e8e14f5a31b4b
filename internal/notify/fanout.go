package notify

import (
	"context"
	"errors"
)

// LowStockNotifier 与 service 中的接口一致
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, alert LowStockAlert) error
}

// Fanout 依次通知所有渠道；单个渠道失败不影响其它渠道
type Fanout []LowStockNotifier

func (f Fanout) NotifyLowStock(ctx context.Context, alert LowStockAlert) error {
	var errs []error
	for _, n := range f {
		if err := n.NotifyLowStock(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
