package notify

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher MQTT 发布接口（common/mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier 低库存提醒发布到 MQTT 主题，供护士站看板订阅
// 主题为 <prefix>/<item_id>，retained，看板上线即可拿到最新状态
type MQTTNotifier struct {
	pub    Publisher
	prefix string
}

func NewMQTTNotifier(pub Publisher, prefix string) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, prefix: prefix}
}

func (n *MQTTNotifier) NotifyLowStock(_ context.Context, alert LowStockAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal low stock alert: %w", err)
	}
	return n.pub.Publish(n.prefix+"/"+alert.ItemID, 1, true, payload)
}
