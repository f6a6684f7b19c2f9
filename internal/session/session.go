// Package session 抽象手表与手机之间的配对通道。
package session

import (
	"context"
	"errors"
)

// ErrNotConnected 通道当前不可达
var ErrNotConnected = errors.New("session: paired device not reachable")

// SnapshotHandler 收到手机端快照（原始字节）时回调
type SnapshotHandler func(payload []byte)

// Session 配对设备通道：发送一次性状态请求、接收快照
type Session interface {
	RequestUpdate(ctx context.Context) error
	OnSnapshot(handler SnapshotHandler)
}

// Topics 一台手表使用的 MQTT 主题
type Topics struct {
	Request string
	State   string
}

// TopicsFor 生成 <prefix>/<deviceID>/request 与 <prefix>/<deviceID>/state
func TopicsFor(prefix, deviceID string) Topics {
	return Topics{
		Request: prefix + "/" + deviceID + "/request",
		State:   prefix + "/" + deviceID + "/state",
	}
}
