package event

import (
	"sync"
	"time"

	"stockboard/internal/model"
)

// Kind 通知类型
type Kind string

const (
	KindDataUpdated     Kind = "data:updated"          // 某张表数据更新（含陈旧回退）
	KindDataError       Kind = "data:error"            // 某张表拉取失败且无缓存
	KindRefreshComplete Kind = "data:refresh-complete" // 一轮全量刷新结束
)

// DataUpdated 数据更新通知负载
type DataUpdated struct {
	SheetID   model.SheetID `json:"sheetId"`
	Rows      []model.Row   `json:"rows"`
	Timestamp time.Time     `json:"timestamp"`
	Stale     bool          `json:"stale"`   // 拉取失败后回退到缓存数据
	Dropped   int           `json:"dropped"` // 校验丢弃的行数
}

// DataError 数据错误通知负载
type DataError struct {
	SheetID model.SheetID `json:"sheetId"`
	Message string        `json:"errorMessage"`
}

// RefreshComplete 刷新完成通知负载
type RefreshComplete struct {
	RunID    string                        `json:"runId"`
	Results  map[model.SheetID][]model.Row `json:"results"`
	Failed   []model.SheetID               `json:"failed"`
	Duration time.Duration                 `json:"duration"`
}

// Notification 一条具名通知
type Notification struct {
	Kind      Kind      `json:"kind"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Bus 通知总线
// 订阅者各持一条带缓冲通道；发布不阻塞，通道满时丢弃该订阅者的本条通知。
// 另保留一段最近通知环，供轮询式消费方查看。
type Bus struct {
	subs    map[int]chan Notification
	next    int
	recent  []Notification
	maxKeep int
	mu      sync.RWMutex
}

// NewBus 创建通知总线
func NewBus() *Bus {
	return &Bus{
		subs:    make(map[int]chan Notification),
		maxKeep: 64,
	}
}

// Subscribe 订阅通知，返回接收通道与退订函数
func (b *Bus) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Notification, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Publish 发布一条通知
func (b *Bus) Publish(kind Kind, payload any) {
	n := Notification{
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	b.recent = append(b.recent, n)
	if len(b.recent) > b.maxKeep {
		b.recent = b.recent[len(b.recent)-b.maxKeep:]
	}
	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
			// 订阅者通道已满，丢弃
		}
	}
	b.mu.Unlock()
}

// Recent 最近的通知（从旧到新）
func (b *Bus) Recent() []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Notification, len(b.recent))
	copy(out, b.recent)
	return out
}
