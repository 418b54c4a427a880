package notify

import "time"

// EventType discriminates pushed events.
type EventType string

// Event types pushed to websocket subscribers.
const (
	EventTradeBuy        EventType = "trade_buy"
	EventTradeSell       EventType = "trade_sell"
	EventStrategyRun     EventType = "strategy_run"
	EventTokenDiscovered EventType = "token_discovered"
	EventSchedulerStatus EventType = "scheduler_status"
)

// Event is the wire format for pushed notifications.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}
