package engine

// EventType names a class of progress event emitted during a run.
type EventType string

// Events cover the observable milestones of a run: probe batches going out,
// candidates merging, identity and backlink resolutions, and termination
// either with a solution or with the budget spent.
const (
	EventBatchProbed      EventType = "batch_probed"
	EventRoomsMerged      EventType = "rooms_merged"
	EventDisambiguated    EventType = "disambiguated"
	EventBacklinkResolved EventType = "backlink_resolved"
	EventSolved           EventType = "solved"
	EventBudgetExhausted  EventType = "budget_exhausted"
)

// Event is one progress notification. The payload depends on the type: a
// plan count for probes, room IDs for merges and resolutions, the finished
// map for EventSolved.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus fans engine events out to any number of subscriber channels.
// The engine publishes from its single loop goroutine; subscribers consume
// from their own.
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a bus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe registers ch to receive every subsequent event. Subscribing
// after a run has started misses the events already published.
func (b *EventBus) Subscribe(ch chan<- Event) {
	b.subscribers = append(b.subscribers, ch)
}

// Publish delivers event to every subscriber without blocking the engine
// loop: a subscriber whose channel is full misses the event.
func (b *EventBus) Publish(event Event) {
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
