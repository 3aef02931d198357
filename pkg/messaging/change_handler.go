package messaging

import (
	"log"
	"time"

	"github.com/matst80/slask-grocery/pkg/common"
	"github.com/matst80/slask-grocery/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	eventsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgrocery_events_sent_total",
		Help: "Item events published by topic",
	}, []string{"topic"})
	eventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskgrocery_events_failed_total",
		Help: "Item events that could not be published",
	}, []string{"topic"})
)

// RabbitChangeHandler publishes store changes as ItemEvents. Publish failures
// are logged, they never fail the mutation. With a queue the events are sent
// from a background goroutine in the order they happened.
type RabbitChangeHandler struct {
	Prefix string
	send   func(topic ChangeTopic, event ItemEvent) error
	now    func() time.Time
	queue  *common.QueueHandler[ItemEvent]
}

func NewRabbitChangeHandler(conn *amqp.Connection, prefix string) (*RabbitChangeHandler, error) {
	if err := DefineTopics(conn, prefix, AllTopics...); err != nil {
		return nil, err
	}
	h := &RabbitChangeHandler{
		Prefix: prefix,
		send: func(topic ChangeTopic, event ItemEvent) error {
			return SendChange(conn, prefix, topic, event)
		},
		now: time.Now,
	}
	h.queue = common.NewQueueHandler(h.sendAll, 50)
	return h, nil
}

func (h *RabbitChangeHandler) sendAll(events []ItemEvent) {
	for _, event := range events {
		h.sendOne(event)
	}
}

func (h *RabbitChangeHandler) sendOne(event ItemEvent) {
	topic := event.Type
	if err := h.send(topic, event); err != nil {
		eventsFailed.WithLabelValues(string(topic)).Inc()
		log.Printf("could not send %s for item %d: %v", topic, event.Id, err)
		return
	}
	eventsSent.WithLabelValues(string(topic)).Inc()
}

// Close flushes queued events.
func (h *RabbitChangeHandler) Close() {
	if h.queue != nil {
		h.queue.Close()
	}
}

func (h *RabbitChangeHandler) publish(topic ChangeTopic, id types.ItemId, item *types.Item) {
	event := ItemEvent{
		Type:      topic,
		Id:        id,
		Timestamp: h.now(),
	}
	if item != nil {
		view := item.View()
		event.Item = &view
	}
	if h.queue != nil && h.queue.Add(event) {
		return
	}
	h.sendOne(event)
}

func (h *RabbitChangeHandler) ItemAdded(item *types.Item) {
	h.publish(ItemAdded, item.GetId(), item)
}

func (h *RabbitChangeHandler) ItemChanged(item *types.Item) {
	h.publish(ItemChanged, item.GetId(), item)
}

func (h *RabbitChangeHandler) ItemDeleted(id types.ItemId) {
	h.publish(ItemDeleted, id, nil)
}
