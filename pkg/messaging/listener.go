package messaging

import (
	"fmt"
	"log"

	"github.com/matst80/slask-grocery/pkg/common/jsoncompat"
	amqp "github.com/rabbitmq/amqp091-go"
)

func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		false, // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	err = ch.QueueBind(q.Name, name, name, false, nil)
	if err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
}

// ListenToTopic consumes the topic on its own goroutine until the channel closes.
// A failing handler nacks the delivery without requeue and the listener keeps going.
func ListenToTopic(ch *amqp.Channel, prefix string, topic ChangeTopic, handler func(amqp.Delivery) error) error {
	fc, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}

	go func(msgs <-chan amqp.Delivery) {
		defer ch.Close()
		for d := range msgs {
			if err := handler(d); err != nil {
				log.Printf("Error processing %s message: %v", topic, err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}(fc)
	return nil
}

func DecodeEvent(body []byte) (*ItemEvent, error) {
	var event ItemEvent
	if err := jsoncompat.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("decode item event: %w", err)
	}
	return &event, nil
}

// ListenToItemEvents decodes every delivery on the item topics and passes it on.
func ListenToItemEvents(conn *amqp.Connection, prefix string, handler func(*ItemEvent) error) error {
	for _, topic := range AllTopics {
		ch, err := conn.Channel()
		if err != nil {
			return err
		}
		err = ListenToTopic(ch, prefix, topic, func(d amqp.Delivery) error {
			event, err := DecodeEvent(d.Body)
			if err != nil {
				return err
			}
			if event.Type == "" {
				event.Type = topic
			}
			return handler(event)
		})
		if err != nil {
			ch.Close()
			return fmt.Errorf("listen to %s: %w", topic, err)
		}
	}
	return nil
}
