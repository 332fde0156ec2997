package queue

import (
	"context"
	"errors"
	"sync"

	"fdly/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает тело одного сообщения.
type Handler func(ctx context.Context, body []byte) error

// Producer
type Producer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewProducer(url string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Producer{conn, ch}, nil
}

func declare(ch *amqp.Channel, queueName string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

func (p *Producer) Publish(ctx context.Context, queueName string, body []byte) error {
	if _, err := declare(p.ch, queueName); err != nil {
		return err
	}

	return p.ch.PublishWithContext(
		ctx,
		"",        // exchange
		queueName, // routing key (имя очереди)
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	)
}

// PublishTask проверяет и публикует задачу.
func (p *Producer) PublishTask(ctx context.Context, queueName string, task Task) error {
	body, err := task.Encode()
	if err != nil {
		return err
	}
	return p.Publish(ctx, queueName, body)
}

func (p *Producer) Close() {
	p.ch.Close()
	p.conn.Close()
}

// Consumer
type Consumer struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	workers int
	wg      sync.WaitGroup
}

func NewConsumer(url, queue string, workers int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if workers < 1 {
		workers = 1
	}
	// не больше workers неподтверждённых сообщений на канал
	if err := ch.Qos(workers, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Consumer{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		workers: workers,
	}, nil
}

// Consume запускает workers горутин. Успешные сообщения подтверждаются,
// при ошибке сообщение возвращается в очередь, а некорректные задачи отбрасываются.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	q, err := declare(c.ch, c.queue)
	if err != nil {
		return err
	}

	log := logger.Component("consumer").WithField("queue", q.Name)
	log.Infof("Consuming queue (messages: %d)", q.Messages)

	msgs, err := c.ch.Consume(
		q.Name,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return err
	}

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(id int) {
			defer c.wg.Done()
			wlog := log.WithField("worker", id)
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-msgs:
					if !ok {
						return
					}
					settle(ctx, wlog, msg, handler)
				}
			}
		}(i)
	}
	return nil
}

func settle(ctx context.Context, log *logger.Entry, msg amqp.Delivery, handler Handler) {
	err := handler(ctx, msg.Body)
	switch {
	case err == nil:
		msg.Ack(false)
	case errors.Is(err, ErrMalformedTask):
		msg.Nack(false, false)
		log.Errorf("Task dropped: %v", err)
	default:
		msg.Nack(false, true)
		log.Errorf("Task failed: %v", err)
	}
}

// Close закрывает канал и ждёт завершения воркеров.
func (c *Consumer) Close() {
	c.ch.Close()
	c.wg.Wait()
	c.conn.Close()
}
