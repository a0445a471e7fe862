package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"survey-service/internal/models"

	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type Consumer interface {
	Start() error
	Close() error
}

// ResponseIngestHandler receives responses collected by edge collectors
// (kiosks, embedded widgets) that arrive over the bus instead of the public
// HTTP endpoint. Intake rules are the same either way.
type ResponseIngestHandler interface {
	HandleIngestedResponse(ctx context.Context, surveyID bson.ObjectID, req *models.SubmitResponseRequest) error
}

type EventConsumer struct {
	conn          *amqp091.Connection
	channel       *amqp091.Channel
	queueName     string
	ingestHandler ResponseIngestHandler
	enabled       bool
}

// IngestedResponseData is the bus payload for an externally collected
// response.
type IngestedResponseData struct {
	Type           string            `json:"type"`
	SurveyID       string            `json:"surveyId"`
	UserID         string            `json:"userId,omitempty"`
	SessionID      string            `json:"sessionId,omitempty"`
	Answers        map[string]any    `json:"responses"`
	NPSScore       *int              `json:"npsScore,omitempty"`
	Sentiment      string            `json:"sentiment,omitempty"`
	CompletionTime *int              `json:"completionTime,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func NewEventConsumer(rabbitURI, exchangeName string, ingestHandler ResponseIngestHandler) (*EventConsumer, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event consumption is disabled")
		return &EventConsumer{
			enabled: false,
		}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queueName := "survey-service-response-events"
	queue, err := channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,          // queue name
		"response.ingested", // routing key
		exchangeName,        // exchange
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &EventConsumer{
		conn:          conn,
		channel:       channel,
		queueName:     queue.Name,
		ingestHandler: ingestHandler,
		enabled:       true,
	}, nil
}

func (c *EventConsumer) Start() error {
	if !c.enabled {
		log.Println("Event consumption is disabled")
		return nil
	}

	err := c.channel.Qos(
		10,    // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := c.processMessage(msg); err != nil {
				log.Printf("Failed to process message: %v", err)
				msg.Nack(false, true) // Nack and requeue
			} else {
				msg.Ack(false)
			}
		}
	}()

	log.Println("Response event consumer started, waiting for messages...")
	return nil
}

func (c *EventConsumer) processMessage(msg amqp091.Delivery) error {
	log.Printf("Received message with routing key: %s", msg.RoutingKey)

	switch msg.RoutingKey {
	case "response.ingested":
		return c.handleIngestedResponse(msg.Body)
	default:
		log.Printf("Unknown routing key: %s", msg.RoutingKey)
		return nil // Don't requeue unknown message types
	}
}

func (c *EventConsumer) handleIngestedResponse(body []byte) error {
	var data IngestedResponseData
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("failed to unmarshal ingested response: %w", err)
	}

	if data.SurveyID == "" {
		log.Printf("No survey ID in ingested response, skipping")
		return nil
	}

	surveyObjectID, err := bson.ObjectIDFromHex(data.SurveyID)
	if err != nil {
		return fmt.Errorf("invalid survey ID format: %w", err)
	}

	req := &models.SubmitResponseRequest{
		UserID:         data.UserID,
		SessionID:      data.SessionID,
		Answers:        data.Answers,
		NPSScore:       data.NPSScore,
		Sentiment:      models.Sentiment(data.Sentiment),
		CompletionTime: data.CompletionTime,
		Metadata:       data.Metadata,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.ingestHandler.HandleIngestedResponse(ctx, surveyObjectID, req); err != nil {
		return fmt.Errorf("failed to handle ingested response: %w", err)
	}

	log.Printf("Successfully ingested response for survey %s", data.SurveyID)
	return nil
}

func (c *EventConsumer) Close() error {
	if !c.enabled {
		return nil
	}

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("error closing RabbitMQ connection: %w", err)
		}
	}

	return nil
}
