//go:build integration

package notify

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
)

type AMQPIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	amqpURL   string
}

func (s *AMQPIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := rabbitmq.Run(s.ctx,
		"rabbitmq:3.13-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	amqpURL, err := container.AmqpURL(s.ctx)
	s.Require().NoError(err)
	s.amqpURL = amqpURL
}

func (s *AMQPIntegrationSuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func TestAMQPIntegrationSuite(t *testing.T) {
	suite.Run(t, new(AMQPIntegrationSuite))
}

func (s *AMQPIntegrationSuite) TestSendAndProbe() {
	notifier, err := NewAMQP(AMQPConfig{
		URL:        s.amqpURL,
		Exchange:   "workwatch-test",
		RoutingKey: "notifications",
		QueueName:  "workwatch-test-queue",
	})
	s.Require().NoError(err)
	defer notifier.Close()

	s.NoError(notifier.Probe(s.ctx))
	s.Require().NoError(notifier.Send(s.ctx, "<b>New work</b>"))

	conn, err := amqp.Dial(s.amqpURL)
	s.Require().NoError(err)
	defer conn.Close()

	ch, err := conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	var msg amqp.Delivery
	s.Eventually(func() bool {
		var ok bool
		msg, ok, err = ch.Get("workwatch-test-queue", true)
		return err == nil && ok
	}, 5*time.Second, 100*time.Millisecond)

	s.Equal("text/html", msg.ContentType)
	s.Equal(amqp.Persistent, msg.DeliveryMode)
	s.Equal("<b>New work</b>", string(msg.Body))
}

func (s *AMQPIntegrationSuite) TestProbeAfterClose() {
	notifier, err := NewAMQP(AMQPConfig{
		URL:        s.amqpURL,
		Exchange:   "workwatch-test-closed",
		RoutingKey: "notifications",
	})
	s.Require().NoError(err)

	s.Require().NoError(notifier.Close())
	s.Error(notifier.Probe(s.ctx))
}
