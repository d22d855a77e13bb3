package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/guffzilla/wartest-sub004/internal/logger"
	"github.com/guffzilla/wartest-sub004/internal/worker"
)

// Emitter is the narrow contract services publish through.
type Emitter interface {
	Emit(ctx context.Context, topic string, payload any)
}

// Bus is the in-process pub/sub the engine emits on. Consumers (the reward
// collaborator's subscriber, tests) subscribe on the same bus.
type Bus struct {
	channel *gochannel.GoChannel
	log     zerolog.Logger
}

// NewBus creates the in-process event bus.
func NewBus(bufferSize int, log zerolog.Logger) *Bus {
	blog := logger.Component(log, "event-bus")
	return &Bus{
		channel: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(bufferSize),
		}, newLoggerAdapter(blog)),
		log: blog,
	}
}

// Publish marshals the payload and publishes it on the topic.
func (b *Bus) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	return b.channel.Publish(topic, msg)
}

// Subscribe returns a channel of messages published on the topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.channel.Subscribe(ctx, topic)
}

// Close shuts the bus down.
func (b *Bus) Close() error {
	return b.channel.Close()
}

// AsyncEmitter queues publishes through the worker pool so event delivery
// never blocks a verify transaction.
type AsyncEmitter struct {
	bus  *Bus
	pool *worker.Pool
}

func NewAsyncEmitter(bus *Bus, pool *worker.Pool) *AsyncEmitter {
	return &AsyncEmitter{bus: bus, pool: pool}
}

// Emit submits the publish as a background job. Delivery failures are logged
// by the pool and never propagate to the caller.
func (e *AsyncEmitter) Emit(ctx context.Context, topic string, payload any) {
	log := logger.FromContext(ctx)
	log.Debug().Str("topic", topic).Msg("queueing event")
	e.pool.Submit(&publishJob{bus: e.bus, topic: topic, payload: payload})
}

type publishJob struct {
	bus     *Bus
	topic   string
	payload any
}

func (j *publishJob) Run(ctx context.Context) error {
	return j.bus.Publish(j.topic, j.payload)
}

func (j *publishJob) Name() string {
	return "publish:" + j.topic
}

// loggerAdapter bridges watermill's logging interface onto zerolog.
type loggerAdapter struct {
	log zerolog.Logger
}

func newLoggerAdapter(log zerolog.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{log: log}
}

func (a *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.event(a.log.Error().Err(err), msg, fields)
}

func (a *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.event(a.log.Info(), msg, fields)
}

func (a *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.event(a.log.Debug(), msg, fields)
}

func (a *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.event(a.log.Trace(), msg, fields)
}

func (a *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := a.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &loggerAdapter{log: ctx.Logger()}
}

func (a *loggerAdapter) event(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
