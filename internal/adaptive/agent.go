package adaptive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/saaga0h/jeeves-adaptive/internal/dispatch"
	"github.com/saaga0h/jeeves-adaptive/internal/sensors"
	"github.com/saaga0h/jeeves-adaptive/pkg/config"
	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

const inboxSize = 64

var commandTopics = []string{
	mqtt.TopicCommandManual,
	mqtt.TopicCommandAdjust,
	mqtt.TopicCommandPreset,
	mqtt.TopicCommandTimerStart,
	mqtt.TopicCommandTimerCancel,
	mqtt.TopicCommandAlarmSet,
	mqtt.TopicCommandAlarmClear,
}

// Agent runs the adaptive controller on a single goroutine. MQTT callbacks
// only parse messages and enqueue work for that goroutine.
type Agent struct {
	mqtt       mqtt.Client
	redis      redis.Client
	cfg        *config.Config
	logger     *slog.Logger
	controller *Controller
	cache      *sensors.Cache
	dispatcher *dispatch.Dispatcher
	limiter    *RateLimiter

	inbox    chan func(ctx context.Context)
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewAgent creates the adaptive agent. The cache receives sensor messages;
// the dispatcher is drained on Stop.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, controller *Controller, cache *sensors.Cache, dispatcher *dispatch.Dispatcher, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:       mqttClient,
		redis:      redisClient,
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		cache:      cache,
		dispatcher: dispatcher,
		limiter:    NewRateLimiter(time.Duration(cfg.MinRecalcIntervalMs) * time.Millisecond),
		inbox:      make(chan func(ctx context.Context), inboxSize),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start connects, restores timers, subscribes and runs the loop until ctx is
// cancelled or Stop is called
func (a *Agent) Start(ctx context.Context) error {
	defer close(a.done)

	a.logger.Info("Starting adaptive agent",
		"service_name", a.cfg.ServiceName,
		"tick_interval_sec", a.cfg.TickIntervalSec,
		"base_timeout_sec", a.cfg.BaseTimeoutSec,
		"min_recalc_interval_ms", a.cfg.MinRecalcIntervalMs)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	a.logger.Info("Connected to Redis", "address", a.cfg.RedisAddress())

	// Timer state is optional; a failed restore starts every zone idle
	if err := a.controller.Restore(ctx); err != nil {
		a.logger.Error("Failed to restore timer state", "error", err)
	}

	if err := a.subscribe(); err != nil {
		return err
	}

	a.logger.Info("Adaptive agent started and ready")
	a.run(ctx)
	a.logger.Info("Adaptive agent stopping")

	return nil
}

// Stop ends the loop, drains notifications and closes connections
func (a *Agent) Stop() error {
	a.logger.Info("Stopping adaptive agent")

	a.stopOnce.Do(func() { close(a.stopChan) })
	select {
	case <-a.done:
	case <-time.After(5 * time.Second):
		a.logger.Warn("Timed out waiting for agent loop")
	}

	a.dispatcher.Wait()
	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Adaptive agent stopped")
	return nil
}

func (a *Agent) subscribe() error {
	for _, topic := range a.cfg.SensorTopics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if err := a.mqtt.Subscribe(topic, 0, a.handleSensorMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	for _, topic := range commandTopics {
		if err := a.mqtt.Subscribe(topic, 1, a.handleCommandMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	if err := a.mqtt.Subscribe(mqtt.TopicAlarmContext, 1, a.handleAlarmMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicAlarmContext, err)
	}
	if err := a.mqtt.Subscribe(mqtt.TopicWakeSkipNext, 1, a.handleSkipNextMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicWakeSkipNext, err)
	}

	a.logger.Info("Subscribed to adaptive inputs",
		"sensor_topics", a.cfg.SensorTopics,
		"command_topics", len(commandTopics))
	return nil
}

func (a *Agent) run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.TickInterval())
	defer ticker.Stop()

	a.logger.Info("Starting periodic tick loop", "interval_sec", a.cfg.TickIntervalSec)
	a.controller.Tick(ctx, TriggerStartup)

	for {
		select {
		case <-ticker.C:
			a.controller.Tick(ctx, TriggerPeriodic)
		case job := <-a.inbox:
			job(ctx)
		case <-ctx.Done():
			return
		case <-a.stopChan:
			return
		}
	}
}

func (a *Agent) enqueue(job func(ctx context.Context)) {
	select {
	case a.inbox <- job:
	case <-a.stopChan:
	}
}

// handleSensorMessage caches the reading and recalculates when a boost input changed
func (a *Agent) handleSensorMessage(msg mqtt.Message) {
	topic := msg.Topic()

	id, ok := mqtt.SensorIDFromTopic(topic)
	if !ok {
		id = topic
	}
	sensorType, _, _ := strings.Cut(id, "/")

	changed, err := a.cache.Update(id, sensorType, msg.Payload())
	if err != nil {
		a.logger.Debug("Ignoring sensor message", "topic", topic, "error", err)
		return
	}
	if !changed || !a.isBoostInput(id) {
		return
	}

	a.enqueue(func(ctx context.Context) {
		if !a.limiter.Allow(id) {
			a.logger.Debug("Rate limited, skipping recalculation",
				"sensor", id,
				"min_interval_ms", a.cfg.MinRecalcIntervalMs)
			return
		}
		a.logger.Debug("Boost input changed, recalculating", "sensor", id)
		a.controller.Tick(ctx, TriggerSensor)
	})
}

func (a *Agent) handleCommandMessage(msg mqtt.Message) {
	topic := msg.Topic()
	cmd, err := parseCommand(topic, msg.Payload())
	if err != nil {
		a.logger.Warn("Rejected adaptive command", "topic", topic, "error", err)
		return
	}
	a.enqueueCommand(topic, cmd)
}

func (a *Agent) handleAlarmMessage(msg mqtt.Message) {
	cmd, err := parseAlarm(msg.Payload())
	if err != nil {
		a.logger.Warn("Rejected alarm context", "topic", msg.Topic(), "error", err)
		return
	}
	a.enqueueCommand(msg.Topic(), cmd)
}

func (a *Agent) handleSkipNextMessage(msg mqtt.Message) {
	skip, err := parseSkipNext(msg.Payload())
	if err != nil {
		a.logger.Warn("Rejected skip flag", "topic", msg.Topic(), "error", err)
		return
	}
	a.enqueueCommand(msg.Topic(), func(ctx context.Context, c *Controller) error {
		c.SetSkipNext(skip)
		return nil
	})
}

// enqueueCommand applies a command on the loop and recalculates immediately
func (a *Agent) enqueueCommand(topic string, cmd command) {
	a.enqueue(func(ctx context.Context) {
		if err := cmd(ctx, a.controller); err != nil {
			a.logger.Warn("Adaptive command failed", "topic", topic, "error", err)
			return
		}
		a.controller.Tick(ctx, TriggerCommand)
	})
}

func (a *Agent) isBoostInput(id string) bool {
	ids := a.controller.sensorIDs
	return id == ids.Lux || id == ids.Weather || id == ids.CloudCoverage
}
