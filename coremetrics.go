package welcomebot

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	messageEventType      = "message"
	reactionAddedType     = "reactionAdded"
	messageCountEventType = "messageCount"
)

var eventTypes = []string{messageEventType, reactionAddedType, messageCountEventType}

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName     string
	coreMetrics coreMetrics
}

// coreMetrics holds core welcomebot metrics
type coreMetrics struct {
	eventsSeen                   metric.Int64Counter
	eventsProcessed              metric.Int64Counter
	eventErrors                  metric.Int64Counter
	eventProcessingLatencyMillis metric.Int64Histogram
	eventAttrs                   map[string]metric.MeasurementOption
	defaultAttrs                 metric.MeasurementOption
}

// newInstrumenter creates a new core instrumenter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	ins = new(instrumenter)
	ins.appName = appName

	cm := coreMetrics{defaultAttrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("name", appName))),
		eventAttrs: newAttrsByEventType(appName)}

	if cm.eventsSeen, err = meter.Int64Counter("eventSeen"); err != nil {
		return nil, err
	}

	if cm.eventsProcessed, err = meter.Int64Counter("eventProcessed"); err != nil {
		return nil, err
	}

	if cm.eventErrors, err = meter.Int64Counter("eventErrors"); err != nil {
		return nil, err
	}

	if cm.eventProcessingLatencyMillis, err = meter.Int64Histogram("eventProcessingLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	ins.coreMetrics = cm

	return ins, nil
}

// newAttrsByEventType creates the measurement attributes of each event type
func newAttrsByEventType(appName string) (attrs map[string]metric.MeasurementOption) {
	attrs = make(map[string]metric.MeasurementOption)

	for _, t := range eventTypes {
		attrs[t] = metric.WithAttributeSet(attribute.NewSet(attribute.String("name", appName), attribute.String("eventType", t)))
	}

	return attrs
}

// observe runs the handling of an event of type eventType and records its count, duration and error, if any
func (ins *instrumenter) observe(ctx context.Context, eventType string, handle func() error) (err error) {
	ins.coreMetrics.eventsSeen.Add(ctx, 1, ins.coreMetrics.defaultAttrs)

	attrs := ins.coreMetrics.eventAttrs[eventType]
	d := measure(func() {
		err = handle()
	})

	ins.coreMetrics.eventsProcessed.Add(ctx, 1, attrs)
	ins.coreMetrics.eventProcessingLatencyMillis.Record(ctx, d.Milliseconds(), attrs)
	if err != nil {
		ins.coreMetrics.eventErrors.Add(ctx, 1, attrs)
	}

	return err
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
