package welcomebot

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var chatDriverMethods = []string{"PostMessage", "UpdateMessage", "ScheduleMessage", "GetScheduledMessages", "DeleteScheduledMessage", "OpenConversation", "AuthTest"}

// ChatDriverWithTelemetry implements ChatDriver with all methods wrapped
// with open telemetry metrics
type ChatDriverWithTelemetry struct {
	base                 ChatDriver
	attrs                metric.MeasurementOption
	methodCounters       map[string]metric.Int64Counter
	errCounters          map[string]metric.Int64Counter
	methodTimeHistograms map[string]metric.Int64Histogram
}

// NewChatDriverWithTelemetry returns an instance of the ChatDriver decorated with open telemetry timing and count metrics
func NewChatDriverWithTelemetry(base ChatDriver, name string, meter metric.Meter) (cd *ChatDriverWithTelemetry, err error) {
	cd = &ChatDriverWithTelemetry{base: base, attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("name", name)))}

	if cd.methodCounters, err = newChatDriverMethodCounters("Calls", meter); err != nil {
		return nil, err
	}

	if cd.errCounters, err = newChatDriverMethodCounters("Errors", meter); err != nil {
		return nil, err
	}

	if cd.methodTimeHistograms, err = newChatDriverMethodTimeHistograms(meter); err != nil {
		return nil, err
	}

	return cd, nil
}

func newChatDriverMethodCounters(suffix string, meter metric.Meter) (counters map[string]metric.Int64Counter, err error) {
	counters = make(map[string]metric.Int64Counter)

	for _, m := range chatDriverMethods {
		if counters[m], err = meter.Int64Counter("chatDriver_" + m + "_" + suffix); err != nil {
			return nil, err
		}
	}

	return counters, nil
}

func newChatDriverMethodTimeHistograms(meter metric.Meter) (histograms map[string]metric.Int64Histogram, err error) {
	histograms = make(map[string]metric.Int64Histogram)

	for _, m := range chatDriverMethods {
		if histograms[m], err = meter.Int64Histogram("chatDriver_"+m+"_ProcessingTimeMillis", metric.WithUnit("ms")); err != nil {
			return nil, err
		}
	}

	return histograms, nil
}

// record counts a call to method along with its error, if any, and its duration since start
func (_d *ChatDriverWithTelemetry) record(ctx context.Context, method string, start time.Time, err error) {
	if err != nil {
		_d.errCounters[method].Add(ctx, 1, _d.attrs)
	}

	_d.methodCounters[method].Add(ctx, 1, _d.attrs)
	_d.methodTimeHistograms[method].Record(ctx, time.Since(start).Milliseconds(), _d.attrs)
}

// PostMessageContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error) {
	defer func(start time.Time) { _d.record(ctx, "PostMessage", start, err) }(time.Now())

	return _d.base.PostMessageContext(ctx, channelID, options...)
}

// UpdateMessageContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (respChannel string, respTimestamp string, respText string, err error) {
	defer func(start time.Time) { _d.record(ctx, "UpdateMessage", start, err) }(time.Now())

	return _d.base.UpdateMessageContext(ctx, channelID, timestamp, options...)
}

// ScheduleMessageContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) ScheduleMessageContext(ctx context.Context, channelID, postAt string, options ...slack.MsgOption) (respChannel string, scheduledMessageID string, err error) {
	defer func(start time.Time) { _d.record(ctx, "ScheduleMessage", start, err) }(time.Now())

	return _d.base.ScheduleMessageContext(ctx, channelID, postAt, options...)
}

// GetScheduledMessagesContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) GetScheduledMessagesContext(ctx context.Context, params *slack.GetScheduledMessagesParameters) (msgs []slack.ScheduledMessage, nextCursor string, err error) {
	defer func(start time.Time) { _d.record(ctx, "GetScheduledMessages", start, err) }(time.Now())

	return _d.base.GetScheduledMessagesContext(ctx, params)
}

// DeleteScheduledMessageContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) DeleteScheduledMessageContext(ctx context.Context, params *slack.DeleteScheduledMessageParameters) (ok bool, err error) {
	defer func(start time.Time) { _d.record(ctx, "DeleteScheduledMessage", start, err) }(time.Now())

	return _d.base.DeleteScheduledMessageContext(ctx, params)
}

// OpenConversationContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (channel *slack.Channel, noOp bool, alreadyOpen bool, err error) {
	defer func(start time.Time) { _d.record(ctx, "OpenConversation", start, err) }(time.Now())

	return _d.base.OpenConversationContext(ctx, params)
}

// AuthTestContext implements ChatDriver
func (_d *ChatDriverWithTelemetry) AuthTestContext(ctx context.Context) (response *slack.AuthTestResponse, err error) {
	defer func(start time.Time) { _d.record(ctx, "AuthTest", start, err) }(time.Now())

	return _d.base.AuthTestContext(ctx)
}
