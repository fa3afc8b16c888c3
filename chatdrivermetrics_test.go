package welcomebot_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexandre-normand/welcomebot"
	"github.com/alexandre-normand/welcomebot/test/capture"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func newChatDriverWithTelemetry(t *testing.T, chat welcomebot.ChatDriver) *welcomebot.ChatDriverWithTelemetry {
	cd, err := welcomebot.NewChatDriverWithTelemetry(chat, "test", noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	return cd
}

func TestChatDriverWithTelemetryDelegates(t *testing.T) {
	chat := capture.NewChatCaptor()
	cd := newChatDriverWithTelemetry(t, chat)
	ctx := context.Background()

	ch, ts, err := cd.PostMessageContext(ctx, "C1", slack.MsgOptionText("hello", false))
	require.NoError(t, err)
	assert.Equal(t, "C1", ch)

	_, _, _, err = cd.UpdateMessageContext(ctx, "C1", ts, slack.MsgOptionText("hello again", false))
	require.NoError(t, err)

	_, id, err := cd.ScheduleMessageContext(ctx, "C1", "1700000000", slack.MsgOptionText("later", false))
	require.NoError(t, err)

	msgs, _, err := cd.GetScheduledMessagesContext(ctx, &slack.GetScheduledMessagesParameters{Channel: "C1"})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	ok, err := cd.DeleteScheduledMessageContext(ctx, &slack.DeleteScheduledMessageParameters{Channel: "C1", ScheduledMessageID: id})
	require.NoError(t, err)
	assert.True(t, ok)

	dm, _, _, err := cd.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{"U1"}})
	require.NoError(t, err)
	assert.Equal(t, capture.DMChannelID("U1"), dm.ID)

	resp, err := cd.AuthTestContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "UBOT", resp.UserID)

	assert.Len(t, chat.Posted(), 1)
	assert.Len(t, chat.Updated(), 1)
	assert.Len(t, chat.DeletedScheduled(), 1)
	assert.Equal(t, []string{"U1"}, chat.OpenedConversations())
}

func TestChatDriverWithTelemetryReturnsErrors(t *testing.T) {
	chat := capture.NewChatCaptor()
	chat.PostErr = fmt.Errorf("rate_limited")
	cd := newChatDriverWithTelemetry(t, chat)

	_, _, err := cd.PostMessageContext(context.Background(), "C1", slack.MsgOptionText("hello", false))
	assert.EqualError(t, err, "rate_limited")
}
