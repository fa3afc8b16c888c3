// Package capture provides a fake chat driver recording every outbound call made to it. It's safe
// for concurrent use and implements all the consumer interfaces of the welcomebot packages
package capture

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/slack-go/slack"
)

// PostedMessage holds the details of a posted message
type PostedMessage struct {
	Channel string
	Options []slack.MsgOption
}

// UpdatedMessage holds the details of an updated message
type UpdatedMessage struct {
	Channel   string
	Timestamp string
	Options   []slack.MsgOption
}

// DeletedScheduledMessage holds the details of a scheduled message deletion attempt
type DeletedScheduledMessage struct {
	Channel string
	ID      string
}

// ChatCaptor records outbound chat calls. Error fields can be set to make the matching
// calls fail
type ChatCaptor struct {
	// SelfUserID and SelfBotID are returned by AuthTestContext
	SelfUserID string
	SelfBotID  string

	PostErr     error
	UpdateErr   error
	ScheduleErr error
	ListErr     error
	OpenErr     error
	AuthErr     error
	// DeleteErrs holds forced errors by scheduled message id
	DeleteErrs map[string]error

	// PostDelay delays every post, useful to widen race windows in tests
	PostDelay time.Duration

	// ListPageSize limits the number of scheduled messages returned per page (0 means everything)
	ListPageSize int

	mu               sync.Mutex
	timeCursor       uint64
	scheduleCursor   int
	posted           []PostedMessage
	updated          []UpdatedMessage
	deletedScheduled []DeletedScheduledMessage
	opened           []string
	pending          map[string][]slack.ScheduledMessage
}

// NewChatCaptor returns a new initialized ChatCaptor
func NewChatCaptor() (c *ChatCaptor) {
	c = new(ChatCaptor)
	c.SelfUserID = "UBOT"
	c.SelfBotID = "BBOT"
	c.timeCursor = 1547785956
	c.DeleteErrs = make(map[string]error)
	c.pending = make(map[string][]slack.ScheduledMessage)

	return c
}

// PostMessageContext records a posted message and returns a new timestamp for it
func (c *ChatCaptor) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error) {
	if c.PostDelay > 0 {
		time.Sleep(c.PostDelay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.PostErr != nil {
		return "", "", c.PostErr
	}

	c.posted = append(c.posted, PostedMessage{Channel: channelID, Options: options})
	return channelID, c.nextTimestamp(), nil
}

// UpdateMessageContext records an updated message and returns a new timestamp for it
func (c *ChatCaptor) UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (respChannel string, respTimestamp string, respText string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.UpdateErr != nil {
		return "", "", "", c.UpdateErr
	}

	c.updated = append(c.updated, UpdatedMessage{Channel: channelID, Timestamp: timestamp, Options: options})
	return channelID, c.nextTimestamp(), "", nil
}

// ScheduleMessageContext records a scheduled message and returns its new id
func (c *ChatCaptor) ScheduleMessageContext(ctx context.Context, channelID, postAt string, options ...slack.MsgOption) (respChannel string, scheduledMessageID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ScheduleErr != nil {
		return "", "", c.ScheduleErr
	}

	at, err := strconv.Atoi(postAt)
	if err != nil {
		return "", "", fmt.Errorf("invalid_time")
	}

	c.scheduleCursor++
	id := fmt.Sprintf("Q%04d", c.scheduleCursor)
	text := Values(options).Get("text")
	c.pending[channelID] = append(c.pending[channelID], slack.ScheduledMessage{ID: id, Channel: channelID, PostAt: at, Text: text})

	return channelID, id, nil
}

// GetScheduledMessagesContext returns the pending scheduled messages of a channel, paginated according to
// ListPageSize
func (c *ChatCaptor) GetScheduledMessagesContext(ctx context.Context, params *slack.GetScheduledMessagesParameters) (msgs []slack.ScheduledMessage, nextCursor string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ListErr != nil {
		return nil, "", c.ListErr
	}

	all := c.pending[params.Channel]
	start := 0
	if params.Cursor != "" {
		if start, err = strconv.Atoi(params.Cursor); err != nil {
			return nil, "", fmt.Errorf("invalid_cursor")
		}
	}

	end := len(all)
	if c.ListPageSize > 0 && start+c.ListPageSize < end {
		end = start + c.ListPageSize
		nextCursor = strconv.Itoa(end)
	}

	return append([]slack.ScheduledMessage(nil), all[start:end]...), nextCursor, nil
}

// DeleteScheduledMessageContext records the deletion attempt and removes the pending scheduled message. Deleting
// an unknown id fails like slack does
func (c *ChatCaptor) DeleteScheduledMessageContext(ctx context.Context, params *slack.DeleteScheduledMessageParameters) (ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.deletedScheduled = append(c.deletedScheduled, DeletedScheduledMessage{Channel: params.Channel, ID: params.ScheduledMessageID})

	if err, forced := c.DeleteErrs[params.ScheduledMessageID]; forced {
		return false, err
	}

	pending := c.pending[params.Channel]
	for i, m := range pending {
		if m.ID == params.ScheduledMessageID {
			c.pending[params.Channel] = append(pending[:i:i], pending[i+1:]...)
			return true, nil
		}
	}

	return false, fmt.Errorf("invalid_scheduled_message_id")
}

// OpenConversationContext returns a direct message channel id derived from the user id
func (c *ChatCaptor) OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (channel *slack.Channel, noOp bool, alreadyOpen bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.OpenErr != nil {
		return nil, false, false, c.OpenErr
	}

	if len(params.Users) != 1 {
		return nil, false, false, fmt.Errorf("expected exactly one user but got %v", params.Users)
	}

	c.opened = append(c.opened, params.Users[0])

	channel = new(slack.Channel)
	channel.ID = DMChannelID(params.Users[0])
	return channel, false, true, nil
}

// AuthTestContext returns the captor's self identity
func (c *ChatCaptor) AuthTestContext(ctx context.Context) (response *slack.AuthTestResponse, err error) {
	if c.AuthErr != nil {
		return nil, c.AuthErr
	}

	return &slack.AuthTestResponse{UserID: c.SelfUserID, BotID: c.SelfBotID, User: "welcomebot"}, nil
}

// Posted returns a copy of the posted messages
func (c *ChatCaptor) Posted() []PostedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]PostedMessage(nil), c.posted...)
}

// Updated returns a copy of the updated messages
func (c *ChatCaptor) Updated() []UpdatedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]UpdatedMessage(nil), c.updated...)
}

// DeletedScheduled returns a copy of all scheduled message deletion attempts
func (c *ChatCaptor) DeletedScheduled() []DeletedScheduledMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]DeletedScheduledMessage(nil), c.deletedScheduled...)
}

// OpenedConversations returns the users for which a conversation was opened
func (c *ChatCaptor) OpenedConversations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.opened...)
}

// PendingScheduled returns the ids of the scheduled messages still pending in a channel, sorted
func (c *ChatCaptor) PendingScheduled(channelID string) (ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.pending[channelID] {
		ids = append(ids, m.ID)
	}

	sort.Strings(ids)
	return ids
}

func (c *ChatCaptor) nextTimestamp() (fmtTime string) {
	c.timeCursor = c.timeCursor + 10
	return fmt.Sprintf("%d.000", c.timeCursor)
}

// DMChannelID returns the direct message channel id the captor opens for a user
func DMChannelID(userID string) string {
	return "D" + userID
}

// Values applies message options and returns the resulting request values (i.e. "text", "blocks", "thread_ts")
func Values(options []slack.MsgOption) (values url.Values) {
	_, values, _ = slack.UnsafeApplyMsgOptions("", "", "", options...)
	return values
}
