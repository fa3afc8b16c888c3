// Package schedule manages the lifecycle of messages scheduled on slack: creating them, listing
// what's pending in a channel and cancelling them
package schedule

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/alexandre-normand/welcomebot/slog"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

// Request represents a message to post at a later time
type Request struct {
	Text    string
	Channel string
	PostAt  time.Time
}

// Handle identifies a message scheduled on slack
type Handle struct {
	ID      string
	Channel string
	PostAt  time.Time
}

// Returns a human-friendly string for the Handle
func (h Handle) String() string {
	return fmt.Sprintf("%s@%s", h.ID, h.Channel)
}

// Outcome holds the result of cancelling one scheduled message
type Outcome struct {
	Handle Handle
	Err    error
}

// Cancelled returns true if the scheduled message was cancelled
func (o Outcome) Cancelled() bool {
	return o.Err == nil
}

// messageScheduler is implemented by any value that has the ScheduleMessageContext method.
//
// slack.Client implements this interface
type messageScheduler interface {
	ScheduleMessageContext(ctx context.Context, channelID, postAt string, options ...slack.MsgOption) (respChannel string, scheduledMessageID string, err error)
}

// scheduledMessageLister is implemented by any value that has the GetScheduledMessagesContext method.
//
// slack.Client implements this interface
type scheduledMessageLister interface {
	GetScheduledMessagesContext(ctx context.Context, params *slack.GetScheduledMessagesParameters) (channels []slack.ScheduledMessage, nextCursor string, err error)
}

// scheduledMessageDeleter is implemented by any value that has the DeleteScheduledMessageContext method.
//
// slack.Client implements this interface
type scheduledMessageDeleter interface {
	DeleteScheduledMessageContext(ctx context.Context, params *slack.DeleteScheduledMessageParameters) (bool, error)
}

// ChatDriver encompasses all the scheduled message operations
type ChatDriver interface {
	messageScheduler
	scheduledMessageLister
	scheduledMessageDeleter
}

// Manager creates, lists and cancels scheduled messages and keeps track of the ones it created
// until they're cancelled
type Manager struct {
	chat ChatDriver
	log  slog.SLogger

	mu          sync.Mutex
	outstanding map[string]Handle
}

// NewManager returns a new Manager
func NewManager(chat ChatDriver, log slog.SLogger) (m *Manager) {
	return &Manager{chat: chat, log: log, outstanding: make(map[string]Handle)}
}

// ScheduleAll schedules every request and returns their handles in the same order. Post times in the
// past are left for slack to reject. On error, the handles scheduled so far are returned along with
// the error so that the caller can still cancel them
func (m *Manager) ScheduleAll(ctx context.Context, requests []Request) (handles []Handle, err error) {
	handles = make([]Handle, 0, len(requests))

	for _, r := range requests {
		_, id, err := m.chat.ScheduleMessageContext(ctx, r.Channel, strconv.FormatInt(r.PostAt.Unix(), 10), slack.MsgOptionText(r.Text, false))
		if err != nil {
			return handles, errors.Wrapf(err, "error scheduling message for channel [%s] at [%s]", r.Channel, r.PostAt)
		}

		h := Handle{ID: id, Channel: r.Channel, PostAt: r.PostAt}
		m.track(h)
		handles = append(handles, h)

		m.log.Debugf("Scheduled message [%s] for [%s]\n", h, r.PostAt)
	}

	return handles, nil
}

// ListScheduled returns the handles of all messages currently scheduled in a channel, following
// pagination until exhaustion
func (m *Manager) ListScheduled(ctx context.Context, channel string) (handles []Handle, err error) {
	handles = make([]Handle, 0)
	params := &slack.GetScheduledMessagesParameters{Channel: channel}

	for {
		msgs, nextCursor, err := m.chat.GetScheduledMessagesContext(ctx, params)
		if err != nil {
			return nil, errors.Wrapf(err, "error listing scheduled messages for channel [%s]", channel)
		}

		for _, msg := range msgs {
			handles = append(handles, Handle{ID: msg.ID, Channel: channel, PostAt: time.Unix(int64(msg.PostAt), 0)})
		}

		if nextCursor == "" {
			break
		}

		params.Cursor = nextCursor
	}

	return handles, nil
}

// CancelAll attempts to cancel every handle in channel. Cancellation is best-effort: a failure
// (i.e. a message already posted or already cancelled) is logged and recorded in its Outcome
// and processing continues with the remaining handles
func (m *Manager) CancelAll(ctx context.Context, handles []Handle, channel string) (outcomes []Outcome) {
	outcomes = make([]Outcome, 0, len(handles))

	for _, h := range handles {
		_, err := m.chat.DeleteScheduledMessageContext(ctx, &slack.DeleteScheduledMessageParameters{Channel: channel, ScheduledMessageID: h.ID})
		if err != nil {
			err = errors.Wrapf(err, "error cancelling scheduled message [%s] in channel [%s]", h.ID, channel)
			m.log.Printf("%v\n", err)
		} else {
			m.untrack(h.ID)
			m.log.Debugf("Cancelled scheduled message [%s] in channel [%s]\n", h.ID, channel)
		}

		outcomes = append(outcomes, Outcome{Handle: h, Err: err})
	}

	return outcomes
}

// Outstanding returns the handles created by this manager that weren't cancelled by it, ordered by
// post time
func (m *Manager) Outstanding() (handles []Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handles = make([]Handle, 0, len(m.outstanding))
	for _, h := range m.outstanding {
		handles = append(handles, h)
	}

	sort.Slice(handles, func(i, j int) bool {
		if handles[i].PostAt.Equal(handles[j].PostAt) {
			return handles[i].ID < handles[j].ID
		}

		return handles[i].PostAt.Before(handles[j].PostAt)
	})

	return handles
}

func (m *Manager) track(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outstanding[h.ID] = h
}

func (m *Manager) untrack(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.outstanding, id)
}
