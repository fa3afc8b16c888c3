// Package welcome owns the lifecycle of welcome messages: one per channel and user, posted
// once with an unchecked reaction task and updated once to checked when the user reacts
package welcome

import (
	"context"
	"encoding/json"

	"github.com/alexandre-normand/welcomebot/keylock"
	"github.com/alexandre-normand/welcomebot/slog"
	"github.com/alexandre-normand/welcomebot/store"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

// ErrNotFound is returned when completing a welcome that was never started
var ErrNotFound = errors.New("welcome not found")

// Record holds the state of the welcome message sent to one user in one channel
type Record struct {
	Channel   string `json:"channel"`
	User      string `json:"user"`
	Completed bool   `json:"completed"`

	// Timestamp identifies the posted message and is refreshed on every update
	Timestamp string `json:"ts"`

	// MessageChannel is the conversation id reported by slack for the posted message
	MessageChannel string `json:"messageChannel"`
}

// messagePoster is implemented by any value that has the PostMessageContext method.
//
// slack.Client implements this interface
type messagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (respChannel string, respTimestamp string, err error)
}

// messageUpdater is implemented by any value that has the UpdateMessageContext method.
//
// slack.Client implements this interface
type messageUpdater interface {
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (respChannel string, respTimestamp string, respText string, err error)
}

// ChatDriver is implemented by any value that can post and update messages
type ChatDriver interface {
	messagePoster
	messageUpdater
}

// Registry holds welcome records, keyed by channel and user
type Registry struct {
	storer     store.SiloStringStorer
	chat       ChatDriver
	locks      *keylock.Stripes
	appearance Appearance
	log        slog.SLogger
}

// Option defines an option for a Registry
type Option func(r *Registry)

// OptionAppearance sets the greeting, username and icon of welcome messages
func OptionAppearance(a Appearance) Option {
	return func(r *Registry) {
		r.appearance = a
	}
}

// NewRegistry returns a new Registry keeping its records in storer. Records are stored in
// the silo of their channel, keyed by user
func NewRegistry(storer store.SiloStringStorer, chat ChatDriver, locks *keylock.Stripes, log slog.SLogger, options ...Option) (r *Registry) {
	r = &Registry{storer: storer, chat: chat, locks: locks, appearance: DefaultAppearance(), log: log}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Start posts a welcome message to user in channel unless one was already started, in which case
// the existing record is returned untouched and nothing is sent. The record is only stored once the
// message was successfully posted so that a failed post can be retried
func (r *Registry) Start(ctx context.Context, channel string, user string) (rec *Record, err error) {
	unlock := r.locks.Lock(channel, user)
	defer unlock()

	rec, err = r.load(channel, user)
	if err == nil {
		r.log.Debugf("Welcome already started for user [%s] in channel [%s], ignoring\n", user, channel)
		return rec, nil
	} else if errors.Cause(err) != ErrNotFound {
		return nil, err
	}

	rec = &Record{Channel: channel, User: user}
	respChannel, ts, err := r.chat.PostMessageContext(ctx, channel, messageOptions(*rec, r.appearance)...)
	if err != nil {
		return nil, errors.Wrapf(err, "error posting welcome message to user [%s] in channel [%s]", user, channel)
	}

	rec.Timestamp = ts
	rec.MessageChannel = respChannel
	if rec.MessageChannel == "" {
		rec.MessageChannel = channel
	}

	if err = r.save(*rec); err != nil {
		return nil, err
	}

	r.log.Debugf("Started welcome for user [%s] in channel [%s] with message [%s]\n", user, channel, ts)

	return rec, nil
}

// Complete marks the welcome of user in channel as completed and updates its message to show a checked task.
// ErrNotFound is returned if no welcome was started for that channel and user. Completing an already completed
// welcome is a no-op
func (r *Registry) Complete(ctx context.Context, channel string, user string) (rec *Record, err error) {
	unlock := r.locks.Lock(channel, user)
	defer unlock()

	rec, err = r.load(channel, user)
	if err != nil {
		return nil, err
	}

	if rec.Completed {
		r.log.Debugf("Welcome for user [%s] in channel [%s] already completed\n", user, channel)
		return rec, nil
	}

	completed := *rec
	completed.Completed = true

	respChannel, ts, _, err := r.chat.UpdateMessageContext(ctx, completed.MessageChannel, completed.Timestamp, messageOptions(completed, r.appearance)...)
	if err != nil {
		return rec, errors.Wrapf(err, "error updating welcome message [%s] of user [%s] in channel [%s]", completed.Timestamp, user, channel)
	}

	completed.Timestamp = ts
	if respChannel != "" {
		completed.MessageChannel = respChannel
	}

	if err = r.save(completed); err != nil {
		return rec, err
	}

	r.log.Debugf("Completed welcome for user [%s] in channel [%s]\n", user, channel)

	return &completed, nil
}

// Get returns the record for a channel and user or ErrNotFound
func (r *Registry) Get(channel string, user string) (rec *Record, err error) {
	return r.load(channel, user)
}

func (r *Registry) load(channel string, user string) (rec *Record, err error) {
	raw, err := r.storer.GetSiloString(channel, user)
	if store.IsNotFound(err) {
		return nil, errors.Wrapf(ErrNotFound, "user [%s] in channel [%s]", user, channel)
	} else if err != nil {
		return nil, errors.Wrapf(err, "error loading welcome of user [%s] in channel [%s]", user, channel)
	}

	rec = new(Record)
	if err = json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, errors.Wrapf(err, "error decoding welcome of user [%s] in channel [%s]", user, channel)
	}

	return rec, nil
}

func (r *Registry) save(rec Record) (err error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err = r.storer.PutSiloString(rec.Channel, rec.User, string(raw)); err != nil {
		return errors.Wrapf(err, "error persisting welcome of user [%s] in channel [%s]", rec.User, rec.Channel)
	}

	return nil
}
