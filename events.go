package welcomebot

import (
	"github.com/pkg/errors"
)

// ErrMalformedEvent is the cause of errors returned when an inbound event misses a required field
var ErrMalformedEvent = errors.New("malformed event")

// Message subtypes that never count nor trigger anything
const (
	messageChangedSubType = "message_changed"
	messageDeletedSubType = "message_deleted"
	botMessageSubType     = "bot_message"
)

// MessageEvent holds the fields of an inbound message the bot acts on
type MessageEvent struct {
	Channel   string
	User      string
	Text      string
	Timestamp string
	SubType   string
	BotID     string
}

// ReactionAddedEvent holds the fields of an inbound reaction the bot acts on. Channel and ItemTimestamp
// identify the message that was reacted to
type ReactionAddedEvent struct {
	Channel       string
	User          string
	Reaction      string
	ItemTimestamp string
}

// MessageCountRequest holds the fields of an inbound message-count slash command
type MessageCountRequest struct {
	User    string
	Channel string
}

// isIgnoredSubType returns true for edits, deletions and bot messages
func (e MessageEvent) isIgnoredSubType() bool {
	switch e.SubType {
	case messageChangedSubType, messageDeletedSubType, botMessageSubType:
		return true
	}

	return false
}

// Validate returns an error caused by ErrMalformedEvent if a required field is missing
func (e MessageEvent) Validate() (err error) {
	return requireFields("message", map[string]string{"channel": e.Channel, "user": e.User, "ts": e.Timestamp}, "channel", "user", "ts")
}

// Validate returns an error caused by ErrMalformedEvent if a required field is missing
func (e ReactionAddedEvent) Validate() (err error) {
	return requireFields("reaction_added", map[string]string{"channel": e.Channel, "user": e.User}, "channel", "user")
}

// Validate returns an error caused by ErrMalformedEvent if a required field is missing
func (r MessageCountRequest) Validate() (err error) {
	return requireFields("message-count", map[string]string{"user_id": r.User, "channel_id": r.Channel}, "user_id", "channel_id")
}

// requireFields checks fields in order so that the first missing one is reported
func requireFields(kind string, values map[string]string, order ...string) (err error) {
	for _, name := range order {
		if values[name] == "" {
			return errors.Wrapf(ErrMalformedEvent, "%s event missing [%s]", kind, name)
		}
	}

	return nil
}
