package welcomebot

import (
	"strconv"

	"github.com/slack-go/slack"
)

const (
	// ThreadTimestampOpt is the name of the option holding the timestamp of the thread to reply to
	ThreadTimestampOpt = "threadTimestamp"
	// BroadcastOpt is the name of the option indicating a threaded reply also sent to the channel
	BroadcastOpt = "broadcast"
)

// Answer holds the text of a message the bot sends along with the options
// to use when delivering it
type Answer struct {
	Text string

	// Options to apply when sending a message
	Options []AnswerOption
}

// AnswerOption defines a function applied to Answers
type AnswerOption func(sendOpts map[string]string)

// AnswerInExistingThread sets threaded replying to the thread of threadTimestamp
func AnswerInExistingThread(threadTimestamp string) AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[ThreadTimestampOpt] = threadTimestamp
	}
}

// AnswerWithBroadcast sets broadcasting of a threaded reply to the channel. It has no effect on answers
// that aren't threaded
func AnswerWithBroadcast(broadcast bool) AnswerOption {
	return func(sendOpts map[string]string) {
		sendOpts[BroadcastOpt] = strconv.FormatBool(broadcast)
	}
}

// ApplyAnswerOpts applies answering options to build the send configuration
func ApplyAnswerOpts(opts ...AnswerOption) (sendOptions map[string]string) {
	sendOptions = make(map[string]string)
	for _, opt := range opts {
		opt(sendOptions)
	}

	return sendOptions
}

// msgOptions returns the slack message options to send an answer with
func (a Answer) msgOptions() (options []slack.MsgOption) {
	sendOpts := ApplyAnswerOpts(a.Options...)

	options = []slack.MsgOption{slack.MsgOptionText(a.Text, false)}
	if ts, ok := sendOpts[ThreadTimestampOpt]; ok && ts != "" {
		options = append(options, slack.MsgOptionTS(ts))

		if sendOpts[BroadcastOpt] == "true" {
			options = append(options, slack.MsgOptionBroadcast())
		}
	}

	return options
}
