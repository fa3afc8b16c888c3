package welcomebot

import (
	"testing"

	"github.com/alexandre-normand/welcomebot/test/capture"
	"github.com/stretchr/testify/assert"
)

func TestApplyAnswerOpts(t *testing.T) {
	sendOpts := ApplyAnswerOpts(AnswerInExistingThread("1234.5678"), AnswerWithBroadcast(true))

	assert.Equal(t, map[string]string{ThreadTimestampOpt: "1234.5678", BroadcastOpt: "true"}, sendOpts)
}

func TestPlainAnswerOptions(t *testing.T) {
	values := capture.Values(Answer{Text: "Message: 3"}.msgOptions())

	assert.Equal(t, "Message: 3", values.Get("text"))
	assert.Empty(t, values.Get("thread_ts"))
	assert.Empty(t, values.Get("reply_broadcast"))
}

func TestThreadedAnswerOptions(t *testing.T) {
	values := capture.Values(Answer{Text: "careful", Options: []AnswerOption{AnswerInExistingThread("1234.5678")}}.msgOptions())

	assert.Equal(t, "careful", values.Get("text"))
	assert.Equal(t, "1234.5678", values.Get("thread_ts"))
	assert.Empty(t, values.Get("reply_broadcast"))
}

func TestBroadcastThreadedAnswerOptions(t *testing.T) {
	values := capture.Values(Answer{Text: "careful", Options: []AnswerOption{AnswerInExistingThread("1234.5678"), AnswerWithBroadcast(true)}}.msgOptions())

	assert.Equal(t, "1234.5678", values.Get("thread_ts"))
	assert.Equal(t, "true", values.Get("reply_broadcast"))
}

func TestBroadcastIgnoredWithoutThread(t *testing.T) {
	values := capture.Values(Answer{Text: "careful", Options: []AnswerOption{AnswerWithBroadcast(true)}}.msgOptions())

	assert.Empty(t, values.Get("reply_broadcast"))
}
