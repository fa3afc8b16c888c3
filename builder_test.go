package welcomebot_test

import (
	"fmt"
	"testing"

	"github.com/alexandre-normand/welcomebot"
	"github.com/alexandre-normand/welcomebot/config"
	"github.com/alexandre-normand/welcomebot/store/inmemorydb"
	"github.com/alexandre-normand/welcomebot/test/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type closerFunc func() error

func (c closerFunc) Close() error {
	return c()
}

func TestBuildWithDefaults(t *testing.T) {
	b, err := welcomebot.NewBot("jane", config.NewViperWithDefaults(), capture.NewChatCaptor(), welcomebot.OptionMeter(noop.NewMeterProvider().Meter("test"))).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestBuildWithStorer(t *testing.T) {
	b, err := welcomebot.NewBot("jane", config.NewViperWithDefaults(), capture.NewChatCaptor(), welcomebot.OptionMeter(noop.NewMeterProvider().Meter("test"))).
		WithStorer(inmemorydb.NewVolatile()).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
}

func TestBuildWithStorerErrors(t *testing.T) {
	b, err := welcomebot.NewBot("jane", config.NewViperWithDefaults(), capture.NewChatCaptor()).
		WithStorerErr(nil, fmt.Errorf("error1")).
		WithStorerErr(nil, fmt.Errorf("error2")).
		WithStorer(inmemorydb.NewVolatile()).
		Build()

	require.Error(t, err)
	assert.EqualError(t, err, "error1")
	assert.Nil(t, b)
}

func TestBuildWithAuthError(t *testing.T) {
	chat := capture.NewChatCaptor()
	chat.AuthErr = fmt.Errorf("not_authed")

	b, err := welcomebot.NewBot("jane", config.NewViperWithDefaults(), chat, welcomebot.OptionMeter(noop.NewMeterProvider().Meter("test"))).
		Build()

	assert.EqualError(t, err, "error resolving bot identity: not_authed")
	assert.Nil(t, b)
}

func TestCloseClosesRegisteredClosers(t *testing.T) {
	closed := 0

	b, err := welcomebot.NewBot("jane", config.NewViperWithDefaults(), capture.NewChatCaptor(), welcomebot.OptionMeter(noop.NewMeterProvider().Meter("test"))).
		WithCloser(closerFunc(func() error { closed++; return nil })).
		WithCloser(closerFunc(func() error { closed++; return fmt.Errorf("already closed") })).
		Build()
	require.NoError(t, err)

	err = b.Close()
	assert.EqualError(t, err, "already closed")
	assert.Equal(t, 2, closed)
}
