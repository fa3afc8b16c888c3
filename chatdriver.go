package welcomebot

import (
	"context"

	"github.com/alexandre-normand/welcomebot/schedule"
	"github.com/alexandre-normand/welcomebot/welcome"
	"github.com/slack-go/slack"
)

// conversationOpener is implemented by any value that has the OpenConversationContext method.
//
// slack.Client implements this interface
type conversationOpener interface {
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (channel *slack.Channel, noOp bool, alreadyOpen bool, err error)
}

// selfIdentifier is implemented by any value that has the AuthTestContext method.
//
// slack.Client implements this interface
type selfIdentifier interface {
	AuthTestContext(ctx context.Context) (response *slack.AuthTestResponse, err error)
}

// ChatDriver encompasses every outbound slack operation the bot uses and is implemented by any value that
// has all methods of its interfaces. *slack.Client implements it
type ChatDriver interface {
	welcome.ChatDriver
	schedule.ChatDriver
	conversationOpener
	selfIdentifier
}

var _ ChatDriver = (*slack.Client)(nil)
