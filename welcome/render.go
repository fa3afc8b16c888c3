package welcome

import (
	"fmt"

	"github.com/slack-go/slack"
)

const (
	// CheckedMarker is the task marker of a completed welcome
	CheckedMarker = ":white_check_mark:"
	// UncheckedMarker is the task marker of a welcome still waiting for a reaction
	UncheckedMarker = ":white_large_square:"

	// DefaultGreeting is the greeting section text used when none is configured
	DefaultGreeting = "Welcome to this awesome channel! \n\n*Get started by completing the tasks!*"
	// DefaultUsername is the username welcome messages are posted as when none is configured
	DefaultUsername = "Welcome Robot!"
	// DefaultIconEmoji is the icon welcome messages are posted with when none is configured
	DefaultIconEmoji = ":robot_face:"
)

// Appearance holds the static parts of a welcome message
type Appearance struct {
	Greeting  string
	Username  string
	IconEmoji string
}

// DefaultAppearance returns the appearance used when nothing is configured
func DefaultAppearance() Appearance {
	return Appearance{Greeting: DefaultGreeting, Username: DefaultUsername, IconEmoji: DefaultIconEmoji}
}

// Render returns the blocks of the welcome message for the current state of a record
func Render(rec Record, a Appearance) []slack.Block {
	return []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, a.Greeting, false, false), nil, nil),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, TaskText(rec), false, false), nil, nil),
	}
}

// TaskText returns the reaction task text with the marker matching the completion of the record
func TaskText(rec Record) string {
	marker := UncheckedMarker
	if rec.Completed {
		marker = CheckedMarker
	}

	return fmt.Sprintf("%s *React to this message!*", marker)
}

// messageOptions returns the options to post or update a welcome message
func messageOptions(rec Record, a Appearance) []slack.MsgOption {
	return []slack.MsgOption{
		slack.MsgOptionText(TaskText(rec), false),
		slack.MsgOptionBlocks(Render(rec, a)...),
		slack.MsgOptionUsername(a.Username),
		slack.MsgOptionIconEmoji(a.IconEmoji),
	}
}
