/*
Package welcomebot provides a slack bot that welcomes users, keeps count of their messages and
warns about denylisted words.

The Bot routes three kinds of inbound events:
 - Messages: every message from a user is counted. A message of exactly "start" sends the user a
   welcome message in a direct message conversation with a task to react to it. A message with a
   denylisted word gets a warning reply in a thread.
 - Reactions: a reaction on a pending welcome message completes it and updates the message to show
   the task as checked.
 - Message count commands: the requesting user's message count is posted to the channel.

Events are received by the webhook package which verifies, decodes and deduplicates them before
handing them to the Bot. Configured messages can also be scheduled at startup, see the schedule package.

Example code (see cmd/welcomebot for the complete version):

	package main

	import (
		"github.com/alexandre-normand/welcomebot"
		"github.com/alexandre-normand/welcomebot/config"
		"github.com/alexandre-normand/welcomebot/webhook"
		"github.com/slack-go/slack"
		"log"
		"net/http"
	)

	func main() {
		v, err := config.Load()
		if err != nil {
			log.Fatal(err)
		}

		bot, err := welcomebot.NewBot("welcomebot", v, slack.New(v.GetString(config.TokenKey))).Build()
		if err != nil {
			log.Fatal(err)
		}
		defer bot.Close()

		mux := http.NewServeMux()
		webhook.New(v.GetString(config.SigningSecretKey), bot, bot.Logger()).
			Register(mux, v.GetString(config.EventsPathKey), v.GetString(config.MessageCountPathKey))

		log.Fatal(http.ListenAndServe(v.GetString(config.ListenAddressKey), mux))
	}
*/
package welcomebot
