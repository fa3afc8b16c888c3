// Package webhook receives slack events api callbacks and slash commands over http. Requests are verified with the
// app's signing secret, decoded into welcomebot events and acknowledged right away while the events are handled
// off the request goroutine
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/alexandre-normand/welcomebot"
	"github.com/alexandre-normand/welcomebot/slog"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

const (
	retryNumHeader    = "X-Slack-Retry-Num"
	retryReasonHeader = "X-Slack-Retry-Reason"

	dedupDisabledValue = 0
)

// EventHandler is implemented by any value handling welcomebot events. *welcomebot.Bot implements it
type EventHandler interface {
	HandleMessage(ctx context.Context, e welcomebot.MessageEvent) (err error)
	HandleReactionAdded(ctx context.Context, e welcomebot.ReactionAddedEvent) (err error)
	HandleMessageCount(ctx context.Context, r welcomebot.MessageCountRequest) (err error)
}

// Handler holds the http endpoints of the bot
type Handler struct {
	signingSecret string
	events        EventHandler
	seen          *lru.Cache
	log           slog.SLogger

	baseCtx     context.Context
	synchronous bool
	inFlight    sync.WaitGroup
}

// Option defines an option for a Handler
type Option func(h *Handler)

// OptionDedupCacheSize sets the number of event ids remembered to drop duplicate deliveries. 0 disables deduplication
func OptionDedupCacheSize(size int) Option {
	return func(h *Handler) {
		if size <= dedupDisabledValue {
			h.seen = nil
			return
		}

		// lru.New only fails on non-positive sizes
		h.seen, _ = lru.New(size)
	}
}

// OptionSynchronous makes the Handler handle events before acknowledging them
func OptionSynchronous() Option {
	return func(h *Handler) {
		h.synchronous = true
	}
}

// OptionBaseContext sets the parent context of event handling. Defaults to context.Background()
func OptionBaseContext(ctx context.Context) Option {
	return func(h *Handler) {
		h.baseCtx = ctx
	}
}

// New returns a new Handler verifying requests with signingSecret and handing events over to events
func New(signingSecret string, events EventHandler, log slog.SLogger, options ...Option) (h *Handler) {
	h = &Handler{signingSecret: signingSecret, events: events, log: log, baseCtx: context.Background()}
	OptionDedupCacheSize(5000)(h)

	for _, opt := range options {
		opt(h)
	}

	return h
}

// Register registers the events and message count endpoints on mux
func (h *Handler) Register(mux *http.ServeMux, eventsPath string, messageCountPath string) {
	mux.HandleFunc(eventsPath, h.ServeEvents)
	mux.HandleFunc(messageCountPath, h.ServeMessageCount)
}

// Wait blocks until the handling of every accepted event is done
func (h *Handler) Wait() {
	h.inFlight.Wait()
}

// ServeEvents serves the events api endpoint. Anything but a signature failure is answered with a 200
// so that slack doesn't retry deliveries we can't do anything about
func (h *Handler) ServeEvents(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}

	evt, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.log.Printf("Dropping undecodable event payload: %v\n", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	switch evt.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			h.log.Printf("Dropping undecodable url verification payload: %v\n", err)
			w.WriteHeader(http.StatusOK)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge.Challenge))
		return

	case slackevents.CallbackEvent:
		h.acceptCallback(r, evt)

	default:
		h.log.Debugf("Ignoring event of type [%s]\n", evt.Type)
	}

	w.WriteHeader(http.StatusOK)
}

// acceptCallback drops duplicate deliveries and dispatches the inner event of a callback
func (h *Handler) acceptCallback(r *http.Request, evt slackevents.EventsAPIEvent) {
	deliveryID := ""
	if cb, ok := evt.Data.(*slackevents.EventsAPICallbackEvent); ok {
		deliveryID = cb.EventID
	}

	if deliveryID == "" {
		deliveryID = uuid.NewString()
	} else if h.isDuplicate(deliveryID) {
		h.log.Printf("Dropping duplicate delivery of event [%s] (retry [%s] because of [%s])\n", deliveryID, r.Header.Get(retryNumHeader), r.Header.Get(retryReasonHeader))
		return
	}

	switch e := evt.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		msg := welcomebot.MessageEvent{Channel: e.Channel, User: e.User, Text: e.Text, Timestamp: e.TimeStamp, SubType: e.SubType, BotID: e.BotID}
		h.dispatch(deliveryID, "message", func(ctx context.Context) error {
			return h.events.HandleMessage(ctx, msg)
		})

	case *slackevents.ReactionAddedEvent:
		reaction := welcomebot.ReactionAddedEvent{Channel: e.Item.Channel, User: e.User, Reaction: e.Reaction, ItemTimestamp: e.Item.Timestamp}
		h.dispatch(deliveryID, "reaction_added", func(ctx context.Context) error {
			return h.events.HandleReactionAdded(ctx, reaction)
		})

	default:
		h.log.Debugf("Ignoring inner event of type [%s] in delivery [%s]\n", evt.InnerEvent.Type, deliveryID)
	}
}

// ServeMessageCount serves the message count slash command endpoint. The command is acknowledged with an empty
// body, the count being posted to the channel separately
func (h *Handler) ServeMessageCount(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readVerified(w, r)
	if !ok {
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		h.log.Printf("Dropping undecodable slash command: %v\n", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	req := welcomebot.MessageCountRequest{User: cmd.UserID, Channel: cmd.ChannelID}
	h.dispatch(uuid.NewString(), "message-count", func(ctx context.Context) error {
		return h.events.HandleMessageCount(ctx, req)
	})

	w.WriteHeader(http.StatusOK)
}

// readVerified reads the request body and verifies its signature. On failure, the request is answered and
// false is returned
func (h *Handler) readVerified(w http.ResponseWriter, r *http.Request) (body []byte, ok bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Printf("Error reading request body: %v\n", err)
		w.WriteHeader(http.StatusOK)
		return nil, false
	}

	sv, err := slack.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		h.log.Debugf("Rejecting request to [%s]: %v\n", r.URL.Path, err)
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	if _, err = sv.Write(body); err != nil {
		h.log.Printf("Error computing signature of request to [%s]: %v\n", r.URL.Path, err)
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	if err = sv.Ensure(); err != nil {
		h.log.Debugf("Rejecting request to [%s] with invalid signature: %v\n", r.URL.Path, err)
		w.WriteHeader(http.StatusUnauthorized)
		return nil, false
	}

	return body, true
}

// isDuplicate records an event id and returns true if it was already seen
func (h *Handler) isDuplicate(eventID string) bool {
	if h.seen == nil {
		return false
	}

	seen, _ := h.seen.ContainsOrAdd(eventID, struct{}{})
	return seen
}

// dispatch handles an event, off the request goroutine unless the handler is synchronous. Errors are
// logged since the event was already acknowledged
func (h *Handler) dispatch(deliveryID string, kind string, handle func(ctx context.Context) error) {
	run := func() {
		if err := handle(h.baseCtx); err != nil {
			h.log.Printf("Error handling %s event [%s]: %v\n", kind, deliveryID, err)
			return
		}

		h.log.Debugf("Handled %s event [%s]\n", kind, deliveryID)
	}

	if h.synchronous {
		run()
		return
	}

	h.inFlight.Add(1)
	go func() {
		defer h.inFlight.Done()
		run()
	}()
}
