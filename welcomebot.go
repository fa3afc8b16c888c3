package welcomebot

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/alexandre-normand/welcomebot/config"
	"github.com/alexandre-normand/welcomebot/counter"
	"github.com/alexandre-normand/welcomebot/filter"
	"github.com/alexandre-normand/welcomebot/keylock"
	"github.com/alexandre-normand/welcomebot/schedule"
	"github.com/alexandre-normand/welcomebot/slog"
	"github.com/alexandre-normand/welcomebot/store"
	"github.com/alexandre-normand/welcomebot/store/inmemorydb"
	"github.com/alexandre-normand/welcomebot/welcome"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultLogPrefix = "welcomebot: "

	startTrigger       = "start"
	messageCountFormat = "Message: %d"
)

// Bot routes inbound events to the content filter, the welcome registry and the message counter
// and issues the resulting outbound calls
type Bot struct {
	name   string
	config *viper.Viper
	chat   ChatDriver

	filter     *filter.Filter
	welcomes   *welcome.Registry
	counter    *counter.Counter
	schedules  *schedule.Manager
	dmChannels DMChannelFinder

	warningText      string
	warningBroadcast bool
	apiTimeout       time.Duration

	selfUserID string
	selfBotID  string

	storer  store.GlobalSiloStringStorer
	closers []io.Closer

	logger *log.Logger
	log    slog.SLogger
	meter  metric.Meter
	ins    *instrumenter
}

// Option defines an option for a Bot
type Option func(b *Bot)

// OptionLog sets a logger for the Bot
func OptionLog(logger *log.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// OptionLogfile sets a logfile for the Bot, with the default prefix and flags
func OptionLogfile(logfile *os.File) Option {
	return func(b *Bot) {
		b.logger = log.New(logfile, defaultLogPrefix, log.Lshortfile|log.LstdFlags)
	}
}

// OptionMeter sets the meter of the Bot instruments. The global meter provider is used by default
func OptionMeter(meter metric.Meter) Option {
	return func(b *Bot) {
		b.meter = meter
	}
}

// OptionStorer sets the storer holding message counts and welcome records. Everything is kept
// in memory by default
func OptionStorer(storer store.GlobalSiloStringStorer) Option {
	return func(b *Bot) {
		b.storer = storer
	}
}

// OptionDMChannelFinder sets the finder used to resolve the direct message channel of users being welcomed.
// By default, conversations are opened with the chat driver and cached
func OptionDMChannelFinder(df DMChannelFinder) Option {
	return func(b *Bot) {
		b.dmChannels = df
	}
}

// New creates a new Bot with its configuration and chat driver. The bot's own identity is resolved
// with the chat driver before returning
func New(name string, v *viper.Viper, chat ChatDriver, options ...Option) (b *Bot, err error) {
	b = &Bot{name: name, config: v, chat: chat,
		logger: log.New(os.Stdout, defaultLogPrefix, log.Lshortfile|log.LstdFlags)}

	for _, opt := range options {
		opt(b)
	}

	if b.meter == nil {
		b.meter = otel.Meter(name)
	}

	b.log = slog.New(b.logger, v.GetBool(config.DebugKey))

	words, err := config.GetDenylist(v)
	if err != nil {
		return nil, err
	}
	b.filter = filter.New(words)

	b.warningText = v.GetString(config.WarningTextKey)
	b.warningBroadcast = v.GetBool(config.WarningBroadcastKey)
	b.apiTimeout = v.GetDuration(config.APITimeoutKey)

	locks, err := keylock.New(v.GetInt(config.LockStripeCountKey))
	if err != nil {
		return nil, err
	}

	if b.storer == nil {
		b.storer = inmemorydb.NewVolatile()
	}

	b.counter = counter.New(b.storer, locks, b.log)
	b.welcomes = welcome.NewRegistry(b.storer, chat, locks, b.log, welcome.OptionAppearance(welcome.Appearance{
		Greeting:  v.GetString(config.WelcomeGreetingKey),
		Username:  v.GetString(config.WelcomeUsernameKey),
		IconEmoji: v.GetString(config.WelcomeIconEmojiKey),
	}))
	b.schedules = schedule.NewManager(chat, b.log)

	if b.dmChannels == nil {
		b.dmChannels, err = NewCachingDMChannelFinder(v.GetInt(config.DMChannelCacheSizeKey), NewOpeningDMChannelFinder(chat), b.log)
		if err != nil {
			return nil, err
		}
	}

	if b.ins, err = newInstrumenter(name, b.meter); err != nil {
		return nil, err
	}

	if err = b.cacheSelfIdentity(); err != nil {
		return nil, err
	}

	return b, nil
}

// cacheSelfIdentity resolves and keeps the bot's user and bot ids to recognize its own messages
func (b *Bot) cacheSelfIdentity() (err error) {
	ctx, cancel := b.withTimeout(context.Background())
	defer cancel()

	resp, err := b.chat.AuthTestContext(ctx)
	if err != nil {
		return errors.Wrap(err, "error resolving bot identity")
	}

	b.selfUserID = resp.UserID
	b.selfBotID = resp.BotID
	b.log.Printf("Bot [%s] running as user [%s] and bot [%s]\n", b.name, b.selfUserID, b.selfBotID)

	return nil
}

// HandleMessage counts a message and, depending on its text, starts a welcome for its author or
// replies with a warning in a thread. Edits, deletions, bot messages and the bot's own messages are ignored
func (b *Bot) HandleMessage(ctx context.Context, e MessageEvent) (err error) {
	return b.ins.observe(ctx, messageEventType, func() error {
		return b.handleMessage(ctx, e)
	})
}

func (b *Bot) handleMessage(ctx context.Context, e MessageEvent) (err error) {
	if e.isIgnoredSubType() {
		b.log.Debugf("Ignoring message [%s] with subtype [%s]\n", e.Timestamp, e.SubType)
		return nil
	}

	if b.isSelf(e.User, e.BotID) {
		b.log.Debugf("Ignoring own message [%s] in channel [%s]\n", e.Timestamp, e.Channel)
		return nil
	}

	if err = e.Validate(); err != nil {
		return err
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	if _, err = b.counter.Increment(e.User); err != nil {
		return err
	}

	if strings.ToLower(strings.TrimSpace(e.Text)) == startTrigger {
		return b.startWelcome(ctx, e.User)
	}

	if b.filter.IsViolating(e.Text) {
		return b.warn(ctx, e)
	}

	return nil
}

// startWelcome starts the welcome of a user in their direct message channel with the bot
func (b *Bot) startWelcome(ctx context.Context, user string) (err error) {
	channel, err := b.dmChannels.FindDMChannel(ctx, user)
	if err != nil {
		return err
	}

	_, err = b.welcomes.Start(ctx, channel, user)
	return err
}

// warn replies to a flagged message in a thread anchored on it
func (b *Bot) warn(ctx context.Context, e MessageEvent) (err error) {
	b.log.Debugf("Message [%s] from user [%s] in channel [%s] flagged by content filter\n", e.Timestamp, e.User, e.Channel)

	warning := Answer{Text: b.warningText, Options: []AnswerOption{AnswerInExistingThread(e.Timestamp), AnswerWithBroadcast(b.warningBroadcast)}}
	if err = b.send(ctx, e.Channel, warning); err != nil {
		return errors.Wrapf(err, "error posting warning in reply to message [%s] in channel [%s]", e.Timestamp, e.Channel)
	}

	return nil
}

// send posts an answer to channel
func (b *Bot) send(ctx context.Context, channel string, a Answer) (err error) {
	_, _, err = b.chat.PostMessageContext(ctx, channel, a.msgOptions()...)
	return err
}

// HandleReactionAdded completes the welcome of the reacting user in the reacted message's channel. Reactions
// on anything but a pending welcome are ignored
func (b *Bot) HandleReactionAdded(ctx context.Context, e ReactionAddedEvent) (err error) {
	return b.ins.observe(ctx, reactionAddedType, func() error {
		return b.handleReactionAdded(ctx, e)
	})
}

func (b *Bot) handleReactionAdded(ctx context.Context, e ReactionAddedEvent) (err error) {
	if err = e.Validate(); err != nil {
		return err
	}

	if b.isSelf(e.User, "") {
		b.log.Debugf("Ignoring own reaction [%s] in channel [%s]\n", e.Reaction, e.Channel)
		return nil
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	_, err = b.welcomes.Complete(ctx, e.Channel, e.User)
	if errors.Cause(err) == welcome.ErrNotFound {
		b.log.Debugf("No welcome for user [%s] in channel [%s], ignoring reaction [%s]\n", e.User, e.Channel, e.Reaction)
		return nil
	}

	return err
}

// HandleMessageCount posts the message count of the requesting user to the channel the command was issued in
func (b *Bot) HandleMessageCount(ctx context.Context, r MessageCountRequest) (err error) {
	return b.ins.observe(ctx, messageCountEventType, func() error {
		return b.handleMessageCount(ctx, r)
	})
}

func (b *Bot) handleMessageCount(ctx context.Context, r MessageCountRequest) (err error) {
	if err = r.Validate(); err != nil {
		return err
	}

	count, err := b.counter.Get(r.User)
	if err != nil {
		return err
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	if err = b.send(ctx, r.Channel, Answer{Text: fmt.Sprintf(messageCountFormat, count)}); err != nil {
		return errors.Wrapf(err, "error posting message count of user [%s] in channel [%s]", r.User, r.Channel)
	}

	return nil
}

// RunStartupSchedule applies the configured startup schedule policy to the configured scheduled messages. Their post
// times are relative to now
func (b *Bot) RunStartupSchedule(ctx context.Context, now time.Time) (outcomes []schedule.Outcome, err error) {
	p, err := schedule.ParsePolicy(b.config.GetString(config.ScheduleOnStartupKey))
	if err != nil {
		return nil, err
	}

	messages, err := config.GetScheduledMessages(b.config)
	if err != nil {
		return nil, err
	}

	requests := make([]schedule.Request, 0, len(messages))
	for _, m := range messages {
		requests = append(requests, schedule.Request{Text: m.Text, Channel: m.Channel, PostAt: now.Add(m.PostIn)})
	}

	return b.schedules.RunStartupPolicy(ctx, p, requests)
}

// Schedules returns the scheduled message manager of the bot
func (b *Bot) Schedules() *schedule.Manager {
	return b.schedules
}

// Logger returns the bot's logger, for the inbound layers to log with
func (b *Bot) Logger() slog.SLogger {
	return b.log
}

// Close closes the bot's storer and any other closer registered with its builder
func (b *Bot) Close() (err error) {
	for _, c := range b.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	if cerr := b.storer.Close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

// isSelf returns true if user or botID identify the bot itself
func (b *Bot) isSelf(user string, botID string) bool {
	return (user != "" && user == b.selfUserID) || (botID != "" && botID == b.selfBotID)
}

func (b *Bot) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.apiTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, b.apiTimeout)
}
