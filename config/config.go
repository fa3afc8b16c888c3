// Package config holds the welcomebot configuration keys and their defaults along with helpers
// to load the configuration from the environment (and an optional .env or config file)
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	TokenKey              = "token"              // Slack bot token, string value. Required
	SigningSecretKey      = "signingSecret"      // Slack app signing secret used to verify webhooks, string value. Required
	DebugKey              = "debug"              // Debug mode, boolean value. Optional and defaults to false
	ListenAddressKey      = "listenAddress"      // Address the webhook server listens on, string value. Defaults to :3000
	EventsPathKey         = "eventsPath"         // Path of the events API endpoint, string value. Defaults to /slack/events
	MessageCountPathKey   = "messageCountPath"   // Path of the message-count slash command endpoint, string value. Defaults to /message-count
	APITimeoutKey         = "apiTimeout"         // Timeout of each handled event including its outbound slack calls, duration value. Defaults to 10s
	DenylistKey           = "denylist"           // Words flagged by the content filter, comma-separated string or list. Defaults to hmm,no,val
	WarningTextKey        = "warningText"        // Text of the threaded reply to a flagged message, string value
	WarningBroadcastKey   = "warningBroadcast"   // Whether warnings are also sent to the channel, boolean value. Defaults to false
	WelcomeGreetingKey    = "welcome.greeting"   // Greeting section of welcome messages, string value
	WelcomeUsernameKey    = "welcome.username"   // Username welcome messages are posted as, string value
	WelcomeIconEmojiKey   = "welcome.iconEmoji"  // Icon emoji of welcome messages, string value
	DedupCacheSizeKey     = "dedupCacheSize"     // Number of event ids remembered to drop duplicate deliveries, int value. Defaults to 5000
	DMChannelCacheSizeKey = "dmChannelCacheSize" // Number of user direct message channels cached, int value. Defaults to 1000. 0 disables caching
	LockStripeCountKey    = "lockStripes"        // Number of lock stripes serializing updates of the same key, int value (power of two). Defaults to 16
	StoragePathKey        = "storagePath"        // Path of the leveldb storage, string value. Empty (the default) keeps everything in memory
	ScheduleOnStartupKey  = "schedule.onStartup" // Startup policy for scheduled messages (none, schedule or scheduleThenCancel). Defaults to none
	ScheduledMessagesKey  = "scheduledMessages"  // List of {text, channel, postIn} scheduled messages used by the startup policy
	ConfigFileEnv         = "WELCOMEBOT_CONFIG"  // Environment variable holding an optional configuration file path
)

const (
	defaultListenAddress      = ":3000"
	defaultEventsPath         = "/slack/events"
	defaultMessageCountPath   = "/message-count"
	defaultAPITimeout         = 10 * time.Second
	defaultDenylist           = "hmm,no,val"
	defaultWarningText        = "THAT IS A BAD WORD!"
	defaultWelcomeGreeting    = "Welcome to this awesome channel! \n\n*Get started by completing the tasks!*"
	defaultWelcomeUsername    = "Welcome Robot!"
	defaultWelcomeIconEmoji   = ":robot_face:"
	defaultDedupCacheSize     = 5000
	defaultDMChannelCacheSize = 1000
	defaultLockStripeCount    = 16
	defaultScheduleOnStartup  = "none"
)

// ScheduledMessage holds a configured message to schedule, relative to startup
type ScheduledMessage struct {
	Text    string
	Channel string
	PostIn  time.Duration
}

// NewViperWithDefaults creates a new viper instance with defaults for optional configuration values
func NewViperWithDefaults() (v *viper.Viper) {
	v = viper.New()

	return LayerConfigWithDefaults(v)
}

// LayerConfigWithDefaults sets the defaults of optional configuration values on an existing viper instance
func LayerConfigWithDefaults(v *viper.Viper) *viper.Viper {
	v.SetDefault(DebugKey, false)
	v.SetDefault(ListenAddressKey, defaultListenAddress)
	v.SetDefault(EventsPathKey, defaultEventsPath)
	v.SetDefault(MessageCountPathKey, defaultMessageCountPath)
	v.SetDefault(APITimeoutKey, defaultAPITimeout)
	v.SetDefault(DenylistKey, defaultDenylist)
	v.SetDefault(WarningTextKey, defaultWarningText)
	v.SetDefault(WarningBroadcastKey, false)
	v.SetDefault(WelcomeGreetingKey, defaultWelcomeGreeting)
	v.SetDefault(WelcomeUsernameKey, defaultWelcomeUsername)
	v.SetDefault(WelcomeIconEmojiKey, defaultWelcomeIconEmoji)
	v.SetDefault(DedupCacheSizeKey, defaultDedupCacheSize)
	v.SetDefault(DMChannelCacheSizeKey, defaultDMChannelCacheSize)
	v.SetDefault(LockStripeCountKey, defaultLockStripeCount)
	v.SetDefault(StoragePathKey, "")
	v.SetDefault(ScheduleOnStartupKey, defaultScheduleOnStartup)

	return v
}

// Load loads the configuration from the environment. Variables from envFiles (or .env by default) are
// loaded into the environment first, when present. The token and signing secret are read from SLACK_TOKEN and
// SLACK_SIGNING_SECRET and every other key from WELCOMEBOT_<KEY> (i.e. WELCOMEBOT_APITIMEOUT). If WELCOMEBOT_CONFIG
// is set, the file it points to is read as well
func Load(envFiles ...string) (v *viper.Viper, err error) {
	if err = godotenv.Load(envFiles...); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "error loading env file")
	}

	v = NewViperWithDefaults()
	v.SetEnvPrefix("WELCOMEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.BindEnv(TokenKey, "SLACK_TOKEN"); err != nil {
		return nil, err
	}

	if err = v.BindEnv(SigningSecretKey, "SLACK_SIGNING_SECRET"); err != nil {
		return nil, err
	}

	if path := os.Getenv(ConfigFileEnv); path != "" {
		v.SetConfigFile(path)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "error reading configuration file [%s]", path)
		}
	}

	return v, nil
}

// Validate returns an error if a required configuration value is missing
func Validate(v *viper.Viper) (err error) {
	for _, k := range []string{TokenKey, SigningSecretKey} {
		if v.GetString(k) == "" {
			return errors.Errorf("Missing required configuration value [%s]", k)
		}
	}

	return nil
}

// GetDenylist returns the configured denylist words. The value can either be a list or a comma-separated string
func GetDenylist(v *viper.Viper) (words []string, err error) {
	raw := v.Get(DenylistKey)
	if s, ok := raw.(string); ok {
		raw = strings.Split(s, ",")
	}

	values, err := cast.ToStringSliceE(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", DenylistKey)
	}

	words = make([]string, 0, len(values))
	for _, w := range values {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}

	return words, nil
}

// GetScheduledMessages returns the configured scheduled messages
func GetScheduledMessages(v *viper.Viper) (messages []ScheduledMessage, err error) {
	messages = make([]ScheduledMessage, 0)

	raw := v.Get(ScheduledMessagesKey)
	if raw == nil {
		return messages, nil
	}

	items, err := cast.ToSliceE(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value for [%s]", ScheduledMessagesKey)
	}

	for i, item := range items {
		fields, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid scheduled message at index [%d]", i)
		}

		// viper lower-cases the keys of nested maps read from files
		normalized := make(map[string]interface{})
		for k, val := range fields {
			normalized[strings.ToLower(k)] = val
		}

		m := ScheduledMessage{}
		if m.Text, err = cast.ToStringE(normalized["text"]); err != nil || m.Text == "" {
			return nil, errors.Errorf("Missing or invalid text for scheduled message at index [%d]", i)
		}

		if m.Channel, err = cast.ToStringE(normalized["channel"]); err != nil || m.Channel == "" {
			return nil, errors.Errorf("Missing or invalid channel for scheduled message at index [%d]", i)
		}

		if m.PostIn, err = cast.ToDurationE(normalized["postin"]); err != nil {
			return nil, errors.Wrapf(err, "invalid postIn for scheduled message at index [%d]", i)
		}

		messages = append(messages, m)
	}

	return messages, nil
}
