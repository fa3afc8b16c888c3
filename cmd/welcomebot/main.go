// Command welcomebot runs the welcome bot webhook server. Configuration is read from the environment
// (and an optional .env file), see the config package for the supported keys
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexandre-normand/welcomebot"
	"github.com/alexandre-normand/welcomebot/config"
	"github.com/alexandre-normand/welcomebot/store"
	"github.com/alexandre-normand/welcomebot/store/inmemorydb"
	"github.com/alexandre-normand/welcomebot/webhook"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

const (
	name            = "welcomebot"
	shutdownTimeout = 5 * time.Second
)

func main() {
	v, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err = config.Validate(v); err != nil {
		log.Fatal(err)
	}

	api := slack.New(
		v.GetString(config.TokenKey),
		slack.OptionDebug(v.GetBool(config.DebugKey)),
		slack.OptionLog(log.New(os.Stdout, "slack: ", log.Lshortfile|log.LstdFlags)),
	)

	chat, err := welcomebot.NewChatDriverWithTelemetry(api, name, otel.Meter(name))
	if err != nil {
		log.Fatalf("Error instrumenting slack client: %v", err)
	}

	bot, err := welcomebot.NewBot(name, v, chat).
		WithStorerErr(newStorer(v)).
		Build()
	if err != nil {
		log.Fatalf("Error creating %s: %v", name, err)
	}
	defer bot.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcomes, err := bot.RunStartupSchedule(ctx, time.Now())
	if err != nil {
		bot.Logger().Printf("Error running startup schedule: %v\n", err)
	}

	for _, o := range outcomes {
		bot.Logger().Debugf("Cancellation of [%s] succeeded: [%t]\n", o.Handle, o.Cancelled())
	}

	hooks := webhook.New(v.GetString(config.SigningSecretKey), bot, bot.Logger(),
		webhook.OptionDedupCacheSize(v.GetInt(config.DedupCacheSizeKey)),
		webhook.OptionBaseContext(ctx))

	mux := http.NewServeMux()
	hooks.Register(mux, v.GetString(config.EventsPathKey), v.GetString(config.MessageCountPathKey))

	srv := &http.Server{
		Addr:         v.GetString(config.ListenAddressKey),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		bot.Logger().Printf("Listening on [%s]\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	tSignals := make(chan os.Signal, 1)
	signal.Notify(tSignals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-tSignals

	bot.Logger().Printf("Received termination signal [%s], shutting down\n", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		bot.Logger().Printf("Forced shutdown: %v\n", err)
	}

	// Let events already acknowledged finish before closing the storer
	hooks.Wait()
}

// newStorer returns an in-memory storer, written through to leveldb if a storage path is configured
func newStorer(v *viper.Viper) (storer store.GlobalSiloStringStorer, err error) {
	path := v.GetString(config.StoragePathKey)
	if path == "" {
		return inmemorydb.NewVolatile(), nil
	}

	ldb, err := store.NewLevelDB(name, path)
	if err != nil {
		return nil, err
	}

	return inmemorydb.New(ldb)
}
