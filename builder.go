package welcomebot

import (
	"io"

	"github.com/alexandre-normand/welcomebot/store"
	"github.com/spf13/viper"
)

// Builder holds the elements of a Bot to build
type Builder struct {
	name    string
	config  *viper.Viper
	chat    ChatDriver
	options []Option
	closers []io.Closer
	err     error
}

// NewBot returns a new Builder used to set up a new Bot
func NewBot(name string, v *viper.Viper, chat ChatDriver, options ...Option) (bb *Builder) {
	bb = &Builder{name: name, config: v, chat: chat}
	bb.options = append(bb.options, options...)

	return bb
}

// WithStorer sets the storer of the Bot
func (bb *Builder) WithStorer(storer store.GlobalSiloStringStorer) *Builder {
	return bb.WithStorerErr(storer, nil)
}

// WithStorerErr sets a storer that has a creation function returning (storer, error). The first
// error encountered is returned by Build
func (bb *Builder) WithStorerErr(storer store.GlobalSiloStringStorer, err error) *Builder {
	if bb.err == nil && err != nil {
		bb.err = err
	}

	if bb.err != nil {
		return bb
	}

	bb.options = append(bb.options, OptionStorer(storer))

	return bb
}

// WithCloser registers a closer that's closed along with the Bot
func (bb *Builder) WithCloser(closer io.Closer) *Builder {
	if closer != nil {
		bb.closers = append(bb.closers, closer)
	}

	return bb
}

// Build returns the built Bot. If there was an error during
// setup, the error is returned along with a nil Bot
func (bb *Builder) Build() (b *Bot, err error) {
	if bb.err != nil {
		return nil, bb.err
	}

	b, err = New(bb.name, bb.config, bb.chat, bb.options...)
	if err != nil {
		return nil, err
	}

	b.closers = append(b.closers, bb.closers...)

	return b, nil
}
