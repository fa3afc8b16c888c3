package welcomebot

import (
	"context"

	"github.com/alexandre-normand/welcomebot/slog"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

const (
	dmChannelCacheSizeDisabledValue = 0
)

// DMChannelFinder defines the interface for finding the direct message channel between the bot and a user
type DMChannelFinder interface {
	FindDMChannel(ctx context.Context, userID string) (channelID string, err error)
}

// openingDMChannelFinder finds direct message channels by opening a conversation with the user. Opening
// a conversation that's already open returns the existing channel
type openingDMChannelFinder struct {
	opener conversationOpener
}

// cachingDMChannelFinder holds a cache and a loading DMChannelFinder to implement the DMChannelFinder loading entries from cache
type cachingDMChannelFinder struct {
	loader  DMChannelFinder
	logger  slog.SLogger
	dmCache *lru.ARCCache
}

// NewOpeningDMChannelFinder returns a DMChannelFinder opening conversations with opener on every call
func NewOpeningDMChannelFinder(opener conversationOpener) (df DMChannelFinder) {
	return openingDMChannelFinder{opener: opener}
}

// FindDMChannel opens (or reopens) the conversation with userID and returns its channel id
func (f openingDMChannelFinder) FindDMChannel(ctx context.Context, userID string) (channelID string, err error) {
	ch, _, _, err := f.opener.OpenConversationContext(ctx, &slack.OpenConversationParameters{Users: []string{userID}})
	if err != nil {
		return "", errors.Wrapf(err, "error opening direct message conversation with user [%s]", userID)
	}

	return ch.ID, nil
}

// NewCachingDMChannelFinder creates a new direct message channel finder with caching if cacheSize is greater than 0. It requires
// an implementation of the interface that will do the actual loading when not in cache
func NewCachingDMChannelFinder(cacheSize int, loader DMChannelFinder, logger slog.SLogger) (df DMChannelFinder, err error) {
	cdf := new(cachingDMChannelFinder)

	if cacheSize > dmChannelCacheSizeDisabledValue {
		cdf.dmCache, err = lru.NewARC(cacheSize)
		if err != nil {
			return nil, err
		}
	}

	cdf.loader = loader
	cdf.logger = logger

	return cdf, nil
}

// FindDMChannel gets the direct message channel of a user or returns an error if it couldn't be opened
func (c cachingDMChannelFinder) FindDMChannel(ctx context.Context, userID string) (channelID string, err error) {
	if c.dmCache == nil {
		c.logger.Debugf("Cache disabled, opening direct message channel for [%s] instead\n", userID)
		return c.loader.FindDMChannel(ctx, userID)
	}

	if cached, exists := c.dmCache.Get(userID); exists {
		channelID, ok := cached.(string)
		if !ok {
			return "", errors.Errorf("Error converting cached value for user id [%s]: %v", userID, cached)
		}

		return channelID, nil
	}

	c.logger.Debugf("Direct message channel for [%s] not found in cache, opening and saving\n", userID)
	channelID, err = c.loader.FindDMChannel(ctx, userID)
	if err != nil {
		return "", err
	}

	c.dmCache.Add(userID, channelID)

	return channelID, nil
}
