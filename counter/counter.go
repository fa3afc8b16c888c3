// Package counter keeps the tally of messages sent by each user
package counter

import (
	"strconv"

	"github.com/alexandre-normand/welcomebot/keylock"
	"github.com/alexandre-normand/welcomebot/slog"
	"github.com/alexandre-normand/welcomebot/store"
	"github.com/pkg/errors"
)

// Counter holds message counts keyed by user id
type Counter struct {
	storer store.StringStorer
	locks  *keylock.Stripes
	log    slog.SLogger
}

// New returns a new Counter storing counts with the given storer
func New(storer store.StringStorer, locks *keylock.Stripes, log slog.SLogger) (c *Counter) {
	return &Counter{storer: storer, locks: locks, log: log}
}

// Increment adds one to the count of a user and returns the new count. The first
// increment for a user returns 1
func (c *Counter) Increment(user string) (count int, err error) {
	unlock := c.locks.Lock(user)
	defer unlock()

	count, err = c.load(user)
	if err != nil {
		return 0, err
	}

	count++
	if err = c.storer.PutString(user, strconv.Itoa(count)); err != nil {
		return 0, errors.Wrapf(err, "error persisting message count for user [%s]", user)
	}

	c.log.Debugf("Message count for user [%s] is now [%d]\n", user, count)

	return count, nil
}

// Get returns the current count for a user or 0 if the user was never seen
func (c *Counter) Get(user string) (count int, err error) {
	return c.load(user)
}

func (c *Counter) load(user string) (count int, err error) {
	rawValue, err := c.storer.GetString(user)
	if store.IsNotFound(err) {
		return 0, nil
	} else if err != nil {
		return 0, errors.Wrapf(err, "error loading message count for user [%s]", user)
	}

	count, err = strconv.Atoi(rawValue)
	if err != nil {
		c.log.Printf("Error parsing message count value [%s] for user [%s], something's wrong and resetting to 0: %v", rawValue, user, err)
		return 0, nil
	}

	return count, nil
}
