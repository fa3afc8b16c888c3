package counter_test

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/alexandre-normand/welcomebot/counter"
	"github.com/alexandre-normand/welcomebot/keylock"
	"github.com/alexandre-normand/welcomebot/slog"
	"github.com/alexandre-normand/welcomebot/store"
	"github.com/alexandre-normand/welcomebot/store/inmemorydb"
	"github.com/alexandre-normand/welcomebot/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounter(t *testing.T, storer store.StringStorer) (c *counter.Counter) {
	locks, err := keylock.New(4)
	require.NoError(t, err)

	return counter.New(storer, locks, slog.Discard())
}

func TestGetBeforeAnyIncrementIsZero(t *testing.T) {
	c := newCounter(t, inmemorydb.NewVolatile())

	count, err := c.Get("U1")

	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSequentialIncrements(t *testing.T) {
	c := newCounter(t, inmemorydb.NewVolatile())

	for i := 1; i <= 5; i++ {
		count, err := c.Increment("U1")
		assert.NoError(t, err)
		assert.Equal(t, i, count)
	}

	count, err := c.Get("U1")
	assert.NoError(t, err)
	assert.Equal(t, 5, count)

	other, err := c.Get("U2")
	assert.NoError(t, err)
	assert.Equal(t, 0, other)
}

func TestConcurrentIncrementsAreNotLost(t *testing.T) {
	c := newCounter(t, inmemorydb.NewVolatile())

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Increment(fmt.Sprintf("U%d", i%4))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		count, err := c.Get(fmt.Sprintf("U%d", i))
		assert.NoError(t, err)
		assert.Equal(t, 50, count)
	}
}

func TestIncrementWithStorageErrorOnGet(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("GetString", "U1").Return("", fmt.Errorf("disk on fire"))

	c := newCounter(t, ms)
	_, err := c.Increment("U1")

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "disk on fire")
		assert.Contains(t, err.Error(), "error loading message count for user [U1]")
	}
	ms.AssertNotCalled(t, "PutString", "U1", "1")
}

func TestIncrementWithStorageErrorOnPut(t *testing.T) {
	ms := new(mocks.Storer)
	ms.On("GetString", "U1").Return("41", nil)
	ms.On("PutString", "U1", "42").Return(fmt.Errorf("disk on fire"))

	c := newCounter(t, ms)
	_, err := c.Increment("U1")

	assert.EqualError(t, err, "error persisting message count for user [U1]: disk on fire")
	ms.AssertExpectations(t)
}

func TestCorruptedCountResetsToZero(t *testing.T) {
	var b strings.Builder
	locks, _ := keylock.New(1)
	imdb := inmemorydb.NewVolatile()
	require.NoError(t, imdb.PutString("U1", "not a number"))

	c := counter.New(imdb, locks, slog.New(log.New(&b, "", 0), false))
	count, err := c.Increment("U1")

	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, b.String(), "Error parsing message count value [not a number] for user [U1]")
}
