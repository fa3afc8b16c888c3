package inmemorydb_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/alexandre-normand/welcomebot/store"
	"github.com/alexandre-normand/welcomebot/store/inmemorydb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStorer struct {
	data            map[string]map[string]string
	errorOnNextCall bool
	closed          bool
}

func newMockStorer(existingData map[string]map[string]string) (ms *mockStorer) {
	ms = new(mockStorer)
	ms.data = existingData
	return ms
}

func (ms *mockStorer) GetString(key string) (value string, err error) {
	return ms.GetSiloString("", key)
}

func (ms *mockStorer) GetSiloString(silo string, key string) (value string, err error) {
	if ms.errorOnNextCall {
		return "", fmt.Errorf("error with persistent db")
	}

	v, ok := ms.data[silo][key]
	if !ok {
		return "", store.ErrNotFound
	}

	return v, nil
}

func (ms *mockStorer) PutString(key string, value string) (err error) {
	return ms.PutSiloString("", key, value)
}

func (ms *mockStorer) PutSiloString(silo string, key string, value string) (err error) {
	if ms.errorOnNextCall {
		return fmt.Errorf("error with persistent db")
	}

	if _, ok := ms.data[silo]; !ok {
		ms.data[silo] = make(map[string]string)
	}

	ms.data[silo][key] = value
	return nil
}

func (ms *mockStorer) DeleteString(key string) (err error) {
	return ms.DeleteSiloString("", key)
}

func (ms *mockStorer) DeleteSiloString(silo string, key string) (err error) {
	if ms.errorOnNextCall {
		return fmt.Errorf("error with persistent db")
	}

	delete(ms.data[silo], key)
	return nil
}

func (ms *mockStorer) Scan() (entries map[string]string, err error) {
	return ms.ScanSilo("")
}

func (ms *mockStorer) ScanSilo(silo string) (entries map[string]string, err error) {
	if ms.errorOnNextCall {
		return nil, fmt.Errorf("error with persistent db")
	}

	entries = make(map[string]string)
	for k, v := range ms.data[silo] {
		entries[k] = v
	}

	return entries, nil
}

func (ms *mockStorer) GlobalScan() (entries map[string]map[string]string, err error) {
	if ms.errorOnNextCall {
		return nil, fmt.Errorf("error with persistent db")
	}

	entries = make(map[string]map[string]string)
	for s, sc := range ms.data {
		entries[s] = make(map[string]string)
		for k, v := range sc {
			entries[s][k] = v
		}
	}

	return entries, nil
}

func (ms *mockStorer) Close() (err error) {
	if ms.errorOnNextCall {
		return fmt.Errorf("error with persistent db")
	}

	ms.closed = true
	return nil
}

func TestNewWithErrorLoadingPersistentContent(t *testing.T) {
	ms := &mockStorer{errorOnNextCall: true}

	_, err := inmemorydb.New(ms)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "error with persistent db")
	}
}

func TestGetWithPersistedExistingContent(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{"": {"key1": "value1"}, "C1": {"key2": "value2"}})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	v1, err := imdb.GetString("key1")
	assert.NoError(t, err)
	assert.Equal(t, "value1", v1)

	v2, err := imdb.GetSiloString("C1", "key2")
	assert.NoError(t, err)
	assert.Equal(t, "value2", v2)
}

func TestScanExistingContent(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{"": {"key1": "value1", "key2": "value2"}})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	elements, err := imdb.Scan()
	// Modify the persistent storer to make sure that the map returned was a copy
	// and not the reference
	ms.data[""]["key3"] = "should not be visible in the scan results"

	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"key1": "value1", "key2": "value2"}, elements)
}

func TestUpdateExistingContent(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{"C1": {"key1": "value1"}})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	require.NoError(t, imdb.PutSiloString("C1", "key1", "bird"))

	imv1, err := imdb.GetSiloString("C1", "key1")
	assert.NoError(t, err)
	assert.Equal(t, "bird", imv1)

	// Check it's also really persisted to the "persistent" storer
	msv1, err := ms.GetSiloString("C1", "key1")
	assert.NoError(t, err)
	assert.Equal(t, "bird", msv1)
}

func TestDeleteExistingContent(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{"": {"key1": "value1", "key2": "value2"}})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	require.NoError(t, imdb.DeleteString("key1"))

	imv1, err := imdb.GetString("key1")
	assert.True(t, store.IsNotFound(err))
	assert.Equal(t, "", imv1)

	// Check it's also really deleted from the "persistent" storer
	_, err = ms.GetString("key1")
	assert.Error(t, err)
}

func TestGetOnEmptyStorage(t *testing.T) {
	imdb := inmemorydb.NewVolatile()

	v1, err := imdb.GetString("key1")
	assert.Equal(t, "", v1)
	assert.True(t, store.IsNotFound(err))
}

func TestGlobalScanOnVolatileStorage(t *testing.T) {
	imdb := inmemorydb.NewVolatile()

	require.NoError(t, imdb.PutSiloString("C1", "U1", "a"))
	require.NoError(t, imdb.PutString("U2", "b"))
	require.NoError(t, imdb.PutSiloString("C2", "U3", "c"))
	require.NoError(t, imdb.DeleteSiloString("C2", "U3"))

	entries, err := imdb.GlobalScan()
	assert.NoError(t, err)
	assert.Equal(t, map[string]map[string]string{"C1": {"U1": "a"}, "": {"U2": "b"}}, entries)
}

func TestCloseClosesPersistentStorage(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	assert.NoError(t, imdb.Close())
	assert.Equalf(t, true, ms.closed, "Persistent db should be closed but wasn't")
}

func TestCloseVolatileStorage(t *testing.T) {
	assert.NoError(t, inmemorydb.NewVolatile().Close())
}

func TestErrorWithPersistentStorageOnGet(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{"": {"key1": "value1"}})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	ms.errorOnNextCall = true

	// Validate that the in memory db doesn't interact with the persistent
	// storer on Get and returns what it has in memory
	val, err := imdb.GetString("key1")
	assert.NoError(t, err)
	assert.Equal(t, "value1", val)
}

func TestErrorWithPersistentStorageOnPut(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	ms.errorOnNextCall = true

	assert.EqualError(t, imdb.PutString("key1", "value1"), "error with persistent db")

	// Nothing should have been kept in memory
	_, err = imdb.GetString("key1")
	assert.True(t, store.IsNotFound(err))
}

func TestErrorWithPersistentStorageOnDelete(t *testing.T) {
	ms := newMockStorer(map[string]map[string]string{})

	imdb, err := inmemorydb.New(ms)
	require.NoError(t, err)

	ms.errorOnNextCall = true

	assert.EqualError(t, imdb.DeleteString("key1"), "error with persistent db")
}

func TestConcurrentPutsAndGets(t *testing.T) {
	imdb := inmemorydb.NewVolatile()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			imdb.PutSiloString("C1", fmt.Sprintf("U%d", i), "v")
		}(i)
		go func(i int) {
			defer wg.Done()
			imdb.GetSiloString("C1", fmt.Sprintf("U%d", i))
		}(i)
	}
	wg.Wait()

	entries, err := imdb.ScanSilo("C1")
	assert.NoError(t, err)
	assert.Len(t, entries, 50)
}
