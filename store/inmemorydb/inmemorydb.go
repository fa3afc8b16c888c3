package inmemorydb

import (
	"sync"

	"github.com/alexandre-normand/welcomebot/store"
	"github.com/pkg/errors"
)

// InMemoryDB implements the GlobalSiloStringStorer interface and keeps
// everything in memory. When created with a wrapped (persistent) GlobalSiloStringStorer,
// puts and deletes are written through to it
type InMemoryDB struct {
	persistentStorer store.GlobalSiloStringStorer

	mu   sync.RWMutex
	data map[string]map[string]string
}

// New returns a new instance of InMemoryDB wrapping the persistent GlobalSiloStringStorer.
// Note that instantiation might have some latency induced by the initial scan to load
// the current database content from the persistentStorer in memory. A nil storer results
// in a purely volatile database
func New(storer store.GlobalSiloStringStorer) (imdb *InMemoryDB, err error) {
	imdb = new(InMemoryDB)
	imdb.persistentStorer = storer
	imdb.data = make(map[string]map[string]string)

	if storer == nil {
		return imdb, nil
	}

	imdb.data, err = imdb.persistentStorer.GlobalScan()
	if err != nil {
		return nil, err
	}

	return imdb, nil
}

// NewVolatile returns a new InMemoryDB not backed by any persistent storer
func NewVolatile() (imdb *InMemoryDB) {
	imdb, _ = New(nil)

	return imdb
}

// GetString returns the value associated to a given key. If the value is not
// found, the zero-value string is returned along with an error caused by store.ErrNotFound
func (imdb *InMemoryDB) GetString(key string) (value string, err error) {
	return imdb.GetSiloString("", key)
}

// GetSiloString returns the value associated to a given key in the given silo.
// If the value is not found, the zero-value string is returned along with
// an error caused by store.ErrNotFound
func (imdb *InMemoryDB) GetSiloString(silo string, key string) (value string, err error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	v, ok := imdb.data[silo][key]
	if !ok {
		return "", errors.Wrapf(store.ErrNotFound, "[%s] in silo [%s]", key, silo)
	}

	return v, nil
}

// PutString stores the key/value to the database
func (imdb *InMemoryDB) PutString(key string, value string) (err error) {
	return imdb.PutSiloString("", key, value)
}

// PutSiloString stores the key/value to a silo the database. The key/value is persisted to
// persistent storage first, if any, and then kept in memory
func (imdb *InMemoryDB) PutSiloString(silo string, key string, value string) (err error) {
	imdb.mu.Lock()
	defer imdb.mu.Unlock()

	if imdb.persistentStorer != nil {
		if err = imdb.persistentStorer.PutSiloString(silo, key, value); err != nil {
			return err
		}
	}

	if _, ok := imdb.data[silo]; !ok {
		imdb.data[silo] = make(map[string]string)
	}

	imdb.data[silo][key] = value
	return nil
}

// DeleteString deletes the entry for the given key
func (imdb *InMemoryDB) DeleteString(key string) (err error) {
	return imdb.DeleteSiloString("", key)
}

// DeleteSiloString deletes the silo entry for the given key. This is propagated to the
// persistent storage first, if any, and then deleted from memory
func (imdb *InMemoryDB) DeleteSiloString(silo string, key string) (err error) {
	imdb.mu.Lock()
	defer imdb.mu.Unlock()

	if imdb.persistentStorer != nil {
		if err = imdb.persistentStorer.DeleteSiloString(silo, key); err != nil {
			return err
		}
	}

	if s, ok := imdb.data[silo]; ok {
		delete(s, key)
	}

	return nil
}

// Scan returns all key/values from the default silo. This one returns a copy of the in-memory
// copy without querying the persistent storer.
func (imdb *InMemoryDB) Scan() (entries map[string]string, err error) {
	return imdb.ScanSilo("")
}

// ScanSilo returns all key/values for a silo from the database. This one returns a copy of the in-memory
// copy without querying the persistent storer.
func (imdb *InMemoryDB) ScanSilo(silo string) (entries map[string]string, err error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	entries = make(map[string]string)
	for k, v := range imdb.data[silo] {
		entries[k] = v
	}

	return entries, nil
}

// GlobalScan returns all key/values from the database. This one returns a copy of the in-memory
// copy without querying the persistent storer.
func (imdb *InMemoryDB) GlobalScan() (entries map[string]map[string]string, err error) {
	imdb.mu.RLock()
	defer imdb.mu.RUnlock()

	entries = make(map[string]map[string]string)
	for s, sc := range imdb.data {
		if len(sc) == 0 {
			continue
		}

		entries[s] = make(map[string]string)
		for k, v := range sc {
			entries[s][k] = v
		}
	}

	return entries, nil
}

// Close closes the underlying storer, if any
func (imdb *InMemoryDB) Close() (err error) {
	if imdb.persistentStorer == nil {
		return nil
	}

	return imdb.persistentStorer.Close()
}
