// Package store defines the storage interfaces used by the welcomebot components along with
// a leveldb implementation. See the inmemorydb package for the default, in-memory, implementation
package store

import (
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is the cause of errors returned when a key has no value
var ErrNotFound = errors.New("not found")

// IsNotFound returns true if err was caused by a missing key
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// StringStorer is implemented by any value that has the GetString, PutString, DeleteString and Scan methods
// along with io.Closer
type StringStorer interface {
	// GetString returns the value associated to a given key. If the value is not
	// found, an error caused by ErrNotFound is returned
	GetString(key string) (value string, err error)

	// PutString stores the key/value
	PutString(key string, value string) (err error)

	// DeleteString deletes the entry for the given key
	DeleteString(key string) (err error)

	// Scan returns the complete set of key/values
	Scan() (entries map[string]string, err error)

	io.Closer
}

// SiloStringStorer is implemented by any value that stores key/values isolated in silos
type SiloStringStorer interface {
	// GetSiloString returns the value associated to a given key in the given silo. If the value is not
	// found, an error caused by ErrNotFound is returned
	GetSiloString(silo string, key string) (value string, err error)

	// PutSiloString stores the key/value in a silo
	PutSiloString(silo string, key string, value string) (err error)

	// DeleteSiloString deletes the entry for the given key in a silo
	DeleteSiloString(silo string, key string) (err error)

	// ScanSilo returns the complete set of key/values of a silo
	ScanSilo(silo string) (entries map[string]string, err error)
}

// GlobalSiloStringStorer is both a StringStorer and a SiloStringStorer with the ability to
// scan all silos at once. The StringStorer methods operate on the default silo (named "")
type GlobalSiloStringStorer interface {
	StringStorer
	SiloStringStorer

	// GlobalScan returns all key/values of all silos, keyed by silo
	GlobalScan() (entries map[string]map[string]string, err error)
}
