package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// siloSeparator separates a silo name from the key in a leveldb key
const siloSeparator = "\x00"

// LevelDB holds a datastore name and its leveldb instance
type LevelDB struct {
	Name     string
	database *leveldb.DB
}

// NewLevelDB instantiates and open a new LevelDB instance backed by a leveldb database. If the
// leveldb database doesn't exist, one is created
func NewLevelDB(name string, storagePath string) (ldb *LevelDB, err error) {
	// Expand '~' as the full home directory path if appropriate
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err := leveldb.OpenFile(fullPath, nil)

	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return nil, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and restarting if you don't mind losing data", fullPath))
	} else if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	return &LevelDB{name, db}, nil
}

// Close closes the LevelDB
func (ldb *LevelDB) Close() (err error) {
	return ldb.database.Close()
}

// GetString retrieves a value associated to the key in the default silo
func (ldb *LevelDB) GetString(key string) (value string, err error) {
	return ldb.GetSiloString("", key)
}

// GetSiloString retrieves a value associated to the key in a silo
func (ldb *LevelDB) GetSiloString(silo string, key string) (value string, err error) {
	v, err := ldb.database.Get(siloKey(silo, key), nil)
	if err == leveldb.ErrNotFound {
		return "", errors.Wrapf(ErrNotFound, "[%s] in silo [%s]", key, silo)
	} else if err != nil {
		return "", err
	}

	return string(v), nil
}

// PutString adds or updates a value associated to the key in the default silo
func (ldb *LevelDB) PutString(key string, value string) (err error) {
	return ldb.PutSiloString("", key, value)
}

// PutSiloString adds or updates a value associated to the key in a silo
func (ldb *LevelDB) PutSiloString(silo string, key string, value string) (err error) {
	return ldb.database.Put(siloKey(silo, key), []byte(value), nil)
}

// DeleteString deletes the entry for the key in the default silo
func (ldb *LevelDB) DeleteString(key string) (err error) {
	return ldb.DeleteSiloString("", key)
}

// DeleteSiloString deletes the entry for the key in a silo
func (ldb *LevelDB) DeleteSiloString(silo string, key string) (err error) {
	return ldb.database.Delete(siloKey(silo, key), nil)
}

// Scan returns the complete set of key/values from the default silo
func (ldb *LevelDB) Scan() (entries map[string]string, err error) {
	return ldb.ScanSilo("")
}

// ScanSilo returns the complete set of key/values from a silo
func (ldb *LevelDB) ScanSilo(silo string) (entries map[string]string, err error) {
	entries = map[string]string{}
	prefix := silo + siloSeparator

	iter := ldb.database.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		key := strings.TrimPrefix(string(iter.Key()), prefix)
		entries[key] = string(iter.Value())
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}

// GlobalScan returns the complete set of key/values from the database, keyed by silo
func (ldb *LevelDB) GlobalScan() (entries map[string]map[string]string, err error) {
	entries = make(map[string]map[string]string)

	iter := ldb.database.NewIterator(nil, nil)
	for iter.Next() {
		parts := strings.SplitN(string(iter.Key()), siloSeparator, 2)
		if len(parts) != 2 {
			continue
		}

		silo, key := parts[0], parts[1]
		if _, ok := entries[silo]; !ok {
			entries[silo] = make(map[string]string)
		}

		entries[silo][key] = string(iter.Value())
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}

func siloKey(silo string, key string) []byte {
	return []byte(silo + siloSeparator + key)
}
