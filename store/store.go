// Package store persists fitted models in a bbolt database.
//
// Each model is a msgpack-encoded Record prefixed by the 8-byte big-endian
// xxhash of the encoding; a mismatch on read yields ErrChecksum.
package store

import (
	"encoding/binary"
	"os"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
)

// BucketName is the bbolt bucket holding the records.
const BucketName = "models"

const (
	checksumSize = 8
	openTimeout  = time.Second
)

var ErrNotFound = errors.New("store: model not found")
var ErrChecksum = errors.New("store: checksum mismatch")
var ErrCorrupt = errors.New("store: record too short")
var ErrBadID = errors.New("store: invalid model id")
var ErrClosed = errors.New("store: already closed")

// Record is a stored model.
type Record struct {
	ID      string           `msgpack:"id"`
	Name    string           `msgpack:"name"`
	Created time.Time        `msgpack:"created"`
	Model   learner.Snapshot `msgpack:"model"`
}

// Info summarises a record for listings.
type Info struct {
	ID       string
	Name     string
	Kind     string
	Created  time.Time
	Dim      int
	GridSize int
}

// Store is a model store backed by one bbolt file. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "could not create bucket in %s", path)
	}

	return &Store{db: db}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.db.Path() }

// Put stores rec and returns its ID. A new UUID is assigned when rec.ID is
// empty and Created defaults to now. An existing ID is overwritten.
func (s *Store) Put(rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return "", errors.Wrapf(ErrBadID, "%q", rec.ID)
	}
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	payload, err := msgpack.Marshal(&rec)
	if err != nil {
		return "", errors.Wrapf(err, "could not encode model %s", rec.ID)
	}
	value := make([]byte, checksumSize+len(payload))
	binary.BigEndian.PutUint64(value, xxhash.Sum64(payload))
	copy(value[checksumSize:], payload)

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketName)).Put([]byte(rec.ID), value)
	})
	if err != nil {
		return "", errors.Wrapf(s.mapClosed(err), "could not write model %s", rec.ID)
	}

	return rec.ID, nil
}

// PutSnapshot stores a learner snapshot under a fresh ID.
func (s *Store) PutSnapshot(name string, snap learner.Snapshot) (string, error) {
	return s.Put(Record{Name: name, Model: snap})
}

// Get loads the record with the given ID.
//
// Errors: ErrNotFound, ErrChecksum, ErrCorrupt, ErrBadID.
func (s *Store) Get(id string) (Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, errors.Wrapf(ErrBadID, "%q", id)
	}
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(BucketName)).Get([]byte(id))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "%s", id)
		}
		r, err := decode(v)
		if err != nil {
			return errors.Wrapf(err, "model %s", id)
		}
		rec = r
		return nil
	})
	if err != nil {
		return Record{}, s.mapClosed(err)
	}

	return rec, nil
}

// List summarises all records, oldest first.
func (s *Store) List() ([]Info, error) {
	var out []Info
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketName)).ForEach(func(k, v []byte) error {
			rec, err := decode(v)
			if err != nil {
				return errors.Wrapf(err, "model %s", string(k))
			}
			out = append(out, Info{
				ID:       rec.ID,
				Name:     rec.Name,
				Kind:     rec.Model.Kind,
				Created:  rec.Created,
				Dim:      rec.Model.Grid.Dim,
				GridSize: len(rec.Model.Alpha),
			})
			return nil
		})
	})
	if err != nil {
		return nil, s.mapClosed(err)
	}
	slices.SortStableFunc(out, func(a, b Info) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})

	return out, nil
}

// Delete removes the record with the given ID.
//
// Errors: ErrNotFound, ErrBadID.
func (s *Store) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(ErrBadID, "%q", id)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b.Get([]byte(id)) == nil {
			return errors.Wrapf(ErrNotFound, "%s", id)
		}
		return b.Delete([]byte(id))
	})

	return s.mapClosed(err)
}

// Close releases the database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "could not close store")
	}

	return nil
}

func (s *Store) mapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return errors.Wrap(ErrClosed, err.Error())
	}

	return err
}

func decode(v []byte) (Record, error) {
	if len(v) < checksumSize {
		return Record{}, ErrCorrupt
	}
	payload := v[checksumSize:]
	if binary.BigEndian.Uint64(v) != xxhash.Sum64(payload) {
		return Record{}, ErrChecksum
	}
	var rec Record
	if err := msgpack.Unmarshal(payload, &rec); err != nil {
		return Record{}, errors.Wrap(err, "could not decode record")
	}

	return rec, nil
}

// Exists reports whether a database file is present at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, errors.Wrapf(err, "could not stat %s", path)
}
