// Package archive keeps produced ciphertexts in a bolt database so they can
// be replayed or audited later.
package archive

import (
	"encoding/binary"
	"sync"

	json "github.com/nikkolasg/hexjson"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/AUKUS561/KUIBE/log"
)

// Envelope is one archived hybrid ciphertext. Header is the ciphertext's
// canonical byte encoding; Eta the context string it was produced under.
type Envelope struct {
	Seq      uint64 `json:"seq"`
	Identity string `json:"identity"`
	Eta      []byte `json:"eta"`
	Header   []byte `json:"header"`
	Payload  []byte `json:"payload"`
}

var envelopeBucket = []byte("ciphertexts")

// ErrNoEnvelope is returned when the archive has nothing to serve.
var ErrNoEnvelope = errors.New("archive: no envelope stored")

// Store wraps a bolt database holding envelopes keyed by big-endian
// sequence number.
type Store struct {
	sync.Mutex
	db  *bolt.DB
	log log.Logger
}

// NewStore opens or creates the database at path.
func NewStore(path string, l log.Logger) (*Store, error) {
	if l == nil {
		l = log.DefaultLogger()
	}
	db, err := bolt.Open(path, 0660, nil)
	if err != nil {
		return nil, errors.Wrap(err, "archive: opening database")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(envelopeBucket)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "archive: creating bucket")
	}
	return &Store{db: db, log: l}, nil
}

func seqToBytes(seq uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	return buf[:]
}

// Put stores env at its sequence number, overwriting any previous entry.
func (s *Store) Put(env *Envelope) error {
	s.Lock()
	defer s.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		buff, err := json.Marshal(env)
		if err != nil {
			return errors.Wrap(err, "archive: encoding envelope")
		}
		return tx.Bucket(envelopeBucket).Put(seqToBytes(env.Seq), buff)
	})
}

// Get returns the envelope stored at seq.
func (s *Store) Get(seq uint64) (*Envelope, error) {
	s.Lock()
	defer s.Unlock()
	var env *Envelope
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(envelopeBucket).Get(seqToBytes(seq))
		if raw == nil {
			return ErrNoEnvelope
		}
		env = new(Envelope)
		return json.Unmarshal(raw, env)
	})
	return env, err
}

// Last returns the envelope with the highest sequence number.
func (s *Store) Last() (*Envelope, error) {
	s.Lock()
	defer s.Unlock()
	var env *Envelope
	err := s.db.View(func(tx *bolt.Tx) error {
		_, raw := tx.Bucket(envelopeBucket).Cursor().Last()
		if raw == nil {
			return ErrNoEnvelope
		}
		env = new(Envelope)
		return json.Unmarshal(raw, env)
	})
	return env, err
}

// Cursor calls fn for every envelope in sequence order, stopping at the
// first error.
func (s *Store) Cursor(fn func(*Envelope) error) error {
	s.Lock()
	defer s.Unlock()
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(envelopeBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			env := new(Envelope)
			if err := json.Unmarshal(v, env); err != nil {
				return errors.Wrap(err, "archive: decoding envelope")
			}
			if err := fn(env); err != nil {
				return err
			}
		}
		return nil
	})
}

// Len counts the stored envelopes.
func (s *Store) Len() (int, error) {
	s.Lock()
	defer s.Unlock()
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(envelopeBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Close releases the database file.
func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		s.log.Errorw("", "archive", "close", "err", err)
	}
	return err
}
