package wallet

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const passBucketName = "passes"

// DB defines the interface for pass persistence
type DB interface {
	// SavePass saves a pass to the database
	SavePass(pass *Pass) error

	// GetPass retrieves a pass by ID
	GetPass(id string) (*Pass, error)

	// ListPasses returns all passes
	ListPasses() ([]*Pass, error)

	// DeletePass removes a pass from the database
	DeletePass(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(passBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SavePass saves a pass to the database
func (b *BoltDB) SavePass(pass *Pass) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(passBucketName))
		data, err := json.Marshal(pass)
		if err != nil {
			return fmt.Errorf("marshaling pass: %w", err)
		}
		return bucket.Put([]byte(pass.ID), data)
	})
}

// GetPass retrieves a pass by ID
func (b *BoltDB) GetPass(id string) (*Pass, error) {
	var pass *Pass
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(passBucketName))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrPassNotFound, id)
		}
		return json.Unmarshal(data, &pass)
	})
	if err != nil {
		return nil, err
	}
	return pass, nil
}

// ListPasses returns all passes
func (b *BoltDB) ListPasses() ([]*Pass, error) {
	passes := make([]*Pass, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(passBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var pass Pass
			if err := json.Unmarshal(v, &pass); err != nil {
				return fmt.Errorf("unmarshaling pass: %w", err)
			}
			passes = append(passes, &pass)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return passes, nil
}

// DeletePass removes a pass from the database
func (b *BoltDB) DeletePass(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(passBucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrPassNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
