package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/pkg/utils"
)

var bucketEmbeddings = []byte("embeddings")

// BoltCache is a CacheStore persisted in a bbolt file, so repeated runs over the same
// pages do not pay for embeddings twice.
type BoltCache struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// OpenBoltCache opens or creates the cache file at path. Parent directories are created.
func OpenBoltCache(path string, logger *zap.Logger) (*BoltCache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", bucketEmbeddings, err)
	}
	return &BoltCache{db: db, logger: utils.OrNop(logger)}, nil
}

// Get returns the stored embedding for key.
func (c *BoltCache) Get(key string) ([]float32, bool) {
	var out []float32
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketEmbeddings).Get([]byte(key))
		if v != nil {
			out = bytesToFloat32Slice(v)
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("embedding cache read failed", zap.Error(err))
		return nil, false
	}
	return out, out != nil
}

// Set stores the embedding for key. Write failures are logged; the cache is best effort.
func (c *BoltCache) Set(key string, value []float32) {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put([]byte(key), float32SliceToBytes(value))
	})
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.Error(err))
	}
}

// SetMany stores all entries in a single write transaction.
func (c *BoltCache) SetMany(keys []string, values [][]float32) {
	if len(keys) == 0 {
		return
	}
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEmbeddings)
		for i, key := range keys {
			if err := b.Put([]byte(key), float32SliceToBytes(values[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.Int("entries", len(keys)), zap.Error(err))
	}
}

// Close closes the underlying database.
func (c *BoltCache) Close() error {
	return c.db.Close()
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
