package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// CachedEmbedder serves embeddings from a CacheStore and only sends misses to the wrapped embedder.
type CachedEmbedder struct {
	inner Embedder
	store CacheStore
}

// NewCached wraps inner with store. A nil store returns inner unchanged.
func NewCached(inner Embedder, store CacheStore) Embedder {
	if store == nil {
		return inner
	}
	return &CachedEmbedder{inner: inner, store: store}
}

// Embed returns the embedding for text.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch resolves cached texts locally and embeds the rest in one call to the wrapped embedder.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if v, ok := c.store.Get(c.key(text)); ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	embedded, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missTexts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(missTexts))
	}
	keys := make([]string, len(missTexts))
	for j, i := range missIdx {
		out[i] = embedded[j]
		keys[j] = c.key(missTexts[j])
	}
	if bs, ok := c.store.(BatchSetter); ok {
		bs.SetMany(keys, embedded)
		return out, nil
	}
	for j, key := range keys {
		c.store.Set(key, embedded[j])
	}
	return out, nil
}

// Model returns the wrapped embedder's model.
func (c *CachedEmbedder) Model() string {
	return c.inner.Model()
}

// Close closes the wrapped embedder and the store when it holds resources.
func (c *CachedEmbedder) Close() error {
	err := c.inner.Close()
	if closer, ok := c.store.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(c.inner.Model() + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
