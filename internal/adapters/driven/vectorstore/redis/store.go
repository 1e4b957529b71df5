// Package redis stores pack chunks and registry entries in Redis.
//
// Key layout, under a configurable prefix (default "zerosignal:"):
//
//	{prefix}collections              SET of collection names
//	{prefix}{collection}:ids         ZSET of document ids, all with score 0
//	{prefix}{collection}:doc:{id}    HASH {text, metadata, vector}
//	{prefix}registry                 HASH pack_id -> JSON entry
//
// Scans use ZRANGEBYLEX on the id set, so pages are ordered by document id.
package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/ports/driven"
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "zerosignal:"

// Field names in chunk hashes.
const (
	fieldText     = "text"
	fieldMetadata = "metadata"
	fieldVector   = "vector"
)

// searchBatch is the number of ids fetched per round trip during search.
const searchBatch = 256

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore    = (*VectorStore)(nil)
	_ driven.VectorSearcher = (*VectorStore)(nil)
)

// Config holds Redis connection configuration.
type Config struct {
	// URL is a redis:// connection URL (default: redis://localhost:6379/0).
	URL string

	// KeyPrefix namespaces keys (default: "zerosignal:").
	KeyPrefix string
}

// VectorStore keeps pack chunks in Redis hashes indexed by a sorted set.
type VectorStore struct {
	client *redis.Client
	prefix string
}

// NewClient opens a client for cfg.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.URL == "" {
		cfg.URL = "redis://localhost:6379/0"
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w: %w", domain.ErrConfig, err)
	}
	// Callers own retry policy.
	opts.MaxRetries = -1
	return redis.NewClient(opts), nil
}

// NewVectorStore creates a store over an existing client.
func NewVectorStore(client *redis.Client, keyPrefix string) *VectorStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &VectorStore{client: client, prefix: keyPrefix}
}

func (s *VectorStore) collectionsKey() string { return s.prefix + "collections" }
func (s *VectorStore) idsKey(collection string) string {
	return s.prefix + collection + ":ids"
}
func (s *VectorStore) docKey(collection, id string) string {
	return s.prefix + collection + ":doc:" + id
}

// Upsert writes all chunks in one MULTI/EXEC transaction.
func (s *VectorStore) Upsert(ctx context.Context, collection string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	members := make([]redis.Z, len(chunks))
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.collectionsKey(), collection)
		for i, c := range chunks {
			meta, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("marshalling metadata for %s: %w", c.DocumentID, err)
			}
			pipe.HSet(ctx, s.docKey(collection, c.DocumentID),
				fieldText, c.Text,
				fieldMetadata, string(meta),
				fieldVector, encodeVector(c.Embedding),
			)
			members[i] = redis.Z{Score: 0, Member: c.DocumentID}
		}
		pipe.ZAdd(ctx, s.idsKey(collection), members...)
		return nil
	})
	if err != nil {
		return storeError("upserting chunks", err)
	}
	return nil
}

// Scan returns up to limit chunks with ids strictly greater than cursor.
func (s *VectorStore) Scan(ctx context.Context, collection, cursor string, limit int) ([]domain.Chunk, string, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, "", err
	}

	minLex := "-"
	if cursor != "" {
		minLex = "(" + cursor
	}
	ids, err := s.client.ZRangeByLex(ctx, s.idsKey(collection), &redis.ZRangeBy{
		Min:   minLex,
		Max:   "+",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, "", storeError("scanning ids", err)
	}

	page, err := s.load(ctx, collection, ids)
	if err != nil {
		return nil, "", err
	}
	next := ""
	if len(page) == limit && limit > 0 {
		next = ids[len(ids)-1]
	}
	return page, next, nil
}

// Search ranks every chunk in the collection by cosine similarity.
func (s *VectorStore) Search(ctx context.Context, collection string, query []float32, k int) ([]driven.VectorHit, error) {
	if err := s.requireCollection(ctx, collection); err != nil {
		return nil, err
	}

	var hits []driven.VectorHit
	cursor := ""
	for {
		page, next, err := s.Scan(ctx, collection, cursor, searchBatch)
		if err != nil {
			return nil, err
		}
		for _, c := range page {
			hits = append(hits, driven.VectorHit{Chunk: c, Score: domain.CosineSimilarity(query, c.Embedding)})
		}
		if next == "" {
			break
		}
		cursor = next
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.DocumentID < hits[j].Chunk.DocumentID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteCollection removes the id set, every chunk hash and the collection marker.
func (s *VectorStore) DeleteCollection(ctx context.Context, collection string) error {
	ids, err := s.client.ZRange(ctx, s.idsKey(collection), 0, -1).Result()
	if err != nil {
		return storeError("listing ids", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for start := 0; start < len(ids); start += searchBatch {
			end := min(start+searchBatch, len(ids))
			keys := make([]string, 0, end-start)
			for _, id := range ids[start:end] {
				keys = append(keys, s.docKey(collection, id))
			}
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, s.idsKey(collection))
		pipe.SRem(ctx, s.collectionsKey(), collection)
		return nil
	})
	if err != nil {
		return storeError("deleting collection", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *VectorStore) Close() error {
	return s.client.Close()
}

func (s *VectorStore) requireCollection(ctx context.Context, collection string) error {
	ok, err := s.client.SIsMember(ctx, s.collectionsKey(), collection).Result()
	if err != nil {
		return storeError("checking collection", err)
	}
	if !ok {
		return fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	return nil
}

// load fetches chunk hashes for ids in one pipeline, preserving order.
func (s *VectorStore) load(ctx context.Context, collection string, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return []domain.Chunk{}, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.docKey(collection, id))
		}
		return nil
	})
	if err != nil {
		return nil, storeError("loading chunks", err)
	}

	chunks := make([]domain.Chunk, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		c := domain.Chunk{
			DocumentID: ids[i],
			Text:       fields[fieldText],
			Embedding:  decodeVector([]byte(fields[fieldVector])),
		}
		if raw := fields[fieldMetadata]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &c.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshalling metadata for %s: %w", ids[i], err)
			}
		}
		if c.Metadata == nil {
			c.Metadata = make(map[string]any)
		}
		chunks[i] = c
	}
	return chunks, nil
}

// storeError maps client errors onto domain errors. Context errors pass through.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case isAuthError(err):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreAuth, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "NOAUTH") || strings.HasPrefix(msg, "WRONGPASS") ||
		strings.Contains(msg, "NOPERM")
}

// encodeVector packs a vector as little-endian float32 bytes.
func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v
}
