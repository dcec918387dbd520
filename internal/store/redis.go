package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/visits"
)

// createScript inserts a record unless its hash exists or its URL has an active record.
// Returns 0 on success, 1 if the hash is taken, 2 if the URL is taken.
var createScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then return 1 end
if redis.call('EXISTS', KEYS[2]) == 1 then return 2 end
redis.call('HSET', KEYS[1],
	'hash', ARGV[1], 'url', ARGV[2], 'protocol', ARGV[3], 'domain', ARGV[4],
	'path', ARGV[5], 'remove_token', ARGV[6], 'active', '1', 'created_at', ARGV[7])
redis.call('SET', KEYS[2], ARGV[1])
return 0
`)

// deactivateScript flips an active record whose token matches and drops its URL index entry.
var deactivateScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'remove_token', 'active', 'url')
if f[1] ~= ARGV[1] or f[2] ~= '1' then return 0 end
redis.call('HSET', KEYS[1], 'active', '0', 'deactivated_at', ARGV[3])
redis.call('DEL', ARGV[2] .. f[3])
return 1
`)

// appendVisitScript pushes a visit unless its id was already seen.
var appendVisitScript = redis.NewScript(`
if redis.call('SADD', KEYS[1], ARGV[1]) == 0 then return 0 end
redis.call('RPUSH', KEYS[2], ARGV[2])
return 1
`)

// RedisStore is a Redis implementation of shortener.Repository.
type RedisStore struct {
	client     *redis.Client
	hashPrefix string // "shorturl:hash:" + hash -> record hash map
	urlPrefix  string // "shorturl:url:" + url -> hash of the active record
}

// NewRedisStore creates a new Redis-backed URL store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:     client,
		hashPrefix: "shorturl:hash:",
		urlPrefix:  "shorturl:url:",
	}
}

func (r *RedisStore) Create(ctx context.Context, record *shortener.Record) error {
	keys := []string{r.hashPrefix + string(record.Hash), r.urlPrefix + record.URL}

	res, err := createScript.Run(ctx, r.client, keys,
		string(record.Hash),
		record.URL,
		record.Protocol,
		record.Domain,
		record.Path,
		record.RemoveToken,
		record.CreatedAt.UnixNano(),
	).Int()
	if err != nil {
		return err
	}

	switch res {
	case 1:
		return shortener.ErrHashTaken
	case 2:
		return shortener.ErrURLTaken
	default:
		return nil
	}
}

func (r *RedisStore) FindActiveByHash(ctx context.Context, hash shortener.Hash) (*shortener.Record, error) {
	result, err := r.client.HGetAll(ctx, r.hashPrefix+string(hash)).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 || result["active"] != "1" {
		return nil, shortener.ErrNotFound
	}

	return recordFromHash(result), nil
}

func (r *RedisStore) FindActiveByURL(ctx context.Context, url string) (*shortener.Record, error) {
	hash, err := r.client.Get(ctx, r.urlPrefix+url).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return r.FindActiveByHash(ctx, shortener.Hash(hash))
}

func (r *RedisStore) Deactivate(ctx context.Context, hash shortener.Hash, removeToken string) (bool, error) {
	res, err := deactivateScript.Run(ctx, r.client,
		[]string{r.hashPrefix + string(hash)},
		removeToken,
		r.urlPrefix,
		time.Now().UTC().UnixNano(),
	).Int()
	if err != nil {
		return false, err
	}

	return res == 1, nil
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func recordFromHash(fields map[string]string) *shortener.Record {
	record := &shortener.Record{
		URL:         fields["url"],
		Hash:        shortener.Hash(fields["hash"]),
		Protocol:    fields["protocol"],
		Domain:      fields["domain"],
		Path:        fields["path"],
		RemoveToken: fields["remove_token"],
		Active:      fields["active"] == "1",
		CreatedAt:   unixNano(fields["created_at"]),
	}

	if ts, ok := fields["deactivated_at"]; ok {
		at := unixNano(ts)
		record.DeactivatedAt = &at
	}

	return record
}

func unixNano(s string) time.Time {
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(0, nanos).UTC()
}

// RedisVisitStore is a Redis implementation of visits.Store.
type RedisVisitStore struct {
	client    *redis.Client
	listKey   string // "visits:" + hash -> JSON visits in insertion order
	idsPrefix string // "visit_ids:" + hash -> set of stored visit ids
}

// NewRedisVisitStore creates a new Redis-backed visit store.
func NewRedisVisitStore(client *redis.Client) *RedisVisitStore {
	return &RedisVisitStore{
		client:    client,
		listKey:   "visits:",
		idsPrefix: "visit_ids:",
	}
}

func (r *RedisVisitStore) Append(ctx context.Context, visit *visits.Visit) error {
	payload, err := json.Marshal(visit)
	if err != nil {
		return err
	}

	keys := []string{r.idsPrefix + string(visit.Hash), r.listKey + string(visit.Hash)}

	return appendVisitScript.Run(ctx, r.client, keys, visit.ID, payload).Err()
}

func (r *RedisVisitStore) ListByHash(ctx context.Context, hash shortener.Hash) ([]visits.Visit, error) {
	items, err := r.client.LRange(ctx, r.listKey+string(hash), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]visits.Visit, 0, len(items))

	for _, item := range items {
		var v visits.Visit
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	return out, nil
}

var (
	_ shortener.Repository = (*RedisStore)(nil)
	_ visits.Store         = (*RedisVisitStore)(nil)
)
