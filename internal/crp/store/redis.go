package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"crpstore/internal/crp/models"
)

// keyPrefix namespaces one hash per user: field = challenge, value = response.
const keyPrefix = "crp:"

// insertAllScript checks every (key, field) of the batch, including repeats
// within the batch, before writing any of them. Redis runs scripts atomically,
// so the batch is all-or-nothing.
//
// ARGV holds triples: index into KEYS, challenge, response.
// Returns "OK", or {index, challenge} for the first collision.
var insertAllScript = redis.NewScript(`
local seen = {}
for i = 1, #ARGV, 3 do
  local key = KEYS[tonumber(ARGV[i])]
  local field = ARGV[i + 1]
  seen[key] = seen[key] or {}
  if seen[key][field] or redis.call('HEXISTS', key, field) == 1 then
    return {ARGV[i], field}
  end
  seen[key][field] = true
end
for i = 1, #ARGV, 3 do
  redis.call('HSET', KEYS[tonumber(ARGV[i])], ARGV[i + 1], ARGV[i + 2])
end
return 'OK'
`)

// RedisStore persists records in Redis hashes.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed store.
func NewRedis(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func userKey(user string) string {
	return keyPrefix + user
}

func (s *RedisStore) InsertAll(ctx context.Context, records []models.CRP) error {
	if len(records) == 0 {
		return nil
	}

	var keys []string
	users := make([]string, 0, 1)
	index := make(map[string]int, 1)
	args := make([]any, 0, len(records)*3)
	for _, r := range records {
		i, ok := index[r.User]
		if !ok {
			keys = append(keys, userKey(r.User))
			users = append(users, r.User)
			i = len(keys)
			index[r.User] = i
		}
		args = append(args, i, r.Challenge, r.Response)
	}

	res, err := insertAllScript.Run(ctx, s.client, keys, args...).Result()
	if err != nil {
		return fmt.Errorf("insert crp batch: %w", err)
	}

	switch v := res.(type) {
	case string:
		return nil
	case []any:
		if len(v) == 2 {
			i, _ := strconv.Atoi(fmt.Sprint(v[0]))
			if i >= 1 && i <= len(users) {
				return uniquenessViolation(users[i-1], fmt.Sprint(v[1]))
			}
		}
	}
	return fmt.Errorf("insert crp batch: unexpected script reply %v", res)
}

func (s *RedisStore) QueryByUser(ctx context.Context, user string) ([]models.CRP, error) {
	fields, err := s.client.HGetAll(ctx, userKey(user)).Result()
	if err != nil {
		return nil, fmt.Errorf("query crp by user: %w", err)
	}

	records := make([]models.CRP, 0, len(fields))
	for challenge, response := range fields {
		records = append(records, models.CRP{User: user, Challenge: challenge, Response: response})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Challenge < records[j].Challenge })
	return records, nil
}

// Health pings Redis.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
