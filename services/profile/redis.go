// Package profile keeps caller profiles in redis, one hash per user.
package profile

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
)

const (
	fieldSemester   = "semester"
	fieldSchoolYear = "school_year"
	fieldUpdatedAt  = "updated_at"
)

type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

var _ academic.ProfileStore = (*RedisStore)(nil) // interface compliance check

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// NewRedisClient connects and pings the configured server.
func NewRedisClient(ctx context.Context, conf core.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     conf.Address,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis.Ping")
	}
	return rdb, nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Read(ctx context.Context, userID string) (academic.Profile, error) {
	h, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return academic.Profile{}, errors.Wrap(err, "redis.HGetAll")
	}
	if len(h) == 0 {
		return academic.Profile{}, academic.ErrProfileNotFound
	}
	return profileFromHash(userID, h), nil
}

func (s *RedisStore) Write(ctx context.Context, userID string, patch academic.ProfilePatch) error {
	fields := patchFields(patch, s.now())
	if err := s.client.HSet(ctx, s.key(userID), fields).Err(); err != nil {
		return errors.Wrap(err, "redis.HSet")
	}
	return nil
}

func profileFromHash(userID string, h map[string]string) academic.Profile {
	prof := academic.Profile{
		UserID:     userID,
		Semester:   h[fieldSemester],
		SchoolYear: h[fieldSchoolYear],
	}
	if ts, err := time.Parse(time.RFC3339Nano, h[fieldUpdatedAt]); err == nil {
		prof.UpdatedAt = ts
	}
	return prof
}

// patchFields leaves fields the patch does not set untouched in the hash.
func patchFields(patch academic.ProfilePatch, now time.Time) map[string]interface{} {
	fields := map[string]interface{}{fieldUpdatedAt: now.UTC().Format(time.RFC3339Nano)}
	if patch.Semester != nil {
		fields[fieldSemester] = *patch.Semester
	}
	if patch.SchoolYear != nil {
		fields[fieldSchoolYear] = *patch.SchoolYear
	}
	return fields
}
