//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vinculacion/internal/platform/cache"
	"vinculacion/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Redis
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = cache.NewRedis(s.redis.Client)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestSetGetWithTTL() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "linix_access_token", "tok-1", 2*time.Second))

	v, ok, err := s.cache.Get(ctx, "linix_access_token")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("tok-1", v)

	ttl, err := s.redis.Client.TTL(ctx, "vinculacion:linix_access_token").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCacheSuite) TestMissingKey() {
	_, ok, err := s.cache.Get(context.Background(), "absent")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestDeleteEvicts() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "linix_access_token", "tok-1", time.Minute))
	s.Require().NoError(s.cache.Delete(ctx, "linix_access_token"))

	_, ok, err := s.cache.Get(ctx, "linix_access_token")
	s.Require().NoError(err)
	s.False(ok)
}
