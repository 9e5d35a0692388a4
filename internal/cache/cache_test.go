/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(client), mr
}

type summary struct {
	NetAssets string `json:"net_assets"`
	Accounts  int    `json:"accounts"`
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, "report:summary", summary{NetAssets: "1500.00", Accounts: 2}, time.Minute))

	var got summary
	require.NoError(t, c.Get(ctx, "report:summary", &got))
	assert.Equal(t, summary{NetAssets: "1500.00", Accounts: 2}, got)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	var got summary
	err := c.Get(context.Background(), "nonExistentKey", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	require.NoError(t, c.Set(ctx, "testKey", "testValue", time.Minute))
	require.NoError(t, c.Delete(ctx, "testKey"))

	var got string
	assert.ErrorIs(t, c.Get(ctx, "testKey", &got), ErrCacheMiss)

	assert.NoError(t, c.Delete(ctx, "nonExistentKey"))
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "short", "value", 2*time.Second))
	mr.FastForward(3 * time.Second)

	var got string
	assert.ErrorIs(t, c.Get(ctx, "short", &got), ErrCacheMiss)
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	n, err := c.Counter(ctx, "report:generation")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	for want := int64(1); want <= 3; want++ {
		got, err := c.Incr(ctx, "report:generation")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	n, err = c.Counter(ctx, "report:generation")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mr.SetError("server down")
	_, err = c.Counter(ctx, "report:generation")
	assert.Error(t, err)
}
