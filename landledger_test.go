package landledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database"
	"github.com/landledger/landledger/database/memory"
	"github.com/landledger/landledger/model"
)

var admin = model.Actor{ID: "usr_admin", Name: "Admin"}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(t time.Time) *testClock {
	return &testClock{now: t.UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		DataSource: config.DataSourceConfig{Dns: config.MemoryDataSource},
		Redis:      config.RedisConfig{Dns: "localhost:6379"},
	}
}

func newTestLedger(t *testing.T, opts ...Option) (*LandLedger, *memory.Store) {
	t.Helper()
	config.MockConfig(testConfig())
	store := memory.New()
	l, err := NewLandLedger(store, opts...)
	require.NoError(t, err)
	return l, store
}

// interleavingStore commits a competing operation at a chosen point of another
// one. Each hook runs once.
type interleavingStore struct {
	*memory.Store

	mu           sync.Mutex
	beforeTx     func()
	duringTotals func()
}

func newInterleavingLedger(t *testing.T, opts ...Option) (*LandLedger, *interleavingStore) {
	t.Helper()
	config.MockConfig(testConfig())
	store := &interleavingStore{Store: memory.New()}
	l, err := NewLandLedger(store, opts...)
	require.NoError(t, err)
	return l, store
}

// beforeNextTx runs fn before the next unit of work begins.
func (s *interleavingStore) beforeNextTx(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeTx = fn
}

// afterNextTotals runs fn after the next financial totals are read.
func (s *interleavingStore) afterNextTotals(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duringTotals = fn
}

func (s *interleavingStore) take(hook *func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn := *hook
	*hook = nil
	return fn
}

func (s *interleavingStore) RunInTx(ctx context.Context, fn func(tx database.Tx) error) error {
	if hook := s.take(&s.beforeTx); hook != nil {
		hook()
	}
	return s.Store.RunInTx(ctx, fn)
}

func (s *interleavingStore) GetFinancialTotals(ctx context.Context) (*model.FinancialSummary, error) {
	totals, err := s.Store.GetFinancialTotals(ctx)
	if hook := s.take(&s.duringTotals); hook != nil {
		hook()
	}
	return totals, err
}

func newRedis(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, d(expected).Equal(got), append([]interface{}{fmt.Sprintf("expected %s, got %s", expected, got)}, msgAndArgs...)...)
}

// openAccount creates an account with a fake name and funds it with a deposit.
func openAccount(t *testing.T, l *LandLedger, balance string) model.Account {
	t.Helper()
	ctx := context.Background()
	name := fmt.Sprintf("%s %s", gofakeit.Company(), gofakeit.LetterN(6))
	acc, err := l.CreateAccount(ctx, name, admin)
	require.NoError(t, err)
	if b := d(balance); b.IsPositive() {
		_, err = l.Deposit(ctx, acc.AccountID, b, "opening balance", admin)
		require.NoError(t, err)
	}
	return acc
}

func balanceOf(t *testing.T, l *LandLedger, accountID string) decimal.Decimal {
	t.Helper()
	b, err := l.BalanceOf(context.Background(), accountID)
	require.NoError(t, err)
	return b
}
