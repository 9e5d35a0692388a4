package landledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landledger/landledger/config"
	"github.com/landledger/landledger/database/memory"
	"github.com/landledger/landledger/internal/apierror"
)

func newSequenceLedger(t *testing.T, tune func(cfg *config.Configuration)) *LandLedger {
	t.Helper()
	cfg := testConfig()
	if tune != nil {
		tune(cfg)
	}
	config.MockConfig(cfg)
	l, err := NewLandLedger(memory.New())
	require.NoError(t, err)
	return l
}

func TestNextDocumentNumber(t *testing.T) {
	l := newSequenceLedger(t, nil)
	ctx := context.Background()

	first, err := l.NextDocumentNumber(ctx, "inv", "2024")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-00001", first.Identifier)
	assert.Equal(t, 1, first.Attempts)

	second, err := l.NextDocumentNumber(ctx, "INV", "2024")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-00002", second.Identifier)

	// Counters are per type and period.
	other, err := l.NextDocumentNumber(ctx, "INV", "2025")
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-00001", other.Identifier)
}

func TestNextDocumentNumberValidation(t *testing.T) {
	l := newSequenceLedger(t, nil)
	for _, tc := range []struct{ docType, period string }{
		{"", "2024"},
		{"INV-X", "2024"},
		{"INV", ""},
		{"INV", "2024/01"},
		{"PHONE", "2024"},
	} {
		_, err := l.NextDocumentNumber(context.Background(), tc.docType, tc.period)
		assert.True(t, apierror.Is(err, apierror.ErrValidation), "%s %s", tc.docType, tc.period)
	}
}

func TestNextDocumentNumberConcurrentCallersGetDistinctNumbers(t *testing.T) {
	l := newSequenceLedger(t, nil)

	const callers = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]struct{}, callers)
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.NextDocumentNumber(context.Background(), "RCPT", "202406")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[v.Identifier] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, callers)
	assert.Contains(t, seen, "RCPT-202406-00001")
	assert.Contains(t, seen, fmt.Sprintf("RCPT-202406-%05d", callers))
}

func TestNextDocumentNumberSkipsIssuedIdentifiers(t *testing.T) {
	l := newSequenceLedger(t, nil)
	ctx := context.Background()

	require.NoError(t, l.RegisterIssuedIdentifier(ctx, "INV", "INV-2024-00001"))
	require.NoError(t, l.RegisterIssuedIdentifier(ctx, "INV", "INV-2024-00002"))

	v, err := l.NextDocumentNumber(ctx, "INV", "2024")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-00003", v.Identifier)
	assert.Equal(t, 3, v.Attempts)

	err = l.RegisterIssuedIdentifier(ctx, "INV", "INV-2024-00003")
	assert.True(t, apierror.Is(err, apierror.ErrInvalidOperation))
}

func TestNextDocumentNumberRetryBound(t *testing.T) {
	l := newSequenceLedger(t, func(cfg *config.Configuration) { cfg.Sequence.MaxAttempts = 2 })
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, l.RegisterIssuedIdentifier(ctx, "INV", fmt.Sprintf("INV-2024-%05d", i)))
	}

	_, err := l.NextDocumentNumber(ctx, "INV", "2024")
	assert.True(t, apierror.Is(err, apierror.ErrConcurrencyConflict))

	// Burnt counter values are never handed out again.
	v, err := l.NextDocumentNumber(ctx, "INV", "2024")
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-00004", v.Identifier)
}

func TestNextDocumentNumberExhausted(t *testing.T) {
	l := newSequenceLedger(t, func(cfg *config.Configuration) { cfg.Sequence.DocumentDigits = 1 })
	ctx := context.Background()

	for i := 1; i <= 9; i++ {
		v, err := l.NextDocumentNumber(ctx, "LOT", "A")
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("LOT-A-%d", i), v.Identifier)
	}
	_, err := l.NextDocumentNumber(ctx, "LOT", "A")
	assert.True(t, apierror.Is(err, apierror.ErrExhaustedSequenceSpace))
}

func TestNextPhoneNumberFallsThroughPrefixes(t *testing.T) {
	l := newSequenceLedger(t, func(cfg *config.Configuration) {
		cfg.Sequence.PhoneDigits = 1
		cfg.Sequence.PhonePrefixes = []string{"10", "20"}
	})
	ctx := context.Background()

	var issued []string
	for i := 0; i < 18; i++ {
		v, err := l.NextPhoneNumber(ctx)
		require.NoError(t, err)
		issued = append(issued, v.Identifier)
	}
	assert.Equal(t, "101", issued[0])
	assert.Equal(t, "109", issued[8])
	assert.Equal(t, "201", issued[9])
	assert.Equal(t, "209", issued[17])

	_, err := l.NextPhoneNumber(ctx)
	assert.True(t, apierror.Is(err, apierror.ErrExhaustedSequenceSpace))
}

func TestRegisterIssuedIdentifierValidation(t *testing.T) {
	l := newSequenceLedger(t, nil)
	assert.True(t, apierror.Is(l.RegisterIssuedIdentifier(context.Background(), "", "X-1"), apierror.ErrValidation))
	assert.True(t, apierror.Is(l.RegisterIssuedIdentifier(context.Background(), "INV", " "), apierror.ErrValidation))
}
