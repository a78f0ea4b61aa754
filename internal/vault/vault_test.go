package vault

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/vaultgate-prototype/internal/domain"
	"github.com/xela07ax/vaultgate-prototype/internal/guardians"
)

// fakeClock — управляемые часы: cooldown тестируется без реального ожидания
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// spyStore считает коммиты, чтобы проверить контракт
// "отказ политики не трогает cooldown"
type spyStore struct {
	MemoryCooldown
	commits int
}

func (s *spyStore) Commit(ctx context.Context, t time.Time) error {
	s.commits++
	return s.MemoryCooldown.Commit(ctx, t)
}

func validIntent() domain.Intent {
	return domain.Intent{
		To:      "0x" + strings.Repeat("a", 40),
		Value:   100,
		Data:    "0x",
		ChainID: 1,
		Nonce:   0,
	}
}

func newTestVault(store CooldownStore, clock *fakeClock, names ...string) *Vault {
	return New(
		Config{
			Secret:   []byte("demo-unsafe-key"),
			Limits:   map[string]int64{"daily": 1e18},
			Cooldown: 5 * time.Second,
		},
		guardians.NewStatic(names...),
		store,
		clock.Now,
		zap.NewNop(),
	)
}

func TestSignHappyPath(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	v := newTestVault(NewMemoryCooldown(), clock, "alice")

	signed, err := v.Sign(context.Background(), validIntent(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", signed.Actor)
	assert.Equal(t, validIntent(), signed.Intent)
	assert.Len(t, signed.Sig, 66)
	assert.True(t, strings.HasPrefix(signed.Sig, "0x"))
}

func TestSignRejectsUnknownActor(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	v := newTestVault(NewMemoryCooldown(), clock, "alice")

	_, err := v.Sign(context.Background(), validIntent(), "bob")
	require.Error(t, err)

	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeActorNotAuthorized, rej.Code)
	assert.Contains(t, rej.Message, "not authorized")
}

func TestSignCooldownCycle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	v := newTestVault(NewMemoryCooldown(), clock, "alice")
	ctx := context.Background()

	// Ready: первая подпись проходит
	_, err := v.Sign(ctx, validIntent(), "alice")
	require.NoError(t, err)

	// Cooling: повтор до истечения интервала — отказ, состояние не меняется
	clock.Advance(3 * time.Second)
	_, err = v.Sign(ctx, validIntent(), "alice")
	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeCooldownViolation, rej.Code)

	// Отказ не сдвинул таймстемп: еще через 2 секунды с момента
	// ПЕРВОЙ подписи прошло ровно 5 — снова Ready
	clock.Advance(2 * time.Second)
	_, err = v.Sign(ctx, validIntent(), "alice")
	assert.NoError(t, err)
}

func TestSignRejectionDoesNotCommitCooldown(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := &spyStore{}
	v := newTestVault(store, clock, "alice")

	_, err := v.Sign(context.Background(), validIntent(), "bob")
	require.Error(t, err)
	assert.Zero(t, store.commits)

	_, err = v.Sign(context.Background(), validIntent(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, store.commits)
}

func TestSignDeterministicAcrossCalls(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	v := newTestVault(NewMemoryCooldown(), clock, "alice")
	ctx := context.Background()

	first, err := v.Sign(ctx, validIntent(), "alice")
	require.NoError(t, err)

	// Подпись — функция только (intent, secret): время следующего
	// вызова на дайджест не влияет
	clock.Advance(time.Hour)
	second, err := v.Sign(ctx, validIntent(), "alice")
	require.NoError(t, err)

	assert.Equal(t, first.Sig, second.Sig)
}

func TestMemoryCooldownZeroValue(t *testing.T) {
	store := NewMemoryCooldown()

	last, err := store.Last(context.Background())
	require.NoError(t, err)
	assert.True(t, last.IsZero(), "no signs yet must read as zero time")
}
