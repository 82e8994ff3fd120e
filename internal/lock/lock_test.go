package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(ctx, "cart-1")
			require.NoError(t, err)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.Len())
}

func TestKeyedMutex_DifferentKeysDoNotBlock(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctxB, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctxB, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_ContextCancelWhileWaiting(t *testing.T) {
	k := NewKeyedMutex()

	unlock, err := k.Lock(context.Background(), "cart-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "cart-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // 二回呼んでも安全
	assert.Equal(t, 0, k.Len())
}

type storeMock struct{ mock.Mock }

func (m *storeMock) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *storeMock) CompareAndDelete(ctx context.Context, key, owner string) (bool, error) {
	args := m.Called(ctx, key, owner)
	return args.Bool(0), args.Error(1)
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	store := new(storeMock)
	l, err := NewRedisLocker(store, time.Second)
	require.NoError(t, err)

	var owner string
	store.On("SetNX", mock.Anything, keyPrefix+"cart-1", mock.AnythingOfType("string"), time.Second).
		Run(func(args mock.Arguments) { owner = args.String(2) }).
		Return(true, nil).Once()

	unlock, err := l.Lock(context.Background(), "cart-1")
	require.NoError(t, err)

	store.On("CompareAndDelete", mock.Anything, keyPrefix+"cart-1", owner).Return(true, nil).Once()
	unlock()

	store.AssertExpectations(t)
}

func TestRedisLocker_RetriesUntilFree(t *testing.T) {
	store := new(storeMock)
	l, err := NewRedisLocker(store, time.Second)
	require.NoError(t, err)
	l.retryWait = time.Millisecond

	store.On("SetNX", mock.Anything, keyPrefix+"cart-1", mock.Anything, time.Second).Return(false, nil).Twice()
	store.On("SetNX", mock.Anything, keyPrefix+"cart-1", mock.Anything, time.Second).Return(true, nil).Once()

	_, err = l.Lock(context.Background(), "cart-1")
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "SetNX", 3)
}

func TestRedisLocker_ReleasePassesOwnOwnerToken(t *testing.T) {
	store := new(storeMock)
	l, err := NewRedisLocker(store, time.Second)
	require.NoError(t, err)

	var owners []string
	store.On("SetNX", mock.Anything, keyPrefix+"cart-1", mock.AnythingOfType("string"), time.Second).
		Run(func(args mock.Arguments) { owners = append(owners, args.String(2)) }).
		Return(true, nil).Twice()

	first, err := l.Lock(context.Background(), "cart-1")
	require.NoError(t, err)
	second, err := l.Lock(context.Background(), "cart-1")
	require.NoError(t, err)
	require.Len(t, owners, 2)
	require.NotEqual(t, owners[0], owners[1])

	// TTL切れ後に別プロセスが取得したケース: 比較と削除はサーバー側で一度に行う
	store.On("CompareAndDelete", mock.Anything, keyPrefix+"cart-1", owners[0]).Return(false, nil).Once()
	first()
	store.On("CompareAndDelete", mock.Anything, keyPrefix+"cart-1", owners[1]).Return(true, nil).Once()
	second()

	store.AssertExpectations(t)
	store.AssertNumberOfCalls(t, "CompareAndDelete", 2)
}

func TestRedisLocker_ReleaseError(t *testing.T) {
	store := new(storeMock)
	l, err := NewRedisLocker(store, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, l.ttl)

	store.On("CompareAndDelete", mock.Anything, "k", "owner").Return(false, errors.New("conn reset")).Once()
	assert.ErrorContains(t, l.release(context.Background(), "k", "owner"), "release lock")
}

func TestRedisLocker_ContextDone(t *testing.T) {
	store := new(storeMock)
	l, err := NewRedisLocker(store, time.Second)
	require.NoError(t, err)
	l.retryWait = 5 * time.Millisecond

	store.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "cart-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRedisLocker_RequiresClient(t *testing.T) {
	_, err := NewRedisLocker(nil, time.Second)
	assert.Error(t, err)
}
