package txmgr

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewKeyedMutex verifies basic construction.
func TestNewKeyedMutex(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()
	require.NotNil(t, km)
	assert.Equal(t, 0, km.Len())
}

// TestKeyedMutex_SameKeySameHandle verifies that concurrent first
// lookups of a key converge on a single semaphore.
func TestKeyedMutex_SameKeySameHandle(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	const workers = 32
	handles := make([]chan struct{}, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = km.lookup("0xabc")
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, handles[0], handles[i])
	}
	assert.Equal(t, 1, km.Len())
}

// TestKeyedMutex_MutualExclusion verifies that only one holder of a
// key proceeds at a time.
func TestKeyedMutex_MutualExclusion(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	const workers = 50
	var inCritical, maxInCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := km.Lock("acct")
			defer release()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

// TestKeyedMutex_IndependentKeys verifies that different keys do not
// block each other.
func TestKeyedMutex_IndependentKeys(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	releaseA := km.Lock("a")
	defer releaseA()

	done := make(chan struct{})
	go func() {
		release := km.Lock("b")
		release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on independent key blocked")
	}
}

// TestKeyedMutex_ReleaseIdempotent verifies that calling release more
// than once does not free the lock a second time.
func TestKeyedMutex_ReleaseIdempotent(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	release := km.Lock("k")
	release()
	release() // no-op

	// The lock must be acquirable exactly once after the double release.
	release2 := km.Lock("k")
	defer release2()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := km.LockContext(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// TestKeyedMutex_LockContextCancelled verifies that a cancelled
// context frees a blocked waiter without acquiring the lock.
func TestKeyedMutex_LockContextCancelled(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	release := km.Lock("busy")
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := km.LockContext(ctx, "busy")
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not observe cancellation")
	}
}

// TestKeyedMutex_KeysNeverRemoved verifies that the registry retains
// keys after release.
func TestKeyedMutex_KeysNeverRemoved(t *testing.T) {
	t.Parallel()
	km := NewKeyedMutex()

	for _, key := range []string{"a", "b", GlobalKey} {
		release := km.Lock(key)
		release()
	}
	assert.Equal(t, 3, km.Len())
}
