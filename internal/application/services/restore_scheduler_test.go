package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/bicep-tools/modrestore/internal/application/errors"
	"github.com/bicep-tools/modrestore/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCompilationManager struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingCompilationManager() *countingCompilationManager {
	return &countingCompilationManager{counts: make(map[string]int)}
}

func (c *countingCompilationManager) Refresh(ctx context.Context, documentURI string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[documentURI]++
	return nil
}

func (c *countingCompilationManager) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

func (c *countingCompilationManager) distinctDocuments() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

// slowRegistry blocks inside Restore until release is closed, simulating
// a pull that takes a while to complete.
type slowRegistry struct {
	release chan struct{}
	started chan struct{}
}

func newSlowRegistry() *slowRegistry {
	return &slowRegistry{release: make(chan struct{}), started: make(chan struct{}, 1)}
}

func (r *slowRegistry) SchemeMatches(ref values.ModuleReference) bool { return ref.IsLocal() }

func (r *slowRegistry) Restore(ctx context.Context, ref values.ModuleReference) error {
	select {
	case r.started <- struct{}{}:
	default:
	}
	<-r.release
	return nil
}

func (r *slowRegistry) LocalPath(ctx context.Context, ref values.ModuleReference) (string, error) {
	return ref.Path(), nil
}

func (r *slowRegistry) InCache(ctx context.Context, ref values.ModuleReference) (bool, error) {
	return false, nil
}

// §8 scenario 5: many restore requests for a handful of distinct
// documents coalesce: every document is notified, and requests queued
// within one drain cycle share one notification per document, so there
// are fewer notifications than requests.
func TestRestoreScheduler_CoalescesNotifications(t *testing.T) {
	registrySet := NewRegistrySet(newSlowRegistryReleased())
	dispatcher := NewModuleDispatcher(registrySet, false, nil)
	scheduler := NewModuleRestoreScheduler(dispatcher, nil)
	scheduler.Start()
	defer scheduler.Dispose()

	cm := newCountingCompilationManager()

	const documents = 6
	const requestsPerDocument = 20

	for i := 0; i < documents; i++ {
		uri := fmt.Sprintf("file:///doc%d.bicep", i)
		ref := values.NewLocalReference(fmt.Sprintf("./mod%d.bicep", i))
		for j := 0; j < requestsPerDocument; j++ {
			require.NoError(t, scheduler.RequestRestore(cm, uri, []values.ModuleReference{ref}))
		}
	}

	require.Eventually(t, func() bool {
		return cm.distinctDocuments() == documents
	}, 2*time.Second, 10*time.Millisecond)

	assert.Less(t, cm.total(), documents*requestsPerDocument, "coalescing must avoid one notification per request")
}

func newSlowRegistryReleased() *slowRegistry {
	r := newSlowRegistry()
	close(r.release)
	return r
}

// §8 scenario 6: Dispose awaits in-flight work before returning, and
// RequestRestore fails for every caller afterward.
func TestRestoreScheduler_DisposeAwaitsInFlightWork(t *testing.T) {
	slow := newSlowRegistry()
	registrySet := NewRegistrySet(slow)
	dispatcher := NewModuleDispatcher(registrySet, false, nil)
	scheduler := NewModuleRestoreScheduler(dispatcher, nil)
	scheduler.Start()

	cm := newCountingCompilationManager()
	ref := values.NewLocalReference("./slow.bicep")
	require.NoError(t, scheduler.RequestRestore(cm, "file:///slow.bicep", []values.ModuleReference{ref}))

	select {
	case <-slow.started:
	case <-time.After(2 * time.Second):
		t.Fatal("restore never started")
	}

	disposed := make(chan struct{})
	go func() {
		_ = scheduler.Dispose()
		close(disposed)
	}()

	select {
	case <-disposed:
		t.Fatal("Dispose returned before in-flight work finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(slow.release)

	select {
	case <-disposed:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispose never returned after in-flight work finished")
	}

	err := scheduler.RequestRestore(cm, "file:///other.bicep", nil)
	var alreadyDisposed *apperrors.AlreadyDisposedError
	require.ErrorAs(t, err, &alreadyDisposed)
}
