package services

import (
	"context"
	"log/slog"
	"sync"

	apperrors "github.com/bicep-tools/modrestore/internal/application/errors"
	"github.com/bicep-tools/modrestore/internal/application/ports"
	"github.com/bicep-tools/modrestore/internal/domain/values"
)

// QueueItem is one enqueued restore request (§4.10).
type QueueItem struct {
	CompilationManager ports.CompilationManager
	DocumentURI        string
	References         []values.ModuleReference
}

type notifyTarget struct {
	compilationManager ports.CompilationManager
	documentURI        string
}

// ModuleRestoreScheduler is the long-running producer/consumer queue of
// §4.10: editor sessions enqueue restore requests, a single consumer
// drains and coalesces them, invokes the dispatcher once per drain cycle,
// and notifies affected documents on completion.
type ModuleRestoreScheduler struct {
	dispatcher *ModuleDispatcher
	logger     *slog.Logger

	mu       sync.Mutex
	queue    []QueueItem
	disposed bool

	// wake is a manual-reset event: a buffered channel of capacity 1.
	// Enqueue sets it (non-blocking send) while holding mu; the consumer
	// clears it at the end of a drain, also while holding mu, so no
	// enqueue between drain and clear is ever lost (§3 invariants, §9).
	wake chan struct{}

	cancel context.CancelFunc
	runCtx context.Context
	done   chan struct{}
}

// NewModuleRestoreScheduler constructs a scheduler over dispatcher. Call
// Start once before RequestRestore is useful.
func NewModuleRestoreScheduler(dispatcher *ModuleDispatcher, logger *slog.Logger) *ModuleRestoreScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModuleRestoreScheduler{
		dispatcher: dispatcher,
		logger:     logger,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Start spawns the single consumer goroutine. Starting a scheduler twice
// is a programmer error (§4.10); the scheduler does not guard against it.
func (s *ModuleRestoreScheduler) Start() {
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	go s.consume()
}

// RequestRestore enqueues one restore request and wakes the consumer.
// Returns immediately. Fails with *apperrors.AlreadyDisposedError if the
// scheduler has been disposed (§4.10).
func (s *ModuleRestoreScheduler) RequestRestore(cm ports.CompilationManager, documentURI string, refs []values.ModuleReference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return &apperrors.AlreadyDisposedError{}
	}

	s.queue = append(s.queue, QueueItem{
		CompilationManager: cm,
		DocumentURI:        documentURI,
		References:         refs,
	})
	s.setWakeLocked()
	return nil
}

// setWakeLocked sets the wake flag. Callers must hold mu.
func (s *ModuleRestoreScheduler) setWakeLocked() {
	select {
	case s.wake <- struct{}{}:
	default:
		// already set
	}
}

// Dispose signals cancellation and awaits the consumer's termination.
// Subsequent RequestRestore calls fail (§4.10, §8 scenario 6).
func (s *ModuleRestoreScheduler) Dispose() error {
	s.mu.Lock()
	alreadyDisposed := s.disposed
	s.disposed = true
	s.mu.Unlock()

	if alreadyDisposed {
		return nil
	}

	s.cancel()
	<-s.done
	return nil
}

func (s *ModuleRestoreScheduler) consume() {
	defer close(s.done)

	for {
		select {
		case <-s.runCtx.Done():
			return
		case <-s.wake:
		}

		refs, targets := s.drain()
		if len(refs) == 0 && len(targets) == 0 {
			continue
		}

		select {
		case <-s.runCtx.Done():
			return
		default:
		}

		// Dispatch on a detached context: once a drain cycle starts
		// work, cancellation terminates the consumer between steps but
		// never interrupts I/O already under way (§4.10, §8 scenario 6).
		didWork, err := s.dispatcher.Restore(context.Background(), refs)
		if err != nil {
			s.logger.Debug("dispatcher restore failed", "error", err)
			continue
		}
		if !didWork {
			continue
		}

		select {
		case <-s.runCtx.Done():
			return
		default:
		}

		for _, target := range targets {
			if err := target.compilationManager.Refresh(context.Background(), target.documentURI); err != nil {
				s.logger.Debug("refresh notification failed", "document", target.documentURI, "error", err)
			}
		}
	}
}

// drain empties the queue, flattening references in enqueue order and
// deduplicating notification targets by (compilation manager, document
// uri) (§3 invariants, §4.10, §8 scenario 5).
func (s *ModuleRestoreScheduler) drain() ([]values.ModuleReference, map[notifyKey]notifyTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	targets := make(map[notifyKey]notifyTarget)
	var refs []values.ModuleReference

	for _, item := range s.queue {
		key := notifyKey{compilationManager: item.CompilationManager, documentURI: item.DocumentURI}
		targets[key] = notifyTarget{compilationManager: item.CompilationManager, documentURI: item.DocumentURI}
		refs = append(refs, item.References...)
	}
	s.queue = s.queue[:0]

	select {
	case <-s.wake:
	default:
	}

	return refs, targets
}

type notifyKey struct {
	compilationManager ports.CompilationManager
	documentURI        string
}
