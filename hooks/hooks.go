package hooks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/youssefsiam38/inlinesummary/compaction"
	"github.com/youssefsiam38/inlinesummary/types"
)

// Level is the severity of a Notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a user-facing diagnostic, such as an aborted operation
// or a failed config restore.
type Notification struct {
	ConversationID uuid.UUID
	Operation      compaction.Operation
	Level          Level
	Message        string
	Err            error
}

// BeforeOperationHook is called after the operation lock is taken and before
// anything is mutated. Returning an error aborts the operation.
type BeforeOperationHook func(ctx context.Context, conversationID uuid.UUID, op compaction.Operation) error

// AfterOperationHook is called after an operation has completed
type AfterOperationHook func(ctx context.Context, event *compaction.Event) error

// SelectionChangedHook is called synchronously on every selection change
type SelectionChangedHook func(conversationID uuid.UUID, sel types.Selection)

// NotifyHook receives diagnostic notifications
type NotifyHook func(ctx context.Context, n Notification)

// Registry holds all registered hooks
type Registry struct {
	mu               sync.RWMutex
	beforeOperation  []BeforeOperationHook
	afterOperation   []AfterOperationHook
	selectionChanged []SelectionChangedHook
	notify           []NotifyHook
}

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{
		beforeOperation:  []BeforeOperationHook{},
		afterOperation:   []AfterOperationHook{},
		selectionChanged: []SelectionChangedHook{},
		notify:           []NotifyHook{},
	}
}

// OnBeforeOperation registers a hook to be called before an operation mutates anything
func (r *Registry) OnBeforeOperation(hook BeforeOperationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeOperation = append(r.beforeOperation, hook)
}

// OnAfterOperation registers a hook to be called after an operation completes
func (r *Registry) OnAfterOperation(hook AfterOperationHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterOperation = append(r.afterOperation, hook)
}

// OnSelectionChanged registers a hook to be called on selection changes
func (r *Registry) OnSelectionChanged(hook SelectionChangedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectionChanged = append(r.selectionChanged, hook)
}

// OnNotify registers a hook to receive notifications
func (r *Registry) OnNotify(hook NotifyHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = append(r.notify, hook)
}

// TriggerBeforeOperation calls all registered before-operation hooks,
// stopping at the first error
func (r *Registry) TriggerBeforeOperation(ctx context.Context, conversationID uuid.UUID, op compaction.Operation) error {
	r.mu.RLock()
	hooks := make([]BeforeOperationHook, len(r.beforeOperation))
	copy(hooks, r.beforeOperation)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, conversationID, op); err != nil {
			return err
		}
	}
	return nil
}

// TriggerAfterOperation calls all registered after-operation hooks
func (r *Registry) TriggerAfterOperation(ctx context.Context, event *compaction.Event) error {
	r.mu.RLock()
	hooks := make([]AfterOperationHook, len(r.afterOperation))
	copy(hooks, r.afterOperation)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// TriggerSelectionChanged calls all registered selection hooks
func (r *Registry) TriggerSelectionChanged(conversationID uuid.UUID, sel types.Selection) {
	r.mu.RLock()
	hooks := make([]SelectionChangedHook, len(r.selectionChanged))
	copy(hooks, r.selectionChanged)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(conversationID, sel.Copy())
	}
}

// TriggerNotify delivers n to all registered notify hooks
func (r *Registry) TriggerNotify(ctx context.Context, n Notification) {
	r.mu.RLock()
	hooks := make([]NotifyHook, len(r.notify))
	copy(hooks, r.notify)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, n)
	}
}
