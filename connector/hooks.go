package connector

import (
	"context"
	"time"

	"github.com/textkernel/neo4j-connector-go/protocol"
)

// HookContext carries information about one HTTP round trip. It is passed
// to hooks for inspection and for passing metadata between Before/After.
type HookContext struct {
	// TraceID is the unique identifier for this round trip
	TraceID string

	// ChunkIndex is the zero-based index of the chunk within the run
	ChunkIndex int

	// StatementOffset is the index of the chunk's first statement relative
	// to the whole input list
	StatementOffset int

	// StatementCount is the number of statements in the chunk
	StatementCount int

	// Fingerprints are the statement fingerprints for the chunk
	Fingerprints []uint64

	// StartTime is when the round trip began
	StartTime time.Time

	// Metadata allows hooks to store arbitrary data between Before/After
	Metadata map[string]interface{}

	// Result is the decoded response (set after execution, available in After)
	Result *protocol.Response

	// Error is any error that occurred (available in After)
	Error error

	// Duration is the round-trip time (available in After)
	Duration time.Duration
}

// Hook observes or aborts HTTP round trips.
type Hook interface {
	// Name returns the unique name of this hook
	Name() string

	// Before is called before the round trip. Returning an error aborts
	// the run and surfaces the error to the caller.
	Before(ctx context.Context, hookCtx *HookContext) error

	// After is called after the round trip, even when it failed.
	// Returning an error replaces any existing error.
	After(ctx context.Context, hookCtx *HookContext) error
}

// hookEntry wraps a Hook with its registration order for stable iteration.
type hookEntry struct {
	hook  Hook
	order int
}

// RegisterHook adds a hook to the connector's hook chain. Hooks run in
// FIFO registration order. A hook with an existing name replaces it.
func (c *Connector) RegisterHook(hook Hook) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()

	for i, entry := range c.hooks {
		if entry.hook.Name() == hook.Name() {
			c.hooks[i].hook = hook
			c.logger.Info("hook replaced", String("hook", hook.Name()))
			return
		}
	}

	order := len(c.hooks)
	c.hooks = append(c.hooks, hookEntry{hook: hook, order: order})
	c.logger.Info("hook registered", String("hook", hook.Name()), Int("order", order))
}

// UnregisterHook removes a hook by name. Returns true if it was found.
func (c *Connector) UnregisterHook(name string) bool {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()

	for i, entry := range c.hooks {
		if entry.hook.Name() == name {
			c.hooks = append(c.hooks[:i], c.hooks[i+1:]...)
			c.logger.Info("hook unregistered", String("hook", name))
			return true
		}
	}

	return false
}

func (c *Connector) snapshotHooks() []hookEntry {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()

	hooks := make([]hookEntry, len(c.hooks))
	copy(hooks, c.hooks)
	return hooks
}

// executeBeforeHooks runs Before hooks in order, aborting on first error.
func (c *Connector) executeBeforeHooks(ctx context.Context, hookCtx *HookContext) error {
	for _, entry := range c.snapshotHooks() {
		if err := entry.hook.Before(ctx, hookCtx); err != nil {
			c.logger.Warn("before hook aborted request",
				String("hook", entry.hook.Name()),
				String("trace_id", hookCtx.TraceID),
				Error("error", err))
			return err
		}
	}
	return nil
}

// executeAfterHooks runs every After hook; the last returned error wins.
func (c *Connector) executeAfterHooks(ctx context.Context, hookCtx *HookContext) error {
	var hookErr error
	for _, entry := range c.snapshotHooks() {
		if err := entry.hook.After(ctx, hookCtx); err != nil {
			c.logger.Warn("after hook returned error",
				String("hook", entry.hook.Name()),
				String("trace_id", hookCtx.TraceID),
				Error("error", err))
			hookErr = err
		}
	}
	return hookErr
}
