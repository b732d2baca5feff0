package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// Events emitted to the desktop app about approvals.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

var (
	ErrRejected        = errors.New("action rejected by user")
	ErrApprovalTimeout = errors.New("approval timed out")
)

// PendingAction represents a destructive operation awaiting user approval.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON with the section and block ids
}

// ApprovalQueue holds destructive tool calls until the user approves them.
// Inside the desktop app it waits on a channel resolved by Approve/Reject.
// A standalone MCP process has no UI, so it writes the request to the shared
// database and polls until the desktop app resolves it.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool

	emitter service.EventEmitter
	timeout time.Duration
	poll    time.Duration
	store   *storage.ApprovalStore
	log     *zap.Logger
}

func NewApprovalQueue(emitter service.EventEmitter, timeout time.Duration, log *zap.Logger) *ApprovalQueue {
	if emitter == nil {
		emitter = service.NopEmitter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		emitter: emitter,
		timeout: timeout,
		poll:    500 * time.Millisecond,
		log:     log,
	}
}

// UseStore switches the queue to database mode.
func (q *ApprovalQueue) UseStore(store *storage.ApprovalStore) {
	q.store = store
}

// Request blocks until the action is approved, rejected, timed out or ctx is
// done. A nil error means approved. metadata is encoded to JSON.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, metadata any) error {
	meta := "{}"
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode approval metadata: %w", err)
		}
		meta = string(data)
	}
	action := PendingAction{
		ID:          uuid.NewString(),
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    meta,
	}

	q.log.Info("Waiting for approval", zap.String("tool", tool), zap.String("id", action.ID))
	if q.store != nil {
		return q.requestViaStore(ctx, action)
	}
	return q.requestViaChannel(ctx, action)
}

func (q *ApprovalQueue) requestViaStore(ctx context.Context, action PendingAction) error {
	err := q.store.Insert(storage.Approval{
		ID:          action.ID,
		Tool:        action.Tool,
		Description: action.Description,
		Metadata:    action.Metadata,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := q.store.Delete(action.ID); err != nil {
			q.log.Warn("Unable to delete approval", zap.String("id", action.ID), zap.Error(err))
		}
	}()

	timeout := time.NewTimer(q.timeout)
	defer timeout.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.Status(action.ID)
			if err != nil {
				continue
			}
			switch status {
			case storage.ApprovalApproved:
				return nil
			case storage.ApprovalRejected:
				return fmt.Errorf("%s: %w", action.Tool, ErrRejected)
			}
		case <-timeout.C:
			return fmt.Errorf("%s after %s: %w", action.Tool, q.timeout, ErrApprovalTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(ctx context.Context, action PendingAction) error {
	ch := make(chan bool, 1)
	q.mu.Lock()
	q.pending[action.ID] = ch
	q.mu.Unlock()
	defer q.cleanup(action.ID)

	q.emitter.Emit(ctx, EventApprovalRequired, action)

	timeout := time.NewTimer(q.timeout)
	defer timeout.Stop()

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("%s: %w", action.Tool, ErrRejected)
		}
		return nil
	case <-timeout.C:
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": action.ID})
		return fmt.Errorf("%s after %s: %w", action.Tool, q.timeout, ErrApprovalTimeout)
	case <-ctx.Done():
		q.emitter.Emit(context.WithoutCancel(ctx), EventApprovalDismissed, map[string]string{"id": action.ID})
		return ctx.Err()
	}
}

// Approve resolves a pending in-process action. It reports whether the id
// was waiting.
func (q *ApprovalQueue) Approve(actionID string) bool {
	return q.resolve(actionID, true)
}

// Reject is Approve with a negative answer.
func (q *ApprovalQueue) Reject(actionID string) bool {
	return q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) bool {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	if ok {
		delete(q.pending, actionID)
	}
	q.mu.Unlock()
	if ok {
		ch <- approved
	}
	return ok
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
