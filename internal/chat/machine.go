// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the session state machine: optimistic sends,
// throttled streaming merges, error folding, and session lifecycle.
package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/textra-ai/textra/internal/gateway"
	"github.com/textra-ai/textra/internal/model"
	"github.com/textra-ai/textra/internal/store"
)

// streamFlushInterval bounds how often streamed deltas become visible.
// PERFORMANCE: One visible update per interval keeps rendering cheap while
// the accumulator preserves every delta.
const streamFlushInterval = 40 * time.Millisecond

// Errors reported by Send before any message is appended.
var (
	// ErrEmptyMessage is returned when the trimmed text is empty and no
	// image is attached.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrBusy is returned when any session has a send in flight. One
	// stream at a time keeps at most one streaming message in the whole
	// collection.
	ErrBusy = errors.New("a response is already being generated")

	// ErrSessionNotFound is returned for operations on unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// Persister stores and retrieves the full session list. *store.Store
// satisfies it; tests substitute fakes.
type Persister interface {
	SaveSessions(sessions []*model.ChatSession) error
	LoadSessions() ([]*model.ChatSession, error)
}

// Machine owns the session list and drives sends against a gateway client.
// All exported methods are safe for concurrent use.
//
// Every visible mutation ends with a persist and an onChange notification,
// so observers only ever need to re-read snapshots.
type Machine struct {
	mu       sync.Mutex
	client   gateway.Client
	store    Persister
	modelID  string
	system   string
	sessions []*model.ChatSession
	current  string

	// gen carries a per-session generation token. Bumping it orphans any
	// in-flight stream so late deltas cannot resurrect cleared content.
	gen      map[string]uint64
	inflight map[string]bool

	onChange func()
}

// New creates a machine bound to a client and a persister. Call Load before
// first use.
func New(client gateway.Client, store Persister, modelID, system string) *Machine {
	return &Machine{
		client:   client,
		store:    store,
		modelID:  modelID,
		system:   system,
		gen:      make(map[string]uint64),
		inflight: make(map[string]bool),
	}
}

// SetOnChange registers a callback invoked after every visible mutation. It
// runs outside the machine lock.
func (m *Machine) SetOnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Model returns the model identifier used for sends.
func (m *Machine) Model() string {
	return m.modelID
}

// =============================================================================
// BOOTSTRAP
// =============================================================================

// Load restores persisted sessions. When the store is empty or unreadable the
// machine starts with one fresh session; a corrupt file is left on disk
// untouched. The first stored session becomes current.
func (m *Machine) Load() {
	sessions, err := m.store.LoadSessions()
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("session load failed, starting fresh: %v", err)
	}

	m.mu.Lock()
	if err == nil && len(sessions) > 0 {
		m.sessions = sessions
		m.current = sessions[0].ID
	} else {
		fresh := model.NewChatSession()
		m.sessions = []*model.ChatSession{fresh}
		m.current = fresh.ID
	}
	m.mu.Unlock()
	m.notify()
}

// =============================================================================
// SENDING
// =============================================================================

// Send appends the user message and a streaming placeholder to the current
// session, then blocks while the response streams in. Provider failures are
// folded into the transcript as a terminal error message and do not surface
// as a Send error; only pre-flight rejections (empty message, a send already
// in flight anywhere) do.
//
// When imageData is present the prompt goes through the one-shot
// image-conditioned path instead of the streaming one.
func (m *Machine) Send(ctx context.Context, text string, imageData []byte, mimeType string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" && len(imageData) == 0 {
		return ErrEmptyMessage
	}

	m.mu.Lock()
	sess := m.findLocked(m.current)
	if sess == nil {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if len(m.inflight) > 0 {
		m.mu.Unlock()
		return ErrBusy
	}
	m.inflight[sess.ID] = true
	m.gen[sess.ID]++
	token := m.gen[sess.ID]
	sessionID := sess.ID

	sess.DeriveTitle(trimmed)

	// History is snapshotted before the optimistic append and excludes
	// anything still streaming or failed.
	history := historyOf(sess)

	var image string
	if len(imageData) > 0 {
		image = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(imageData)
	}
	sess.Append(model.NewUserMessage(trimmed, image))
	placeholder := model.NewPlaceholder()
	sess.Append(placeholder)
	placeholderID := placeholder.ID

	m.persistLocked()
	m.mu.Unlock()
	m.notify()

	if len(imageData) > 0 {
		m.sendImage(ctx, sessionID, placeholderID, token, trimmed, imageData, mimeType)
	} else {
		m.stream(ctx, sessionID, placeholderID, token, gateway.NewConversation(m.modelID, m.system, history), trimmed)
	}

	m.mu.Lock()
	delete(m.inflight, sessionID)
	m.persistLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

// stream drives the streaming path: deltas accumulate in full, but visible
// merges are throttled. The final content always lands regardless of the
// throttle.
func (m *Machine) stream(ctx context.Context, sessionID, messageID string, token uint64, conv *gateway.Conversation, text string) {
	var acc strings.Builder
	limiter := rate.NewLimiter(rate.Every(streamFlushInterval), 1)

	err := m.client.StreamCompletion(ctx, conv, text, func(delta string) {
		acc.WriteString(delta)
		if limiter.Allow() {
			m.applyMerge(sessionID, messageID, token, acc.String())
		}
	})
	if err != nil {
		m.applyFailure(sessionID, messageID, token, gateway.Classify(err, conv.Model))
		return
	}
	m.applyComplete(sessionID, messageID, token, acc.String(), "")
}

// sendImage drives the one-shot image-conditioned path.
func (m *Machine) sendImage(ctx context.Context, sessionID, messageID string, token uint64, prompt string, imageData []byte, mimeType string) {
	result, err := m.client.GenerateFromImage(ctx, prompt, imageData, mimeType)
	if err != nil {
		m.applyFailure(sessionID, messageID, token, gateway.Classify(err, m.modelID))
		return
	}
	m.applyComplete(sessionID, messageID, token, result.Text, result.Image)
}

// applyMerge folds accumulated content into the placeholder. Merges carrying
// a stale generation token are discarded.
func (m *Machine) applyMerge(sessionID, messageID string, token uint64, content string) {
	m.mu.Lock()
	msg := m.liveMessageLocked(sessionID, messageID, token)
	if msg != nil {
		msg.MergeStreaming(content)
	}
	m.mu.Unlock()
	if msg != nil {
		m.notify()
	}
}

// applyComplete closes the placeholder with its final content.
func (m *Machine) applyComplete(sessionID, messageID string, token uint64, content, image string) {
	m.mu.Lock()
	msg := m.liveMessageLocked(sessionID, messageID, token)
	if msg != nil {
		if image != "" {
			msg.CompleteWithImage(content, image)
		} else {
			msg.CompleteWith(content)
		}
		m.persistLocked()
	}
	m.mu.Unlock()
	if msg != nil {
		m.notify()
	}
}

// applyFailure replaces the placeholder with a terminal error message.
func (m *Machine) applyFailure(sessionID, messageID string, token uint64, text string) {
	m.mu.Lock()
	replaced := false
	if m.gen[sessionID] == token {
		if sess := m.findLocked(sessionID); sess != nil {
			replaced = sess.ReplaceMessage(messageID, model.NewErrorMessage(text))
			if replaced {
				m.persistLocked()
			}
		}
	}
	m.mu.Unlock()
	if replaced {
		m.notify()
	}
}

// liveMessageLocked resolves a placeholder if its generation token is still
// current. Returns nil for stale tokens, deleted sessions, or messages that
// have already reached a terminal state elsewhere.
func (m *Machine) liveMessageLocked(sessionID, messageID string, token uint64) *model.Message {
	if m.gen[sessionID] != token {
		return nil
	}
	sess := m.findLocked(sessionID)
	if sess == nil {
		return nil
	}
	for _, msg := range sess.Messages {
		if msg.ID == messageID {
			return msg
		}
	}
	return nil
}

// historyOf converts completed messages into gateway history. Streaming
// placeholders and failed messages never reach the provider.
func historyOf(sess *model.ChatSession) []gateway.HistoryMessage {
	history := make([]gateway.HistoryMessage, 0, len(sess.Messages))
	for _, msg := range sess.Messages {
		if msg.State != model.StateComplete {
			continue
		}
		history = append(history, gateway.HistoryMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return history
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// NewSession creates an empty session, makes it current, and returns its ID.
// New sessions go to the front of the list.
func (m *Machine) NewSession() string {
	sess := model.NewChatSession()

	m.mu.Lock()
	m.sessions = append([]*model.ChatSession{sess}, m.sessions...)
	m.current = sess.ID
	m.persistLocked()
	m.mu.Unlock()
	m.notify()
	return sess.ID
}

// SwitchSession makes the identified session current.
func (m *Machine) SwitchSession(id string) error {
	m.mu.Lock()
	if m.findLocked(id) == nil {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	m.current = id
	m.mu.Unlock()
	m.notify()
	return nil
}

// DeleteSession removes a session. Deleting the current session promotes the
// next remaining one; deleting the only session leaves a fresh empty session
// current. Any in-flight stream for the deleted session is orphaned.
func (m *Machine) DeleteSession(id string) error {
	m.mu.Lock()
	idx := -1
	for i, s := range m.sessions {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return ErrSessionNotFound
	}

	m.sessions = append(m.sessions[:idx], m.sessions[idx+1:]...)
	delete(m.gen, id)

	if m.current == id {
		if len(m.sessions) == 0 {
			fresh := model.NewChatSession()
			m.sessions = []*model.ChatSession{fresh}
			m.current = fresh.ID
		} else {
			next := idx
			if next >= len(m.sessions) {
				next = len(m.sessions) - 1
			}
			m.current = m.sessions[next].ID
		}
	}

	m.persistLocked()
	m.mu.Unlock()
	m.notify()
	return nil
}

// ClearMessages empties the current session and orphans any in-flight stream
// so late deltas cannot repopulate it.
func (m *Machine) ClearMessages() {
	m.mu.Lock()
	sess := m.findLocked(m.current)
	if sess == nil {
		m.mu.Unlock()
		return
	}
	sess.Clear()
	m.gen[sess.ID]++
	m.persistLocked()
	m.mu.Unlock()
	m.notify()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Current returns a deep copy of the current session.
func (m *Machine) Current() *model.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess := m.findLocked(m.current); sess != nil {
		return sess.Clone()
	}
	return nil
}

// CurrentID returns the current session's ID.
func (m *Machine) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Sessions returns deep copies of all sessions in list order.
func (m *Machine) Sessions() []*model.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ChatSession, len(m.sessions))
	for i, s := range m.sessions {
		out[i] = s.Clone()
	}
	return out
}

// Search returns deep copies of sessions whose title or content matches the
// query. An empty query matches everything.
func (m *Machine) Search(query string) []*model.ChatSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ChatSession
	for _, s := range m.sessions {
		if s.Matches(query) {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Busy reports whether any session has a send in flight.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inflight) > 0
}

// =============================================================================
// INTERNAL
// =============================================================================

func (m *Machine) findLocked(id string) *model.ChatSession {
	for _, s := range m.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// persistLocked saves the session list. Persistence is best effort; the
// in-memory state is authoritative for the running process.
func (m *Machine) persistLocked() {
	if err := m.store.SaveSessions(m.sessions); err != nil {
		log.Printf("session save failed: %v", err)
	}
}

func (m *Machine) notify() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}
