// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Concurrency tests for the session machine:
// - Snapshot reads racing an in-flight stream
// - Lifecycle operations racing an in-flight stream
// - Parallel sends across different sessions
package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/textra-ai/textra/internal/gateway"
)

func TestMachine_ConcurrentSnapshotsDuringStream(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &scriptedClient{
		streamFn: func(ctx context.Context, conv *gateway.Conversation, text string, fn gateway.StreamFunc) error {
			close(started)
			for i := 0; i < 500; i++ {
				fn("token ")
			}
			<-release
			return nil
		},
	}
	m, _ := newTestMachine(client)

	done := make(chan error, 1)
	go func() { done <- m.Send(context.Background(), "go", nil, "") }()
	<-started

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Current()
			_ = m.Sessions()
			_ = m.Search("token")
			_ = m.Busy()
		}()
	}
	wg.Wait()

	close(release)
	require.NoError(t, <-done)

	sess := m.Current()
	require.Equal(t, 2, sess.MessageCount())
	require.Len(t, sess.Last().Content, len("token ")*500)
}

func TestMachine_LifecycleRacingStream(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client := &scriptedClient{
		streamFn: func(ctx context.Context, conv *gateway.Conversation, text string, fn gateway.StreamFunc) error {
			close(started)
			<-release
			fn("late")
			return nil
		},
	}
	m, _ := newTestMachine(client)
	streamSessionID := m.CurrentID()

	done := make(chan error, 1)
	go func() { done <- m.Send(context.Background(), "go", nil, "") }()
	<-started

	// Create, switch, and delete other sessions while the stream is open.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := m.NewSession()
			_ = m.SwitchSession(id)
			_ = m.DeleteSession(id)
		}()
	}
	wg.Wait()

	close(release)
	require.NoError(t, <-done)

	// The streamed reply landed in its own session no matter where the
	// current pointer ended up.
	require.NoError(t, m.SwitchSession(streamSessionID))
	require.Equal(t, "late", m.Current().Last().Content)
}

func TestMachine_ParallelSendsAcrossSessions(t *testing.T) {
	client := &scriptedClient{
		streamFn: func(ctx context.Context, conv *gateway.Conversation, text string, fn gateway.StreamFunc) error {
			fn("reply to " + text)
			return nil
		},
	}
	m, _ := newTestMachine(client)

	// Only one send may be in flight across the collection, so run them
	// sequentially but interleave lifecycle churn.
	for i := 0; i < 5; i++ {
		m.NewSession()
		require.NoError(t, m.Send(context.Background(), "ping", nil, ""))
	}

	for _, sess := range m.Sessions() {
		if sess.MessageCount() == 0 {
			continue
		}
		require.Equal(t, "reply to ping", sess.Last().Content)
	}
}
