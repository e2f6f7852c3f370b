package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	block bool
	calls atomic.Int32
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls.Add(1)
	p.mu.Lock()
	err, block := p.err, p.block
	p.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

type transitions struct {
	mu  sync.Mutex
	got []bool
}

func (tr *transitions) record(online bool) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.got = append(tr.got, online)
}

func (tr *transitions) list() []bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]bool(nil), tr.got...)
}

func TestMonitor_ProbeFlipsOnlyOnChange(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, logging.Nop(), time.Hour, time.Second)
	tr := &transitions{}
	m.OnTransition(tr.record)

	assert.False(t, m.IsOnline(), "starts offline")

	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.IsOnline())

	p.set(errors.New("connection refused"))
	assert.False(t, m.Probe(context.Background()))
	assert.False(t, m.IsOnline())

	assert.Equal(t, []bool{true, false}, tr.list())
}

func TestMonitor_ProbeTimeoutCountsAsOffline(t *testing.T) {
	p := &fakePinger{block: true}
	m := NewMonitor(p, logging.Nop(), time.Hour, 20*time.Millisecond)
	m.online.Store(true)

	start := time.Now()
	assert.False(t, m.Probe(context.Background()))
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, m.IsOnline())
}

func TestMonitor_LinkDownAndReportFailure(t *testing.T) {
	m := NewMonitor(&fakePinger{}, logging.Nop(), time.Hour, time.Second)
	tr := &transitions{}
	m.OnTransition(tr.record)

	m.Probe(context.Background())
	m.LinkDown()
	assert.False(t, m.IsOnline())

	m.Probe(context.Background())
	m.ReportFailure()
	assert.False(t, m.IsOnline())

	assert.Equal(t, []bool{true, false, true, false}, tr.list())
}

func TestMonitor_RunProbesAndHonorsLinkUp(t *testing.T) {
	p := &fakePinger{err: errors.New("down")}
	m := NewMonitor(p, logging.Nop(), time.Hour, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// initial probe
	eventually(t, func() bool { return p.calls.Load() == 1 })
	assert.False(t, m.IsOnline())

	// link up alone does not mean online, the probe decides
	p.set(nil)
	m.LinkUp()
	eventually(t, func() bool { return m.IsOnline() })
	assert.EqualValues(t, 2, p.calls.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMonitor_RunTicks(t *testing.T) {
	p := &fakePinger{}
	m := NewMonitor(p, logging.Nop(), 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	eventually(t, func() bool { return p.calls.Load() >= 3 })
}

func TestMonitor_LinkUpDoesNotBlock(t *testing.T) {
	m := NewMonitor(&fakePinger{}, logging.Nop(), time.Hour, time.Second)
	// nobody is running the loop; repeated signals must coalesce
	for i := 0; i < 10; i++ {
		m.LinkUp()
	}
	assert.False(t, m.IsOnline())
}
