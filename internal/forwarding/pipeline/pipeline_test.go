package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aqslabs/forwarder/internal/core/amount"
	"github.com/aqslabs/forwarder/internal/core/cursor"
	"github.com/aqslabs/forwarder/internal/core/domain"
	"github.com/aqslabs/forwarder/internal/core/ledger"
	"github.com/aqslabs/forwarder/internal/forwarding/dispatch"
	"github.com/aqslabs/forwarder/internal/forwarding/filter"
	"github.com/aqslabs/forwarder/internal/forwarding/result"
)

const (
	distributor = "GDISTRIBUTOR"
	receiver    = "GRECEIVER"
)

type submission struct {
	destination string
	stroops     int64
	fee         int64
}

// streamGateway feeds scripted events into the handler, then blocks until
// cancellation. Submissions always succeed and are recorded.
type streamGateway struct {
	events    []domain.PaymentEvent
	streamErr error // returned by the first StreamPayments call, after events

	mu          sync.Mutex
	submissions []submission
	streams     int
	cursors     []string
	delivered   chan struct{}
}

func newStreamGateway(events ...domain.PaymentEvent) *streamGateway {
	return &streamGateway{events: events, delivered: make(chan struct{})}
}

func (g *streamGateway) LoadAccount(_ context.Context, address string) (ledger.AccountState, error) {
	return fakeAccount(address), nil
}

func (g *streamGateway) BaseFee(context.Context) (int64, error) { return 100, nil }

func (g *streamGateway) Submit(
	_ context.Context,
	_ ledger.AccountState,
	destination string,
	amountStroops int64,
	feePerOp int64,
) (domain.SubmissionResult, error) {
	g.mu.Lock()
	g.submissions = append(g.submissions, submission{destination, amountStroops, feePerOp})
	g.mu.Unlock()
	return domain.SubmissionResult{Successful: true, TxHash: "hash"}, nil
}

func (g *streamGateway) StreamPayments(
	ctx context.Context,
	_ string,
	cur string,
	handler ledger.EventHandler,
) error {
	g.mu.Lock()
	g.streams++
	first := g.streams == 1
	g.cursors = append(g.cursors, cur)
	g.mu.Unlock()

	if !first {
		<-ctx.Done()
		return ctx.Err()
	}

	for _, ev := range g.events {
		handler(ctx, ev)
	}
	close(g.delivered)
	if g.streamErr != nil {
		return g.streamErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (g *streamGateway) submitted() []submission {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]submission(nil), g.submissions...)
}

type fakeAccount string

func (a fakeAccount) AccountID() string { return string(a) }

type memStore struct {
	mu    sync.Mutex
	value string
}

func (s *memStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *memStore) Save(_ context.Context, cursor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = cursor
	return nil
}

func paymentEvent(from, to, xlm, token string) domain.PaymentEvent {
	return domain.PaymentEvent{
		Type:         domain.OpTypePayment,
		AssetType:    domain.AssetTypeNative,
		From:         from,
		To:           to,
		Amount:       xlm,
		PagingToken:  token,
		TxSuccessful: true,
	}
}

func newTestPipeline(t *testing.T, gw *streamGateway, store cursor.Store) *Pipeline {
	t.Helper()
	calc, err := amount.NewCalculator("0.25")
	if err != nil {
		t.Fatal(err)
	}
	results, err := result.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return New(Config{
		Account:    distributor,
		Receiver:   receiver,
		Gateway:    gw,
		Tracker:    cursor.NewTracker(store),
		Filter:     filter.New(filter.Config{Distributor: distributor}),
		Calculator: calc,
		Dispatcher: dispatch.New(dispatch.Config{
			Source:       distributor,
			TimeoutDelay: time.Millisecond,
			RetryDelay:   time.Millisecond,
		}, gw),
		Results:        results,
		ReconnectDelay: time.Millisecond,
	})
}

// run starts the pipeline, waits until the gateway has delivered its scripted
// events, then stops it and waits for Start to return.
func run(t *testing.T, p *Pipeline, gw *streamGateway) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	select {
	case <-gw.delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never delivered its events")
	}

	p.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}

func TestPipelineForwardsQualifyingPayment(t *testing.T) {
	gw := newStreamGateway(paymentEvent("GSENDER", distributor, "100", "900001"))
	store := &memStore{}
	p := newTestPipeline(t, gw, store)

	run(t, p, gw)

	subs := gw.submitted()
	if len(subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(subs))
	}
	if subs[0].destination != receiver {
		t.Errorf("destination = %q, want %q", subs[0].destination, receiver)
	}
	if subs[0].stroops != 250_000_000 {
		t.Errorf("stroops = %d, want 250000000 (a quarter of 100 XLM)", subs[0].stroops)
	}
	if store.value != "900001" {
		t.Errorf("persisted cursor = %q, want %q", store.value, "900001")
	}
}

func TestPipelineSkipsSelfPayment(t *testing.T) {
	gw := newStreamGateway(paymentEvent(distributor, distributor, "50", "900002"))
	store := &memStore{}
	p := newTestPipeline(t, gw, store)

	run(t, p, gw)

	if subs := gw.submitted(); len(subs) != 0 {
		t.Fatalf("got %d submissions, want 0 for self payment", len(subs))
	}
	// Position still moves past rejected events.
	if store.value != "900002" {
		t.Errorf("persisted cursor = %q, want %q", store.value, "900002")
	}
}

func TestPipelineSkipsZeroShare(t *testing.T) {
	gw := newStreamGateway(paymentEvent("GSENDER", distributor, "0.0000003", "900003"))
	p := newTestPipeline(t, gw, &memStore{})

	run(t, p, gw)

	if subs := gw.submitted(); len(subs) != 0 {
		t.Fatalf("got %d submissions, want 0 when the share truncates to zero", len(subs))
	}
}

func TestPipelineProcessesMixedStream(t *testing.T) {
	gw := newStreamGateway(
		paymentEvent("GSENDER", distributor, "4", "1001"),
		paymentEvent(distributor, "GELSEWHERE", "1", "1002"),
		paymentEvent("GOTHER", distributor, "8", "1003"),
	)
	store := &memStore{}
	p := newTestPipeline(t, gw, store)

	run(t, p, gw)

	subs := gw.submitted()
	if len(subs) != 2 {
		t.Fatalf("got %d submissions, want 2", len(subs))
	}
	if subs[0].stroops != 10_000_000 {
		t.Errorf("first forward = %d stroops, want 10000000", subs[0].stroops)
	}
	if subs[1].stroops != 20_000_000 {
		t.Errorf("second forward = %d stroops, want 20000000", subs[1].stroops)
	}
	if store.value != "1003" {
		t.Errorf("persisted cursor = %q, want the last paging token", store.value)
	}
}

func TestPipelineReconnectsFromCurrentCursor(t *testing.T) {
	gw := newStreamGateway(paymentEvent("GSENDER", distributor, "1", "777"))
	gw.streamErr = errors.New("stream reset")
	store := &memStore{}
	p := newTestPipeline(t, gw, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	select {
	case <-gw.delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never delivered its events")
	}

	// Wait for the second stream to open after the backoff.
	deadline := time.Now().Add(5 * time.Second)
	for {
		gw.mu.Lock()
		streams := gw.streams
		gw.mu.Unlock()
		if streams >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("stream never reconnected")
		}
		time.Sleep(time.Millisecond)
	}

	p.Stop()
	<-done

	gw.mu.Lock()
	cursors := append([]string(nil), gw.cursors...)
	gw.mu.Unlock()
	if len(cursors) < 2 {
		t.Fatalf("got %d stream opens, want at least 2", len(cursors))
	}
	if cursors[1] != "777" {
		t.Errorf("reconnect cursor = %q, want %q", cursors[1], "777")
	}
	if got := p.Status().Reconnects; got < 1 {
		t.Errorf("Reconnects = %d, want at least 1", got)
	}
}

func TestPipelineStartTwice(t *testing.T) {
	gw := newStreamGateway(paymentEvent("GSENDER", distributor, "1", "1"))
	p := newTestPipeline(t, gw, &memStore{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Start(ctx) }()

	select {
	case <-gw.delivered:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never delivered its events")
	}

	if err := p.Start(ctx); err == nil {
		t.Error("expected error starting an already-running pipeline")
	}

	p.Stop()
	<-done
}

func TestPipelineStatus(t *testing.T) {
	gw := newStreamGateway(paymentEvent("GSENDER", distributor, "2", "5"))
	p := newTestPipeline(t, gw, &memStore{})

	run(t, p, gw)

	st := p.Status()
	if st.Running {
		t.Error("Running = true after Stop")
	}
	if st.Cursor != "5" {
		t.Errorf("Cursor = %q, want %q", st.Cursor, "5")
	}
	if st.LastEventAt.IsZero() {
		t.Error("LastEventAt is zero after processing an event")
	}
}
