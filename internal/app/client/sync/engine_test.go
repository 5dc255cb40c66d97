package sync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postercart/internal/app/client/cart"
	"postercart/internal/app/client/gateway"
)

const waitFor = 2 * time.Second

type engineFixture struct {
	store *cart.Store
	gw    *fakeGateway
	clock *fakeClock
	e     *Engine
}

func newEngineFixture(t *testing.T, online bool) *engineFixture {
	t.Helper()

	f := &engineFixture{
		store: newCartStore(),
		gw:    newFakeGateway(),
		clock: newFakeClock(),
	}
	f.e = NewEngine(f.store, f.gw, discardLogger(), Config{
		Interval: 30 * time.Second,
		Clock:    f.clock,
		Metrics:  NewMetrics(prometheus.NewRegistry()),
		Online:   online,
	})
	t.Cleanup(f.e.Close)
	return f
}

func TestNextState(t *testing.T) {
	tests := []struct {
		name          string
		authenticated bool
		online        bool
		prev          State
		want          State
	}{
		{"logout", false, true, StateSyncing, StateGuest},
		{"guest offline", false, false, StateGuest, StateGuest},
		{"login while offline", true, false, StateGuest, StateOffline},
		{"connection lost", true, false, StateSyncing, StateOffline},
		{"reconnect", true, true, StateOffline, StateReconnecting},
		{"still reconnecting", true, true, StateReconnecting, StateReconnecting},
		{"login online", true, true, StateGuest, StateSyncing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextState(tt.authenticated, tt.online, tt.prev))
		})
	}
}

func TestEngine_GuestNeverSyncs(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.AddItem(product("productA"), 1)
	f.store.AddItem(product("productB"), 2)

	f.clock.Tick(time.Minute)

	assert.Equal(t, OutcomeSkippedGuest, f.e.TriggerSync())
	assert.Zero(t, f.clock.created(), "periodic timer never armed for a guest")
	assert.Zero(t, f.gw.count("FetchActive"))

	st := f.e.Status()
	assert.Equal(t, StateGuest, st.State)
	assert.False(t, st.IsAuthenticated)
	assert.False(t, st.HasPendingChanges)

	assert.ErrorIs(t, f.e.ForceSync(context.Background()), ErrNotAuthenticated)
}

func TestEngine_ForceSyncOffline(t *testing.T) {
	f := newEngineFixture(t, false)
	f.e.SetIdentity(alice)

	assert.Equal(t, StateOffline, f.e.Status().State)
	assert.ErrorIs(t, f.e.ForceSync(context.Background()), ErrOffline)
	assert.Equal(t, OutcomeSkippedOffline, f.e.TriggerSync())
	assert.Zero(t, f.clock.created())
}

func TestEngine_MergeMaxWins(t *testing.T) {
	tests := []struct {
		name       string
		local      int
		server     int
		want       int
		wantUpdate int
	}{
		{name: "server higher", local: 3, server: 5, want: 5, wantUpdate: 0},
		{name: "local higher", local: 7, server: 5, want: 7, wantUpdate: 1},
		{name: "equal", local: 4, server: 4, want: 4, wantUpdate: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, true)
			f.gw.seedCart(alice.UserID, gateway.ServerItem{ProductID: "X", VariantID: DefaultVariantID, Title: "Poster X", Quantity: tt.server})
			f.store.AddItem(product("X"), tt.local)
			f.e.SetIdentity(alice)

			assert.Equal(t, OutcomeSynced, f.e.TriggerSync())

			assert.Equal(t, tt.want, f.store.QuantityOf("X"))
			assert.Equal(t, tt.want, f.gw.serverQuantity(alice.UserID, "X"))
			assert.Equal(t, tt.wantUpdate, f.gw.count("UpdateQuantity"))
			assert.Zero(t, f.gw.count("AddItem"))
			assert.False(t, f.store.HasPendingChanges())

			st := f.e.Status()
			assert.Equal(t, f.clock.Now(), st.LastSynced)
			assert.NoError(t, st.LastError)
		})
	}
}

func TestEngine_ServerOnlyAdoption(t *testing.T) {
	f := newEngineFixture(t, true)
	c := f.gw.seedCart(alice.UserID, gateway.ServerItem{
		ProductID:    "Y",
		VariantID:    DefaultVariantID,
		Title:        "Poster Y",
		Price:        "15.00",
		CurrencyCode: "EUR",
		ImageURL:     "https://img.example/y.jpg",
		Quantity:     3,
	})
	f.e.SetIdentity(alice)

	require.NoError(t, f.e.ForceSync(context.Background()))

	items := f.store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "server-"+c.Items[0].ID, items[0].ID)
	assert.True(t, strings.HasPrefix(items[0].ID, "server-"))
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Poster Y", items[0].Product.Title)
	assert.Equal(t, cart.Money{Amount: "15.00", CurrencyCode: "EUR"}, items[0].Product.Price)
	assert.Equal(t, "https://img.example/y.jpg", items[0].Product.ImageURL)
	assert.Empty(t, items[0].Product.VariantID)
	assert.False(t, items[0].PendingSync)
}

func TestEngine_LocalOnlyPushed(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID)
	f.store.AddItem(product("Z"), 2)
	f.e.SetIdentity(alice)

	assert.Equal(t, OutcomeSynced, f.e.TriggerSync())

	assert.Equal(t, 2, f.gw.serverQuantity(alice.UserID, "Z"))
	items := f.store.Items()
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ServerItemID)
	assert.Equal(t, 1, f.gw.count("Touch"))
}

func TestEngine_CreatesMissingServerCart(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)

	require.NoError(t, f.e.ForceSync(context.Background()))

	assert.Equal(t, 1, f.gw.count("Create"))
	assert.Equal(t, 1, f.gw.serverQuantity(alice.UserID, "A"))
	assert.NotEmpty(t, f.store.Items()[0].ServerItemID)
	assert.False(t, f.store.HasPendingChanges())
}

func TestEngine_SkipsWithoutPendingChanges(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID, gateway.ServerItem{ProductID: "Y", Quantity: 1})
	f.e.SetIdentity(alice)

	assert.Equal(t, OutcomeSkippedClean, f.e.TriggerSync())
	assert.Zero(t, f.gw.count("FetchActive"))
	assert.Empty(t, f.store.Items(), "background pass does not adopt without local changes")
}

func TestEngine_NoConcurrentReconciliation(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID)
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)

	started, release := f.gw.blockFetch()
	defer release()

	first := make(chan Outcome, 1)
	go func() { first <- f.e.TriggerSync() }()

	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("first pass did not start")
	}

	assert.Equal(t, OutcomeSkippedInFlight, f.e.TriggerSync())
	assert.Equal(t, 1, f.gw.count("FetchActive"))

	release()
	assert.Equal(t, OutcomeSynced, <-first)
	assert.Equal(t, 1, f.gw.count("FetchActive"))
}

func TestEngine_FailureLeavesPending(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)
	f.gw.setFailure(gateway.ErrUnavailable)

	assert.Equal(t, OutcomeFailed, f.e.TriggerSync())

	st := f.e.Status()
	assert.True(t, st.HasPendingChanges)
	assert.ErrorIs(t, st.LastError, gateway.ErrUnavailable)
	assert.True(t, st.LastSynced.IsZero())

	err := f.e.ForceSync(context.Background())
	assert.ErrorIs(t, err, gateway.ErrUnavailable)

	f.gw.setFailure(nil)
	require.NoError(t, f.e.ForceSync(context.Background()))
	assert.False(t, f.e.Status().HasPendingChanges)
	assert.NoError(t, f.e.Status().LastError)
}

func TestEngine_DiscardsResultAfterLogout(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID, gateway.ServerItem{ProductID: "Y", Quantity: 2})
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)

	started, release := f.gw.blockFetch()
	defer release()

	done := make(chan Outcome, 1)
	go func() { done <- f.e.TriggerSync() }()
	<-started

	f.e.ClearIdentity()
	release()

	assert.Equal(t, OutcomeDiscarded, <-done)
	assert.False(t, f.store.Contains("Y"), "stale result is not applied")
	assert.True(t, f.store.HasPendingChanges())
	assert.Equal(t, StateGuest, f.e.Status().State)
}

func TestEngine_TimerSingleton(t *testing.T) {
	f := newEngineFixture(t, true)

	f.e.SetIdentity(alice)
	f.e.SetIdentity(alice)
	f.e.SetOnline(true)
	assert.Equal(t, 1, f.clock.created())
	assert.Equal(t, 1, f.clock.active())
	assert.Equal(t, StateSyncing, f.e.Status().State)

	f.e.ClearIdentity()
	assert.Zero(t, f.clock.active())
	assert.Equal(t, StateGuest, f.e.Status().State)

	f.e.SetIdentity(alice)
	assert.Equal(t, 2, f.clock.created(), "stop clears the handle so start can re-arm")
	assert.Equal(t, 1, f.clock.active())
}

func TestEngine_PeriodicTick(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID)
	f.e.SetIdentity(alice)
	f.store.AddItem(product("A"), 4)

	f.clock.Tick(30 * time.Second)

	require.Eventually(t, func() bool {
		return f.gw.serverQuantity(alice.UserID, "A") == 4 && !f.store.HasPendingChanges()
	}, waitFor, 10*time.Millisecond)
}

func TestEngine_OfflineEditThenReconnect(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID, gateway.ServerItem{ProductID: "productA", VariantID: DefaultVariantID, Title: "Poster productA", Quantity: 3})
	f.e.SetIdentity(alice)
	require.NoError(t, f.e.ForceSync(context.Background()))
	require.Equal(t, 3, f.store.QuantityOf("productA"))

	f.e.SetOnline(false)
	assert.Equal(t, StateOffline, f.e.Status().State)
	assert.Zero(t, f.clock.active(), "timer suspended while offline")

	line := f.store.Items()[0]
	f.store.UpdateQuantity(line.ID, 5)
	assert.True(t, f.e.Status().HasPendingChanges)

	f.clock.Tick(time.Minute)
	assert.Equal(t, 3, f.gw.serverQuantity(alice.UserID, "productA"))

	fetches := f.gw.count("FetchActive")
	f.e.SetOnline(true)

	require.Eventually(t, func() bool {
		return f.e.Status().State == StateSyncing
	}, waitFor, 10*time.Millisecond)

	assert.Equal(t, fetches+1, f.gw.count("FetchActive"), "exactly one immediate pass on reconnect")
	assert.Equal(t, 5, f.gw.serverQuantity(alice.UserID, "productA"))
	assert.False(t, f.store.HasPendingChanges())
	assert.Equal(t, 1, f.clock.active(), "timer resumes after the reconnect pass")
}

func TestEngine_RemovalsReachServer(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.AddItem(product("A"), 1)
	f.store.AddItem(product("B"), 1)
	f.e.SetIdentity(alice)
	require.NoError(t, f.e.ForceSync(context.Background()))

	f.store.RemoveItem(f.store.Items()[0].ID)
	assert.Equal(t, OutcomeSynced, f.e.TriggerSync())

	assert.Equal(t, 1, f.gw.count("RemoveItem"))
	assert.Zero(t, f.gw.serverQuantity(alice.UserID, "A"))
	assert.False(t, f.store.Contains("A"), "removed product is not adopted back")
	assert.False(t, f.store.HasPendingChanges())

	f.store.Clear()
	assert.Equal(t, OutcomeSynced, f.e.TriggerSync())
	assert.Equal(t, 1, f.gw.count("Clear"))
	assert.Empty(t, f.gw.serverItems(alice.UserID))
	assert.Empty(t, f.store.Items())
	assert.False(t, f.store.HasPendingChanges())
}

func TestEngine_RemovalOfAlreadyDeletedItem(t *testing.T) {
	f := newEngineFixture(t, true)
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)
	require.NoError(t, f.e.ForceSync(context.Background()))

	serverID := f.store.Items()[0].ServerItemID
	require.NoError(t, f.gw.RemoveItem(context.Background(), alice, serverID))

	f.store.RemoveItem(f.store.Items()[0].ID)
	assert.Equal(t, OutcomeSynced, f.e.TriggerSync())
	assert.False(t, f.store.HasPendingChanges())
}

func TestEngine_RemovalDuringPassNotResurrected(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID)
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)

	started, release := f.gw.blockFetch()
	defer release()

	done := make(chan Outcome, 1)
	go func() { done <- f.e.TriggerSync() }()

	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("pass did not start")
	}

	// проход уже взял снимок с A и отправит ее на сервер
	f.store.RemoveItem(f.store.Items()[0].ID)
	release()
	require.Equal(t, OutcomeSynced, <-done)
	assert.False(t, f.store.Contains("A"))
	assert.True(t, f.store.HasPendingChanges(), "server copy of A still has to be deleted")

	f.store.AddItem(product("B"), 1)
	assert.Equal(t, OutcomeSynced, f.e.TriggerSync())

	assert.False(t, f.store.Contains("A"), "removed product is not adopted back")
	assert.Zero(t, f.gw.serverQuantity(alice.UserID, "A"))
	assert.Equal(t, 1, f.gw.serverQuantity(alice.UserID, "B"))
	assert.False(t, f.store.HasPendingChanges())
}

func TestEngine_ClearDuringPassNotResurrected(t *testing.T) {
	f := newEngineFixture(t, true)
	f.gw.seedCart(alice.UserID)
	f.store.AddItem(product("A"), 1)
	f.store.AddItem(product("B"), 2)
	f.e.SetIdentity(alice)

	started, release := f.gw.blockFetch()
	defer release()

	done := make(chan Outcome, 1)
	go func() { done <- f.e.TriggerSync() }()

	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("pass did not start")
	}

	f.store.Clear()
	release()
	require.Equal(t, OutcomeSynced, <-done)
	assert.Empty(t, f.store.Items())

	f.store.AddItem(product("C"), 1)
	assert.Equal(t, OutcomeSynced, f.e.TriggerSync())

	items := f.store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "C", items[0].Product.ID)
	assert.Zero(t, f.gw.serverQuantity(alice.UserID, "A"))
	assert.Zero(t, f.gw.serverQuantity(alice.UserID, "B"))
	assert.Equal(t, 1, f.gw.serverQuantity(alice.UserID, "C"))
}

func TestEngine_IdentityRefreshWhileReconnecting(t *testing.T) {
	f := newEngineFixture(t, false)
	f.gw.seedCart(alice.UserID)
	f.store.AddItem(product("A"), 1)
	f.e.SetIdentity(alice)
	require.Equal(t, StateOffline, f.e.Status().State)

	started, release := f.gw.blockFetch()
	defer release()

	f.e.SetOnline(true)
	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("reconnect pass did not start")
	}
	assert.Equal(t, StateReconnecting, f.e.Status().State)

	f.e.SetIdentity(gateway.Identity{UserID: alice.UserID, Token: "refreshed"})
	release()

	require.Eventually(t, func() bool {
		return f.e.Status().State == StateSyncing && f.clock.active() == 1
	}, waitFor, 10*time.Millisecond)

	// отброшенный проход догоняет таймер
	require.Eventually(t, func() bool {
		f.clock.Tick(30 * time.Second)
		return f.gw.serverQuantity(alice.UserID, "A") == 1
	}, waitFor, 10*time.Millisecond)
}

func TestEngine_EmptyCartDoesNotCreateServerCart(t *testing.T) {
	f := newEngineFixture(t, true)
	f.e.SetIdentity(alice)

	require.NoError(t, f.e.ForceSync(context.Background()))

	assert.Zero(t, f.gw.count("Create"))
	_, err := f.gw.FetchActive(context.Background(), alice)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	assert.False(t, f.e.Status().LastSynced.IsZero())
}
