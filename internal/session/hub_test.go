package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"resumegen/internal/metrics"
	"resumegen/internal/models"
)

type frameCapture struct {
	mu     sync.Mutex
	frames []models.WSFrame
}

func newFrameCapture() *frameCapture { return &frameCapture{} }

func (c *frameCapture) hook(frame models.WSFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}

func (c *frameCapture) ofType(frameType string) []models.WSFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.WSFrame
	for _, f := range c.frames {
		if f.Type == frameType {
			out = append(out, f)
		}
	}
	return out
}

// waitFor polls until at least want frames of the type arrived. Delivery runs
// on per-client writer goroutines, so captures are not instantaneous.
func (c *frameCapture) waitFor(t *testing.T, frameType string, want int) []models.WSFrame {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := c.ofType(frameType)
		if len(got) >= want {
			return got
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d %q frames, have %v", want, frameType, got)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// expectNone lets in-flight deliveries settle, then fails on any stray frame.
func (c *frameCapture) expectNone(t *testing.T, frameType string) {
	t.Helper()
	time.Sleep(100 * time.Millisecond)
	if got := c.ofType(frameType); len(got) != 0 {
		t.Fatalf("unexpected %q frames: %v", frameType, got)
	}
}

func newTestHub() *Hub { return NewHub(zap.NewNop()) }

func connect(t *testing.T, h *Hub, id, userID, userName string) (*Client, *frameCapture) {
	t.Helper()
	c := NewClient(id, userID, userName, nil)
	capture := newFrameCapture()
	c.SetSendHook(capture.hook)
	if err := h.Connect(c); err != nil {
		t.Fatalf("connect %s: %v", id, err)
	}
	return c, capture
}

func TestHubConnectDuplicateIDRejected(t *testing.T) {
	hub := newTestHub()
	connect(t, hub, "conn-1", "user-1", "Alice")

	dup := NewClient("conn-1", "user-2", "Bob", nil)
	if err := hub.Connect(dup); !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("expected ErrDuplicateConnection, got %v", err)
	}
}

func TestHubJoinRequiresIdentity(t *testing.T) {
	hub := newTestHub()
	connect(t, hub, "conn-1", "", "")

	if err := hub.Join("conn-1", "doc-1"); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
	if err := hub.UpdateContent("conn-1", "doc-1", "x", "summary"); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
}

func TestHubOperationsFromUnknownConnectionRejected(t *testing.T) {
	hub := newTestHub()
	if err := hub.Join("ghost", "doc-1"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := hub.SetTyping("ghost", "doc-1", "summary", true); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestHubUpdateContentReachesOnlyOtherMembers(t *testing.T) {
	hub := newTestHub()
	_, capA := connect(t, hub, "conn-a", "user-a", "Alice")
	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")

	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	before := time.Now().UTC()
	if err := hub.UpdateContent("conn-a", "doc-1", "Hello", "summary"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := capB.waitFor(t, models.EventContentUpdated, 1)
	update, ok := got[0].Data.(models.ContentUpdated)
	if !ok {
		t.Fatalf("unexpected payload type %T", got[0].Data)
	}
	if update.Content != "Hello" || update.Section != "summary" || update.UpdatedBy != "user-a" {
		t.Fatalf("unexpected update: %#v", update)
	}
	if update.Timestamp.Before(before) {
		t.Fatalf("timestamp not server-stamped: %v", update.Timestamp)
	}
	capA.expectNone(t, models.EventContentUpdated)
}

func TestHubBroadcastSurvivesOneFailingRecipient(t *testing.T) {
	hub := newTestHub()
	sender, _ := connect(t, hub, "conn-s", "user-s", "Sam")

	broken := NewClient("conn-x", "user-x", "Xena", nil)
	broken.SetSendHook(func(models.WSFrame) error { return errors.New("write: broken pipe") })
	if err := hub.Connect(broken); err != nil {
		t.Fatalf("connect broken: %v", err)
	}

	_, capOK := connect(t, hub, "conn-y", "user-y", "Yuri")

	for _, id := range []string{sender.ID, "conn-x", "conn-y"} {
		if err := hub.Join(id, "doc-1"); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	if err := hub.UpdateContent(sender.ID, "doc-1", "payload", "summary"); err != nil {
		t.Fatalf("update: %v", err)
	}

	if got := capOK.waitFor(t, models.EventContentUpdated, 1); len(got) != 1 {
		t.Fatalf("healthy member lost delivery because another failed: %v", got)
	}
}

func TestHubStalledRecipientDoesNotBlockFanout(t *testing.T) {
	hub := newTestHub()
	sender, _ := connect(t, hub, "conn-s", "user-s", "Sam")

	// One member's writer wedges on its first frame and never recovers.
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	stalled := NewClient("conn-x", "user-x", "Xena", nil)
	stalled.SetSendHook(func(models.WSFrame) error { <-release; return nil })
	if err := hub.Connect(stalled); err != nil {
		t.Fatalf("connect stalled: %v", err)
	}

	_, capOK := connect(t, hub, "conn-y", "user-y", "Yuri")

	for _, id := range []string{sender.ID, "conn-x", "conn-y"} {
		if err := hub.Join(id, "doc-1"); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}

	// Enough updates to overflow the stalled member's queue. The fan-out and
	// the calling operation must stay responsive throughout.
	updates := sendQueueSize + 8
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < updates; i++ {
			if err := hub.UpdateContent(sender.ID, "doc-1", "payload", "summary"); err != nil {
				t.Errorf("update: %v", err)
				return
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("fan-out blocked behind a stalled recipient")
	}

	capOK.waitFor(t, models.EventContentUpdated, updates)

	// Group operations stay responsive while the stalled queue sits full.
	late, _ := connect(t, hub, "conn-z", "user-z", "Zoe")
	joinDone := make(chan error, 1)
	go func() { joinDone <- hub.Join(late.ID, "doc-1") }()
	select {
	case err := <-joinDone:
		if err != nil {
			t.Fatalf("join: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("join blocked behind a stalled recipient")
	}
}

func TestHubMembershipGaugeTracksRealChanges(t *testing.T) {
	hub := newTestHub()
	connect(t, hub, "conn-a", "user-a", "Alice")

	base := testutil.ToFloat64(metrics.GroupMembers)
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if got := testutil.ToFloat64(metrics.GroupMembers); got != base+1 {
		t.Fatalf("gauge after join = %v, want %v", got, base+1)
	}

	// Re-joining and leaving a group never joined must not move the gauge.
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("re-join: %v", err)
	}
	if err := hub.Leave("conn-a", "doc-2"); err != nil {
		t.Fatalf("leave unjoined: %v", err)
	}
	if got := testutil.ToFloat64(metrics.GroupMembers); got != base+1 {
		t.Fatalf("gauge drifted on no-op operations: %v, want %v", got, base+1)
	}

	if err := hub.Leave("conn-a", "doc-1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := testutil.ToFloat64(metrics.GroupMembers); got != base {
		t.Fatalf("gauge after leave = %v, want %v", got, base)
	}
}

func TestHubTypingIndicatorNotEchoedToOriginator(t *testing.T) {
	hub := newTestHub()
	_, capA := connect(t, hub, "conn-a", "user-a", "Alice")
	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	if err := hub.SetTyping("conn-a", "doc-1", "summary", true); err != nil {
		t.Fatalf("setTyping: %v", err)
	}

	got := capB.waitFor(t, models.EventTypingIndicator, 1)
	ind := got[0].Data.(models.TypingIndicator)
	if !ind.IsTyping || ind.UserID != "user-a" || ind.UserName != "Alice" || ind.Section != "summary" {
		t.Fatalf("unexpected indicator: %#v", ind)
	}
	capA.expectNone(t, models.EventTypingIndicator)
}

func TestHubJoinSendsTypingSnapshotToJoiner(t *testing.T) {
	hub := newTestHub()
	connect(t, hub, "conn-a", "user-a", "Alice")
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.SetTyping("conn-a", "doc-1", "summary", true); err != nil {
		t.Fatalf("setTyping: %v", err)
	}

	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	got := capB.waitFor(t, models.EventTypingIndicator, 1)
	ind := got[0].Data.(models.TypingIndicator)
	if !ind.IsTyping || ind.UserID != "user-a" {
		t.Fatalf("unexpected snapshot: %#v", ind)
	}
}

func TestHubPresenceScopedToGroup(t *testing.T) {
	hub := newTestHub()
	_, capA := connect(t, hub, "conn-a", "user-a", "Alice")
	_, capC := connect(t, hub, "conn-c", "user-c", "Cara")
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join("conn-c", "doc-2"); err != nil {
		t.Fatalf("join c: %v", err)
	}

	if err := hub.Join("conn-b-less", "doc-1"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected rejection for unknown connection, got %v", err)
	}

	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	capA.waitFor(t, models.EventUserConnected, 1)
	capC.expectNone(t, models.EventUserConnected)
	capB.expectNone(t, models.EventUserConnected)
}

func TestHubRejoinNotReannounced(t *testing.T) {
	hub := newTestHub()
	_, capA := connect(t, hub, "conn-a", "user-a", "Alice")
	connect(t, hub, "conn-b", "user-b", "Bob")
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}
	capA.waitFor(t, models.EventUserConnected, 1)

	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("re-join b: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := capA.ofType(models.EventUserConnected); len(got) != 1 {
		t.Fatalf("idempotent re-join must not re-announce, got %v", got)
	}
}

func TestHubDisconnectPurgesEverything(t *testing.T) {
	hub := newTestHub()
	connect(t, hub, "conn-a", "user-a", "Alice")
	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")
	for _, doc := range []string{"doc-1", "doc-2"} {
		if err := hub.Join("conn-a", doc); err != nil {
			t.Fatalf("join %s: %v", doc, err)
		}
	}
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}
	if err := hub.SetTyping("conn-a", "doc-1", "summary", true); err != nil {
		t.Fatalf("setTyping: %v", err)
	}
	capB.waitFor(t, models.EventTypingIndicator, 1)

	hub.Disconnect("conn-a")

	for _, doc := range []string{"doc-1", "doc-2"} {
		for _, id := range hub.groups.MembersOf(doc) {
			if id == "conn-a" {
				t.Fatalf("conn-a still member of %s after disconnect", doc)
			}
		}
	}
	if _, ok := hub.registry.Lookup("conn-a"); ok {
		t.Fatalf("lookup must be absent after disconnect")
	}
	if active := hub.typing.Active("doc-1"); len(active) != 0 {
		t.Fatalf("typing state must be cleared on disconnect, got %v", active)
	}

	// Remaining member observes the typing clear and the departure.
	clears := capB.waitFor(t, models.EventTypingIndicator, 2)
	var sawClear bool
	for _, f := range clears {
		if ind := f.Data.(models.TypingIndicator); !ind.IsTyping && ind.UserID == "user-a" {
			sawClear = true
		}
	}
	if !sawClear {
		t.Fatalf("expected typing cleared broadcast, got %v", clears)
	}
	capB.waitFor(t, models.EventUserDisconnected, 1)

	// Disconnect is idempotent: nothing announced twice.
	hub.Disconnect("conn-a")
	time.Sleep(100 * time.Millisecond)
	if got := capB.ofType(models.EventUserDisconnected); len(got) != 1 {
		t.Fatalf("expected one userDisconnected, got %v", got)
	}
}

func TestHubSweepClearsIdleTypingForGroup(t *testing.T) {
	hub := newTestHub()
	connect(t, hub, "conn-a", "user-a", "Alice")
	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	base := time.Now()
	hub.typing.now = func() time.Time { return base }
	if err := hub.SetTyping("conn-a", "doc-1", "summary", true); err != nil {
		t.Fatalf("setTyping: %v", err)
	}
	capB.waitFor(t, models.EventTypingIndicator, 1)

	// Simulate the originator vanishing mid-type without a clean disconnect:
	// membership and registry entries gone, typing record left behind.
	hub.groups.RemoveEverywhere("conn-a")
	hub.registry.Unregister("conn-a")

	hub.typing.now = func() time.Time { return base.Add(10 * time.Second) }
	hub.sweepTyping(8 * time.Second)

	got := capB.waitFor(t, models.EventTypingIndicator, 2)
	var cleared bool
	for _, f := range got {
		if ind := f.Data.(models.TypingIndicator); !ind.IsTyping && ind.UserID == "user-a" && ind.Section == "summary" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected idle typing state cleared for remaining members, got %v", got)
	}
	if active := hub.typing.Active("doc-1"); len(active) != 0 {
		t.Fatalf("typing table must be empty after sweep, got %v", active)
	}
}

func TestHubBroadcastSkipsUnregisteredMember(t *testing.T) {
	hub := newTestHub()
	sender, _ := connect(t, hub, "conn-a", "user-a", "Alice")
	_, capB := connect(t, hub, "conn-b", "user-b", "Bob")
	if err := hub.Join("conn-a", "doc-1"); err != nil {
		t.Fatalf("join a: %v", err)
	}
	if err := hub.Join("conn-b", "doc-1"); err != nil {
		t.Fatalf("join b: %v", err)
	}

	// Membership transiently outlives the registry entry during a disconnect
	// race; the dispatcher must treat the registry as the source of truth.
	hub.groups.Join("doc-1", "conn-dead")

	if err := hub.UpdateContent(sender.ID, "doc-1", "x", "summary"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := capB.waitFor(t, models.EventContentUpdated, 1); len(got) != 1 {
		t.Fatalf("live member should still receive the update, got %v", got)
	}
}
