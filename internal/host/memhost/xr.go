package memhost

import (
	crand "crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/banshee-data/lesson.view/internal/host"
)

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// state changes are dropped for it.
const subscriberBuffer = 16

// randomID generates a random subscription ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

// XR is a simulated XR session. Enter and Exit step through the transitional
// states and notify subscribers of each one.
type XR struct {
	mu          sync.Mutex
	state       host.XRState
	subscribers map[string]chan host.XRState
	hits        *HitTests
}

// NewXR creates a session in the NotInXR state.
func NewXR() *XR {
	return &XR{
		subscribers: make(map[string]chan host.XRState),
		hits:        NewHitTests(),
	}
}

func (x *XR) State() host.XRState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

func (x *XR) Subscribe() (string, <-chan host.XRState) {
	id := randomID()
	ch := make(chan host.XRState, subscriberBuffer)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (x *XR) Unsubscribe(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if ch, ok := x.subscribers[id]; ok {
		close(ch)
		delete(x.subscribers, id)
	}
}

func (x *XR) Enter() error {
	x.set(host.EnteringXR)
	x.set(host.InXR)
	return nil
}

func (x *XR) Exit() error {
	x.set(host.ExitingXR)
	x.set(host.NotInXR)
	return nil
}

func (x *XR) HitTests() host.HitTestSource { return x.hits }

// Hits exposes the concrete hit-test source for publishing in tests.
func (x *XR) Hits() *HitTests { return x.hits }

// Close closes every subscriber channel.
func (x *XR) Close() {
	x.mu.Lock()
	defer x.mu.Unlock()
	for id, ch := range x.subscribers {
		close(ch)
		delete(x.subscribers, id)
	}
}

func (x *XR) set(s host.XRState) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.state = s
	for _, ch := range x.subscribers {
		select {
		case ch <- s:
		default:
		}
	}
}

// HitTests fans out hit-test results to subscribers. Publishing never blocks;
// a subscriber that has not drained its previous result misses the new one,
// which is how a per-frame hit-test stream behaves.
type HitTests struct {
	mu          sync.Mutex
	subscribers map[string]chan []host.HitResult
}

// NewHitTests creates an empty hit-test source.
func NewHitTests() *HitTests {
	return &HitTests{subscribers: make(map[string]chan []host.HitResult)}
}

func (h *HitTests) Subscribe() (string, <-chan []host.HitResult) {
	id := randomID()
	ch := make(chan []host.HitResult, 1)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[id] = ch
	return id, ch
}

func (h *HitTests) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *HitTests) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Publish delivers results to every subscriber.
func (h *HitTests) Publish(results []host.HitResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- results:
		default:
		}
	}
}
