package host

import (
	"golang.org/x/net/html"

	"requote/dom"
	"requote/inject"
	"requote/rules"
)

// Event types the host dispatches.
const (
	EventClick     = "click"
	EventKeydown   = "keydown"
	EventPointerUp = "pointerup"
)

// Event is one dispatched host event. Listeners in the capture phase
// may cancel it, suppressing the host's native action.
type Event struct {
	Type      string
	Target    *html.Node
	Key       string // for keydown
	Shift     bool
	cancelled bool
}

// PreventDefault cancels the host's native action for this event.
func (e *Event) PreventDefault() { e.cancelled = true }

// Cancelled reports whether a listener cancelled the event.
func (e *Event) Cancelled() bool { return e.cancelled }

type listener struct {
	typ     string
	capture bool
	fn      func(*Event)
}

// Host wraps a rendered document with the event plumbing the controller
// needs: capture-phase interception, native send behaviour, mutation
// observation, selection state and a user-notice hook.
type Host struct {
	doc     *html.Node
	profile *rules.Profile
	loop    *Loop

	location  string
	listeners []listener
	mutations []func(removed *html.Node)
	noticeFn  func(msg string)

	selection *dom.Range
	caret     *dom.Boundary

	// Sent records every message the native send action delivered, in
	// order. The input surface is cleared on each send.
	Sent []string
}

// New wraps a parsed document. The profile supplies all selector
// patterns; the loop carries every deferral.
func New(doc *html.Node, profile *rules.Profile, loop *Loop) *Host {
	return &Host{doc: doc, profile: profile, loop: loop}
}

func (h *Host) Document() *html.Node    { return h.doc }
func (h *Host) Profile() *rules.Profile { return h.profile }
func (h *Host) Loop() *Loop             { return h.loop }

// Location returns the current location URL.
func (h *Host) Location() string { return h.location }

// Navigate changes the location. Observers are not told directly; the
// controller discovers the change by polling.
func (h *Host) Navigate(url string) { h.location = url }

// SetNoticeFunc installs the hook surfacing user-visible notices.
func (h *Host) SetNoticeFunc(fn func(msg string)) { h.noticeFn = fn }

// Notice surfaces a user-visible message.
func (h *Host) Notice(msg string) {
	if h.noticeFn != nil {
		h.noticeFn(msg)
	}
}

// AddListener registers an event listener. Capture listeners run before
// the native action and may cancel it; they run in registration order.
func (h *Host) AddListener(typ string, capture bool, fn func(*Event)) {
	h.listeners = append(h.listeners, listener{typ: typ, capture: capture, fn: fn})
}

// Dispatch runs an event through the capture phase, then the bubble
// listeners, then the native action unless cancelled.
func (h *Host) Dispatch(e *Event) {
	for _, l := range h.listeners {
		if l.capture && l.typ == e.Type {
			l.fn(e)
		}
	}
	for _, l := range h.listeners {
		if !l.capture && l.typ == e.Type {
			l.fn(e)
		}
	}
	if !e.cancelled {
		h.nativeAction(e)
	}
}

// Click dispatches a click event on target.
func (h *Host) Click(target *html.Node) {
	h.Dispatch(&Event{Type: EventClick, Target: target})
}

// Keydown dispatches a key event on target.
func (h *Host) Keydown(target *html.Node, key string, shift bool) {
	h.Dispatch(&Event{Type: EventKeydown, Target: target, Key: key, Shift: shift})
}

// PointerUp dispatches a pointer-release event, the trigger for
// selection handling.
func (h *Host) PointerUp(target *html.Node) {
	h.Dispatch(&Event{Type: EventPointerUp, Target: target})
}

// nativeAction performs what the host itself would do with an
// uncancelled event: send on a send-control click, send on an unshifted
// Enter inside the input surface.
func (h *Host) nativeAction(e *Event) {
	switch e.Type {
	case EventClick:
		if h.isSendControl(e.Target) {
			h.performSend()
		}
	case EventKeydown:
		if e.Key == "Enter" && !e.Shift && h.isInsideInput(e.Target) {
			h.performSend()
		}
	}
}

func (h *Host) isSendControl(n *html.Node) bool {
	send := h.profile.FindSendControl(h.doc)
	if send == nil {
		return false
	}
	return dom.Closest(n, func(a *html.Node) bool { return a == send }) != nil
}

func (h *Host) isInsideInput(n *html.Node) bool {
	in := h.profile.FindInput(h.doc)
	if in == nil {
		return false
	}
	return dom.Closest(n, func(a *html.Node) bool { return a == in }) != nil
}

// performSend is the host's native send: read the input surface,
// record the message, clear the surface.
func (h *Host) performSend() {
	in := h.profile.FindInput(h.doc)
	s := inject.Detect(in)
	if s == nil {
		return
	}
	h.Sent = append(h.Sent, s.Value())
	s.Apply("", nil)
}

// Selection state. The host's selection machinery owns the range; the
// controller only reads and clears it.

func (h *Host) SetSelection(r dom.Range) { h.selection = &r }
func (h *Host) Selection() *dom.Range    { return h.selection }
func (h *Host) ClearSelection()          { h.selection = nil }

// Caret returns the position set by the last injection.
func (h *Host) Caret() *dom.Boundary { return h.caret }

// Notify implements inject.Notifier: synthetic input/change events are
// dispatched like any other event.
func (h *Host) Notify(event string, target *html.Node) {
	h.Dispatch(&Event{Type: event, Target: target})
}

// SetCaret implements inject.Notifier.
func (h *Host) SetCaret(b dom.Boundary) { h.caret = &b }

// ObserveMutations registers a callback for subtree removals.
func (h *Host) ObserveMutations(fn func(removed *html.Node)) {
	h.mutations = append(h.mutations, fn)
}

// RemoveSubtree detaches n from the document and reports the removal to
// observers, the way a framework tears down a conversation view.
func (h *Host) RemoveSubtree(n *html.Node) {
	dom.Detach(n)
	for _, fn := range h.mutations {
		fn(n)
	}
}
