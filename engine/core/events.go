package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Screen resolution or full-screen mode changed.
	/* Context usage:
	 * width  = data.I32[0]
	 * height = data.I32[1]
	 * mode   = data.I32[2], -1 when the user resized the window
	 */
	EVENT_CODE_RESOLUTION_CHANGED SystemEventCode = 0x01

	// HDR output was switched on or off for a display.
	/* Context usage:
	 * display = data.I32[0]
	 * active  = data.Bool
	 */
	EVENT_CODE_HDR_MODE_CHANGED SystemEventCode = 0x02

	// Dynamic resolution scale factors changed.
	/* Context usage:
	 * width scale  = data.F32[0]
	 * height scale = data.F32[1]
	 */
	EVENT_CODE_SCALE_FACTOR_CHANGED SystemEventCode = 0x03

	// Configuration file reloaded from disk.
	/* Context usage:
	 * path = data.Path
	 */
	EVENT_CODE_CONFIG_RELOADED SystemEventCode = 0x04

	// A file under a watched asset directory was written, created or removed.
	/* Context usage:
	 * path    = data.Path, relative to the asset root
	 * kind    = data.I32[0]
	 * removed = data.Bool
	 */
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x05

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	I32  [4]int32
	F32  [4]float32
	Bool bool
	Path string
}

// Should return true if handled.
type FnOnEvent func(code SystemEventCode, sender interface{}, listener interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

var eventState = &eventSystemState{
	registered: make(map[SystemEventCode][]*registeredEvent),
}

/**
 * Register to listen for when events are sent with the provided code. A listener
 * can only be registered once per code; a duplicate returns false.
 */
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()

	for _, e := range eventState.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	eventState.registered[code] = append(eventState.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister removes the listener for code. Returns false if it was not registered.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	eventState.mutex.Lock()
	defer eventState.mutex.Unlock()

	events := eventState.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eventState.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 */
func EventFire(code SystemEventCode, sender interface{}, context EventContext) bool {
	eventState.mutex.RLock()
	events := make([]*registeredEvent, len(eventState.registered[code]))
	copy(events, eventState.registered[code])
	eventState.mutex.RUnlock()

	for _, e := range events {
		if e.callback(code, sender, e.listener, context) {
			return true
		}
	}
	return false
}
