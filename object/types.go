package object

import scriptbridge "github.com/wippyai/script-bridge"

// EventType identifies a registry lifecycle notification.
type EventType uint8

const (
	EventInserted EventType = iota
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventInserted:
		return "inserted"
	case EventRemoved:
		return "removed"
	}
	return "unknown"
}

// Event describes one registry change.
type Event struct {
	Value       any
	TypeName    string
	Handle      scriptbridge.Handle
	Counterpart scriptbridge.Counterpart
	Type        EventType
}

// Observer receives registry lifecycle events.
type Observer interface {
	OnObjectEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnObjectEvent(e Event) { f(e) }

// Releaser is optionally implemented by values that hold Go-side
// resources. Release runs when the entry leaves the registry.
type Releaser interface {
	Release()
}

// Entry is one live managed object.
type Entry struct {
	Value       any
	TypeName    string
	Handle      scriptbridge.Handle
	Counterpart scriptbridge.Counterpart
}
