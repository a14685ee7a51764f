package network

// Endpoint is an opaque client address messages can be sent to.
type Endpoint interface {
	Address() string
	Send(data []byte) error
}

// SameEndpoint reports whether a and b address the same client.
func SameEndpoint(a, b Endpoint) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Address() == b.Address()
}

type EventType int

const (
	EventTypeNone EventType = iota
	EventTypeConnect
	EventTypeDisconnect
	EventTypeReceive
)

type Event struct {
	Type     EventType
	Endpoint Endpoint
	Data     []byte
}
