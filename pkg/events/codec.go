package events

import "github.com/vmihailenco/msgpack/v5"

// Marshal encodes an Event for transport across a process boundary, e.g.
// a future network protocol layer forwarding events to a connected
// client.
func Marshal(e Event) ([]byte, error) {
	return msgpack.Marshal(e)
}

// Unmarshal decodes bytes produced by Marshal.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	err := msgpack.Unmarshal(data, &e)
	return e, err
}
