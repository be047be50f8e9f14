// Package hub fans broadcast messages out to websocket clients over
// channels, one hub per stream.
package hub

// Message is one outbound websocket payload. Session snapshots travel
// as text frames, sampled JPEGs as binary frames.
type Message struct {
	Binary bool
	Data   []byte
}

func textMessage(data []byte) Message { return Message{Data: data} }

func binaryMessage(data []byte) Message { return Message{Binary: true, Data: data} }
