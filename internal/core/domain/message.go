package domain

import "time"

// Message is one record pulled from a queue.
type Message struct {
	ID        string
	Payload   []byte
	Key       []byte
	Timestamp time.Time
}
