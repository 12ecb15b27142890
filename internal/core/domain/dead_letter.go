package domain

// DeadLetter is published for messages that could not be decoded or processed.
type DeadLetter struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewDeadLetter builds a dead letter from a raw payload. Invalid UTF-8 bytes
// are replaced with U+FFFD.
func NewDeadLetter(payload []byte, err error) DeadLetter {
	dl := DeadLetter{Message: string([]rune(string(payload)))}
	if err != nil {
		dl.Error = err.Error()
	}
	return dl
}
