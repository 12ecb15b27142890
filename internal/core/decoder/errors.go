package decoder

import "errors"

var (
	ErrInvalidUTF8          = errors.New("message payload is not valid UTF-8")
	ErrUnrecognizedPayload  = errors.New("unrecognized JSON payload")
	ErrNotFilePath          = errors.New("unable to decode message as JSON or file path")
	ErrMissingNestedBlockID = errors.New("missing block.blockID")
	ErrInvalidBlockID       = errors.New("blockID must be a non-negative integer or numeric string")
	ErrInvalidEntries       = errors.New("entries must be an array or object")
)
