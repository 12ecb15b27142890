package ingestor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vietddude/ingestor/internal/core/domain"
	"github.com/vietddude/ingestor/internal/indexing/processor"
)

// LineRunner feeds NDJSON lines through the decoder, either only reporting
// what was parsed or processing each payload. Nothing is committed or
// dead-lettered; problems are reported to out and the next line is read.
type LineRunner struct {
	decoder     Decoder
	processor   Processor
	out         io.Writer
	maxLineSize int
}

// NewLineRunner creates a runner writing reports to out. proc may be
// nil when only validating.
func NewLineRunner(decoder Decoder, proc Processor, out io.Writer, maxLineSize int) *LineRunner {
	if maxLineSize <= 0 {
		maxLineSize = processor.DefaultMaxLineSize
	}
	return &LineRunner{
		decoder:     decoder,
		processor:   proc,
		out:         out,
		maxLineSize: maxLineSize,
	}
}

// Run reads r until EOF or ctx ends.
func (l *LineRunner) Run(ctx context.Context, r io.Reader, validateOnly bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), l.maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		payload, err := l.decoder.Decode([]byte(line))
		if err != nil {
			l.report("Failed to decode input", err)
			continue
		}

		if validateOnly {
			l.describe(payload)
			continue
		}
		if err := l.processor.ProcessDecoded(ctx, payload); err != nil {
			l.report("Error processing input", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (l *LineRunner) describe(payload domain.DecodedPayload) {
	switch v := payload.(type) {
	case domain.Block:
		fmt.Fprintf(l.out, "Parsed block (no entries): blockID=%d\n", v.BlockID)
	case domain.BlockWithEntries:
		fmt.Fprintf(l.out, "Parsed block with entries: blockID=%d\n", v.BlockID)
	case domain.FilePath:
		fmt.Fprintf(l.out, "Parsed file path payload (unexpected in validate-only): %s\n", v.Path)
	default:
		fmt.Fprintf(l.out, "Parsed unknown payload %T\n", payload)
	}
}

func (l *LineRunner) report(prefix string, err error) {
	fmt.Fprintf(l.out, "%s: %v\n", prefix, err)
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		fmt.Fprintf(l.out, "  caused by: %v\n", cause)
	}
}
