package decoder

import (
	"strconv"
	"strings"
)

const txMarker = "transactions["

// extractTxIndex returns N for the first "transactions[N" in path.
func extractTxIndex(path string) (int, bool) {
	i := strings.Index(path, txMarker)
	if i < 0 {
		return 0, false
	}
	rest := path[i+len(txMarker):]
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
