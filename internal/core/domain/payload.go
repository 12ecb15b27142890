package domain

// DecodedPayload is the result of decoding one queue message. The set of
// variants is closed: FilePath, Block and BlockWithEntries.
type DecodedPayload interface {
	decodedPayload()
}

// FilePath points at a bulk NDJSON file (local, hdfs:// or gs://).
type FilePath struct {
	Path string
}

// Block is a block without entry summaries.
type Block struct {
	BlockID uint64
	Block   EncodedBlock
}

// BlockWithEntries is a block plus its entry summaries. Entries is empty,
// never nil, when the payload carried none.
type BlockWithEntries struct {
	BlockID uint64
	Block   EncodedBlock
	Entries []EntrySummary
}

func (FilePath) decodedPayload()         {}
func (Block) decodedPayload()            {}
func (BlockWithEntries) decodedPayload() {}
