package train

// IterationState mirrors the 12xu32 shared GPU control block of spec §3.
// It is written by the orchestrator before each batch and mutated
// exclusively by kernels during the batch; the host reads it back once at
// batch end. pending_symbol_count replaces the overloaded scratch1/_pad1
// field the base spec's open question (§9) flags as confusing: it stages
// the new symbol count computed by scan_blocks before finalize_compact
// commits it to SymbolCount.
type IterationState struct {
	SymbolCount        uint32
	TableSize          uint32
	EarlyStop          uint32
	NextTokenID        uint32
	SymbolA            uint32
	SymbolB            uint32
	NewSymbol          uint32
	MaxCount           uint32
	MergesDone         uint32
	MaxSymbols         uint32
	PendingSymbolCount uint32
	Scratch2           uint32
}

// MergeLogEntry is one (pair_id, new_token_id, count) record, as produced by
// setup_merge and consumed by the host to rebuild the vocabulary (spec §3).
type MergeLogEntry struct {
	PairID     uint32
	NewTokenID uint32
	Count      uint32
}
