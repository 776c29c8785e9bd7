package train

import "github.com/bpegpu/bpegpu/internal/compute"

// BatchSize is the number of merge iterations the orchestrator records
// before doing a single host readback (spec §4.4.8).
const BatchSize = 128

// Pipeline owns the per-batch GPU buffers and bind groups of spec §4.4: the
// pair-count table, the current (ping) symbol buffer, and the shared
// iteration state. It corresponds to the base spec's single owning
// TrainingContext (spec §9): no weak references, bind groups (here, just
// Go closures over these fields) are trivially "rebuilt" every iteration by
// virtue of reading Pipeline.Symbols fresh.
type Pipeline struct {
	Device   *compute.Device
	Table    *compute.PairTable
	Symbols  []Symbol
	State    *IterationState
	MergeLog []MergeLogEntry
	// MaxMerges caps the total merges RunBatch performs (targetVocabSize -
	// 256); 0 means no cap.
	MaxMerges uint32
}

// NewPipeline allocates a fresh pipeline over symbols with the default
// table size, and writes the initial iteration state (spec §4.5 step 2).
func NewPipeline(dev *compute.Device, symbols []Symbol, targetVocabSize int) *Pipeline {
	var maxMerges uint32
	if targetVocabSize > 256 {
		maxMerges = uint32(targetVocabSize - 256)
	}
	return &Pipeline{
		Device:  dev,
		Table:   compute.NewPairTable(compute.DefaultTableSize),
		Symbols: symbols,
		State: &IterationState{
			SymbolCount: uint32(len(symbols)),
			TableSize:   uint32(compute.DefaultTableSize),
			NextTokenID: 256,
			MaxSymbols:  uint32(len(symbols)),
		},
		MaxMerges: maxMerges,
	}
}

// BatchResult summarizes one batch submission: the host's one readback per
// N merges (spec §4.4.8).
type BatchResult struct {
	MergesDone int
	EarlyStop  bool
	NewEntries []MergeLogEntry
}

// RunBatch records and "submits" up to BatchSize merge iterations, stopping
// early if setup_merge raises EarlyStop or MaxMerges merges have been done
// in total, then reports what happened — the
// one map/readback operation per batch the base spec requires (spec
// §4.4.8). The CPU model has no separate submit/map step to economize, but
// keeping the batch as the unit of work mirrors the real backend's
// amortization of host round-trips.
func (p *Pipeline) RunBatch() BatchResult {
	start := len(p.MergeLog)

	for i := 0; i < BatchSize; i++ {
		if p.MaxMerges > 0 && p.State.MergesDone >= p.MaxMerges {
			break
		}
		if !p.runIteration() {
			break
		}
	}

	return BatchResult{
		MergesDone: int(p.State.MergesDone),
		EarlyStop:  p.State.EarlyStop != 0,
		NewEntries: append([]MergeLogEntry(nil), p.MergeLog[start:]...),
	}
}

// runIteration executes kernels 4.4.1-4.4.7 once. It returns false when
// setup_merge raised EarlyStop, in which case no merge happened this
// iteration and the batch loop should stop.
func (p *Pipeline) runIteration() bool {
	clearTable(p.Device, p.Table)
	pairCount(p.Device, p.Symbols, p.Table)

	bestCount, bestPair := findMax(p.Device, p.Table)
	setupMerge(p.State, bestCount, bestPair, &p.MergeLog)
	if p.State.EarlyStop != 0 {
		return false
	}

	validMask, blockSums := mergeReduce(p.Device, p.Symbols, p.State.SymbolA, p.State.SymbolB, p.State.NewSymbol)
	newCount := scanBlocks(blockSums)
	p.State.PendingSymbolCount = newCount

	p.Symbols = finalizeCompact(p.Device, p.Symbols, validMask, blockSums, newCount)
	p.State.SymbolCount = newCount

	return true
}
