package train

import "github.com/bpegpu/bpegpu/internal/compute"

// GroupSize is the CPU analogue of a GPU workgroup size: the unit
// DispatchGroups batches per-group scratch state (staging tables, local
// Blelloch scans) around.
const GroupSize = 256

// clearTable zeroes both pair_counts and pair_ids across the whole table
// (kernel 4.4.1).
func clearTable(dev *compute.Device, table *compute.PairTable) {
	dev.Dispatch(table.Size(), table.Clear)
}

// pairCount forms a pair id from each adjacent (symbols[i], symbols[i+1])
// and inserts it into table, aggregating first in a per-workgroup staging
// table that is flushed once the group finishes (kernel 4.4.2). A thread
// skips when symbols[i+1] begins a word (no merge may cross a word-start
// boundary) or when either token is the reserved zero token.
func pairCount(dev *compute.Device, symbols []Symbol, table *compute.PairTable) {
	n := len(symbols)
	if n < 2 {
		return
	}
	dev.DispatchGroups(n-1, GroupSize, func(_ int, start, end int) {
		staging := compute.NewStaging()
		for i := start; i < end; i++ {
			a := symbols[i]
			b := symbols[i+1]
			if HasWordStart(b) {
				continue
			}
			ta, tb := Token(a), Token(b)
			if ta == 0 || tb == 0 {
				continue
			}
			pairID := compute.PackPair(ta, tb)
			if !staging.Add(pairID) {
				table.InsertWithCount(pairID, 1)
			}
		}
		staging.Flush(table)
	})
}

// better is the deterministic comparator of spec §4.4.3: higher count wins;
// ties break toward the smaller packed pair id, so the result is
// bit-identical across runs regardless of scheduling.
func better(c1, p1, c2, p2 uint32) bool {
	if c1 != c2 {
		return c1 > c2
	}
	return p1 < p2
}

// findMaxPairsPerThread is the per-thread fan-in of find_max_pair4 (spec
// §4.4.3 pass A): each thread scans 4 table entries before the workgroup
// reduces to one (count, pair) pair.
const findMaxPairsPerThread = 4

// findMax runs the two-pass deterministic max reduction over the pair-count
// table (kernels find_max_pair4 and find_max_final_det, spec §4.4.3) and
// returns the winning (count, packed pair id). A table with no observed
// pairs returns (0, 0).
func findMax(dev *compute.Device, table *compute.PairTable) (bestCount, bestPair uint32) {
	n := table.Size()
	numThreads := (n + findMaxPairsPerThread - 1) / findMaxPairsPerThread

	numGroups := (numThreads + GroupSize - 1) / GroupSize
	if numGroups < 1 {
		numGroups = 1
	}
	blockCount := make([]uint32, numGroups)
	blockPair := make([]uint32, numGroups)

	dev.DispatchGroups(numThreads, GroupSize, func(g, start, end int) {
		var localCount, localPair uint32
		for tid := start; tid < end; tid++ {
			base := tid * findMaxPairsPerThread
			for k := 0; k < findMaxPairsPerThread; k++ {
				idx := base + k
				if idx >= n {
					break
				}
				p := table.PairIDs[idx]
				if p == 0 {
					continue
				}
				c := table.Counts[idx]
				if better(c, p, localCount, localPair) {
					localCount, localPair = c, p
				}
			}
		}
		blockCount[g] = localCount
		blockPair[g] = localPair
	})

	// find_max_final_det: a single workgroup reduces block_max to a global
	// best with the same comparator.
	for i := range blockCount {
		if better(blockCount[i], blockPair[i], bestCount, bestPair) {
			bestCount, bestPair = blockCount[i], blockPair[i]
		}
	}
	return bestCount, bestPair
}

// setupMerge is the single-thread kernel of spec §4.4.4: it either commits
// to merging the winning pair (recording it in the merge log and advancing
// NextTokenID) or raises EarlyStop.
func setupMerge(state *IterationState, bestCount, bestPair uint32, log *[]MergeLogEntry) {
	if bestCount < 2 || state.NextTokenID > 65535 {
		state.EarlyStop = 1
		return
	}
	a, b := compute.UnpackPair(bestPair)
	newSymbol := state.NextTokenID

	state.SymbolA = a
	state.SymbolB = b
	state.NewSymbol = newSymbol
	state.MaxCount = bestCount

	*log = append(*log, MergeLogEntry{PairID: bestPair, NewTokenID: newSymbol, Count: bestCount})

	state.NextTokenID++
	state.MergesDone++
}

// mergeReduce is the fused kernel of spec §4.4.5. It reads an immutable
// snapshot of symbols so that every thread's reads of raw/raw_prev/raw_next
// complete before any thread's write — the base spec calls this out
// explicitly to avoid a cross-thread race during the in-place rewrite.
// The A-side write fuses (a, b) pairs into newSymbol in place; the B-side
// validity mask marks which positions survive compaction; block sums are
// the per-group reduction of that mask that scan_blocks consumes next.
func mergeReduce(dev *compute.Device, symbols []Symbol, a, b, newSymbol uint32) (validMask, blockSums []uint32) {
	n := len(symbols)
	snapshot := make([]Symbol, n)
	copy(snapshot, symbols)

	fires, consumed := resolveMergeSites(snapshot, a, b)

	validMask = make([]uint32, n)
	numGroups := (n + GroupSize - 1) / GroupSize
	if numGroups < 1 {
		numGroups = 1
	}
	blockSums = make([]uint32, numGroups)

	dev.DispatchGroups(n, GroupSize, func(g, start, end int) {
		var groupSum uint32
		for i := start; i < end; i++ {
			if fires[i] {
				symbols[i] = MakeSymbol(newSymbol, HasWordStart(snapshot[i]))
			}

			valid := uint32(1)
			if consumed[i] {
				valid = 0
			}
			validMask[i] = valid
			groupSum += valid
		}
		blockSums[g] = groupSum
	})

	return validMask, blockSums
}

// resolveMergeSites is the left-to-right conflict resolution the fused
// rewrite needs in order to fuse "every non-overlapping occurrence" (spec
// §1), not just every adjacent (a, b) pair independently. For a != b a
// thread deciding its own site in isolation is already correct, since a
// token can't simultaneously equal both a and b. Self-pairs (a == b) are
// the exception: a run of k identical adjacent tokens presents as k-1
// overlapping (a, b) candidates, and the correct result is the
// non-overlapping floor(k/2) merges (with an unmerged leftover if k is
// odd), not one merge per candidate. Resolving that requires knowing
// whether the left neighbor of a candidate site was itself already
// consumed by the previous merge, which is inherently a sequential
// dependency within the run — so this runs as one pass over the snapshot
// before the parallel dispatch applies the resulting decisions.
func resolveMergeSites(snapshot []Symbol, a, b uint32) (fires, consumed []bool) {
	n := len(snapshot)
	fires = make([]bool, n)
	consumed = make([]bool, n)
	for i := 0; i < n-1; i++ {
		if consumed[i] {
			continue
		}
		next := snapshot[i+1]
		if Token(snapshot[i]) == a && Token(next) == b && !HasWordStart(next) {
			fires[i] = true
			consumed[i+1] = true
		}
	}
	return fires, consumed
}

// scanBlocks computes the exclusive prefix sum over blockSums in place,
// selecting the parallel Blelloch variant for up to 256 blocks and the
// sequential linear scan beyond that (kernel 4.4.6), and returns the total
// (the new symbol count after compaction).
func scanBlocks(blockSums []uint32) uint32 {
	if len(blockSums) <= compute.ParallelScanBlockThreshold {
		return compute.BlellochExclusiveScan(blockSums)
	}
	return compute.SequentialExclusiveScan(blockSums)
}

// finalizeCompact scatters the valid positions of src into a freshly
// allocated destination buffer of length newCount, using a workgroup-local
// Blelloch scan to turn validMask into a per-thread offset and
// blockPrefixes (blockSums after scanBlocks) to turn that into a global
// destination (kernel 4.4.7).
func finalizeCompact(dev *compute.Device, src []Symbol, validMask, blockPrefixes []uint32, newCount uint32) []Symbol {
	n := len(src)
	dst := make([]Symbol, newCount)

	dev.DispatchGroups(n, GroupSize, func(g, start, end int) {
		local := make([]uint32, end-start)
		copy(local, validMask[start:end])
		compute.BlellochExclusiveScan(local)

		base := blockPrefixes[g]
		for i := start; i < end; i++ {
			if validMask[i] != 0 {
				dst[base+local[i-start]] = src[i]
			}
		}
	})

	return dst
}
