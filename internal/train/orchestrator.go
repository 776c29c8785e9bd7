package train

import (
	"context"
	"time"

	"github.com/bpegpu/bpegpu/internal/charclass"
	"github.com/bpegpu/bpegpu/internal/compute"
	"github.com/bpegpu/bpegpu/internal/pretoken"
	"github.com/bpegpu/bpegpu/internal/vocab"
)

// Options configures a Train call (spec §4.5, C6).
type Options struct {
	// TargetVocabSize is the desired final vocabulary size; must be > 256.
	TargetVocabSize int
	// Classifier drives the Unicode pre-tokenizer. Nil selects
	// charclass.Default. Ignored when UseFallbackPreTokenizer is set.
	Classifier charclass.Classifier
	// UseFallbackPreTokenizer forces the coarse GPU byte-level word-boundary
	// kernel instead of the Unicode pre-tokenizer (spec §4.1's degrade path).
	UseFallbackPreTokenizer bool
	// OnProgress is called at most once per batch (spec §6's progress
	// callback contract). Nil disables progress reporting.
	OnProgress func(Progress)
}

// Progress reports one batch's worth of training progress.
type Progress struct {
	MergeIndex      int
	TotalMerges     int
	BestCount       int
	SymbolCount     int
	MergesPerSecond float64
}

// Result is what Train returns on success.
type Result struct {
	Vocab        *vocab.Vocab
	Merges       []MergeLogEntry
	Pipeline     *Pipeline
	TrainingTime time.Duration
}

// ErrorFunc builds a typed error for one of the two conditions Train
// detects itself; the train package has no typed error taxonomy of its own
// (that lives in the bpegpu facade, spec §7), so its caller supplies the
// constructors.
type ErrorFunc func() error

// Train runs the full batched merge loop of spec §4.5 to completion: input
// prep, iterate RunBatch until early-stop or the target is reached, and
// rebuild the vocabulary from the merge log as it grows. It reports
// progress through opts.OnProgress and checks ctx cancellation between
// batches (never mid-batch, matching the one-readback-per-batch contract of
// pipeline.go).
func Train(ctx context.Context, corpus []byte, opts Options, emptyCorpusErr, invalidTargetErr ErrorFunc) (*Result, error) {
	if len(corpus) == 0 {
		return nil, emptyCorpusErr()
	}
	if opts.TargetVocabSize <= 256 {
		return nil, invalidTargetErr()
	}

	dev := compute.New()

	var normalized []byte
	var wordStarts []bool
	if opts.UseFallbackPreTokenizer {
		normalized = corpus
		wordStarts = pretoken.FallbackWordBoundary(dev, corpus)
	} else {
		r := pretoken.Run(corpus, opts.Classifier)
		normalized = r.NormalizedBytes
		wordStarts = r.WordStarts
	}

	symbols := make([]Symbol, len(normalized))
	for i, b := range normalized {
		symbols[i] = MakeSymbol(uint32(b), wordStarts[i])
	}

	pipeline := NewPipeline(dev, symbols, opts.TargetVocabSize)
	vocabulary := vocab.New()
	totalMerges := opts.TargetVocabSize - 256

	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result := pipeline.RunBatch()
		for _, entry := range result.NewEntries {
			a, b := compute.UnpackPair(entry.PairID)
			if _, err := vocabulary.AddMerge(int(a), int(b)); err != nil {
				return nil, err
			}
		}

		if opts.OnProgress != nil && len(result.NewEntries) > 0 {
			last := result.NewEntries[len(result.NewEntries)-1]
			elapsed := time.Since(started).Seconds()
			var mps float64
			if elapsed > 0 {
				mps = float64(pipeline.State.MergesDone) / elapsed
			}
			opts.OnProgress(Progress{
				MergeIndex:      int(pipeline.State.MergesDone),
				TotalMerges:     totalMerges,
				BestCount:       int(last.Count),
				SymbolCount:     int(pipeline.State.SymbolCount),
				MergesPerSecond: mps,
			})
		}

		if result.EarlyStop || int(pipeline.State.MergesDone) >= totalMerges {
			break
		}
	}

	return &Result{
		Vocab:        vocabulary,
		Merges:       pipeline.MergeLog,
		Pipeline:     pipeline,
		TrainingTime: time.Since(started),
	}, nil
}
