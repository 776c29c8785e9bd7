package bpegpu

import (
	"context"
	"time"

	"github.com/bpegpu/bpegpu/internal/charclass"
	"github.com/bpegpu/bpegpu/internal/train"
	"github.com/bpegpu/bpegpu/internal/vocab"
)

// Engine trains BPE vocabularies. It is the facade over internal/train's
// batched merge pipeline (spec §6, "Engine::init()").
type Engine struct{}

// NewEngine constructs an Engine. The CPU fallback device never fails to
// acquire, so this never returns an error; the signature still returns one
// to leave room for a real GPU backend's device-acquisition failure
// (DeviceUnavailable), per spec §7.
func NewEngine() (*Engine, error) {
	return &Engine{}, nil
}

// TrainOptions configures Engine.Train.
type TrainOptions struct {
	// TargetVocabSize is the desired final vocabulary size; must be > 256.
	TargetVocabSize int
	// Classifier drives Unicode pre-tokenization. Nil selects a cached
	// default Unicode classifier (internal/charclass.Default).
	Classifier charclass.Classifier
	// UseFallbackPreTokenizer forces the coarse GPU byte-level word-boundary
	// kernel. Set this when the Unicode pre-tokenizer is unavailable; the
	// engine still trains, just against cruder word boundaries (spec §4.1).
	UseFallbackPreTokenizer bool
	// OnProgress is invoked at most once per batch of merges.
	OnProgress func(train.Progress)
}

// TrainingResult is Engine.Train's return value (spec §6).
type TrainingResult struct {
	Vocab        *vocab.Vocab
	Merges       []train.MergeLogEntry
	TrainingTime time.Duration
}

// Train runs the GPU-driven batched merge loop to completion over corpus
// (spec §4.5, "Engine.train(corpus, target_vocab_size) -> TrainingResult").
func (e *Engine) Train(ctx context.Context, corpus []byte, opts TrainOptions) (*TrainingResult, error) {
	result, err := train.Train(ctx, corpus, train.Options{
		TargetVocabSize:         opts.TargetVocabSize,
		Classifier:              opts.Classifier,
		UseFallbackPreTokenizer: opts.UseFallbackPreTokenizer,
		OnProgress:              opts.OnProgress,
	}, errEmptyCorpusFn, errInvalidTargetFn(opts.TargetVocabSize))
	if err != nil {
		return nil, err
	}
	return &TrainingResult{Vocab: result.Vocab, Merges: result.Merges, TrainingTime: result.TrainingTime}, nil
}

func errEmptyCorpusFn() error { return errEmptyCorpus() }

func errInvalidTargetFn(target int) func() error {
	return func() error { return errInvalidTarget(target) }
}
