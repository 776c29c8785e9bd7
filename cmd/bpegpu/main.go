// Command bpegpu trains BPE vocabularies and tokenizes text against them
// (SPEC_FULL.md §2, §5). Its subcommand layout and config/flag precedence follow
// the teacher pack's cmd/sift/main.go: an optional project-local TOML file
// supplies defaults, persistent flags override them.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	strftime "github.com/ncruces/go-strftime"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/bpegpu/bpegpu/bpegpu"
	"github.com/bpegpu/bpegpu/internal/gpt2import"
	"github.com/bpegpu/bpegpu/internal/modelcache"
	"github.com/bpegpu/bpegpu/internal/modelio"
	"github.com/bpegpu/bpegpu/internal/progress"
	"github.com/bpegpu/bpegpu/internal/train"
	"github.com/bpegpu/bpegpu/internal/watch"
)

var (
	defaultTargetVocabSize = 2000
	defaultCacheDBPath     = ".bpegpu/cache.db"
)

type fileConfig struct {
	TargetVocabSize int    `toml:"target-vocab-size"`
	CacheDB         string `toml:"cache-db"`
}

func loadFileConfig() {
	b, err := os.ReadFile(".bpegpu.toml")
	if err != nil {
		return
	}
	var cfg fileConfig
	if err := toml.Unmarshal(b, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "bpegpu: ignoring .bpegpu.toml: %v\n", err)
		return
	}
	if cfg.TargetVocabSize > 0 {
		defaultTargetVocabSize = cfg.TargetVocabSize
	}
	if cfg.CacheDB != "" {
		defaultCacheDBPath = cfg.CacheDB
	}
}

func main() {
	loadFileConfig()

	root := &cobra.Command{
		Use:   "bpegpu",
		Short: "GPU-driven BPE trainer and trie tokenizer",
		Long:  "bpegpu trains byte-pair-encoding vocabularies with a batched GPU-style merge pipeline (CPU fallback) and tokenizes text against them with a flat trie walk.",
	}

	var targetVocabSize int
	var modelPath string
	var useTUI bool
	root.PersistentFlags().IntVar(&targetVocabSize, "target-vocab-size", defaultTargetVocabSize, "desired final vocabulary size (> 256)")
	root.PersistentFlags().StringVar(&modelPath, "model", "model.json", "path to the trained model JSON file")

	root.AddCommand(trainCmd(&targetVocabSize, &modelPath, &useTUI))
	root.AddCommand(tokenizeCmd(&modelPath))
	root.AddCommand(watchCmd(&targetVocabSize, &modelPath))
	root.AddCommand(cacheCmd())
	root.AddCommand(importGPT2Cmd(&modelPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func trainCmd(targetVocabSize *int, modelPath *string, useTUI *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <corpus>",
		Short: "Train a BPE vocabulary from a corpus file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			corpusPath := args[0]
			corpus, err := os.ReadFile(corpusPath)
			if err != nil {
				return fmt.Errorf("read corpus: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := runTraining(ctx, corpus, *targetVocabSize, *useTUI, corpusPath)
			if err != nil {
				return err
			}

			f, err := os.Create(*modelPath)
			if err != nil {
				return fmt.Errorf("create model file: %w", err)
			}
			defer f.Close()
			model := modelio.FromResult(result.Vocab, result.Merges)
			if err := modelio.Save(f, model); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			if err := recordRun(corpusPath, corpus, *targetVocabSize, result, *modelPath); err != nil {
				fmt.Fprintf(os.Stderr, "bpegpu: cache record failed: %v\n", err)
			}

			fmt.Fprintf(os.Stderr, "Trained %s tokens (%d merges) in %s. Wrote %s.\n",
				humanize.Comma(int64(result.Vocab.Len())), len(result.Merges), result.TrainingTime.Round(time.Millisecond), *modelPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(useTUI, "tui", false, "show a live progress bar while training")
	return cmd
}

// runTraining drives bpegpu.Engine.Train, optionally wiring its progress
// callback into the BubbleTea progress bar instead of plain stderr lines.
func runTraining(ctx context.Context, corpus []byte, targetVocabSize int, useTUI bool, label string) (*bpegpu.TrainingResult, error) {
	engine, err := bpegpu.NewEngine()
	if err != nil {
		return nil, err
	}

	if !useTUI {
		return engine.Train(ctx, corpus, bpegpu.TrainOptions{
			TargetVocabSize: targetVocabSize,
			OnProgress: func(p train.Progress) {
				fmt.Fprintf(os.Stderr, "\r  merge %d/%d  symbols=%s  %.0f merges/s",
					p.MergeIndex, p.TotalMerges, humanize.Comma(int64(p.SymbolCount)), p.MergesPerSecond)
			},
		})
	}

	m := progress.New(filepath.Base(label))
	prog := tea.NewProgram(m)

	var result *bpegpu.TrainingResult
	var trainErr error
	go func() {
		result, trainErr = engine.Train(ctx, corpus, bpegpu.TrainOptions{
			TargetVocabSize: targetVocabSize,
			OnProgress: func(p train.Progress) {
				prog.Send(progress.ProgressMsg(p))
			},
		})
		prog.Send(progress.DoneMsg{Err: trainErr})
	}()

	if _, err := prog.Run(); err != nil {
		return nil, fmt.Errorf("tui: %w", err)
	}
	fmt.Fprintln(os.Stderr)
	return result, trainErr
}

func tokenizeCmd(modelPath *string) *cobra.Command {
	var decode bool
	cmd := &cobra.Command{
		Use:   "tokenize <file>",
		Short: "Tokenize (or decode) a file against a trained model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := os.Open(*modelPath)
			if err != nil {
				return fmt.Errorf("open model: %w", err)
			}
			_, vocabulary, err := modelio.Load(mf)
			mf.Close()
			if err != nil {
				return fmt.Errorf("load model: %w", err)
			}

			tok, err := bpegpu.FromVocab(vocabulary)
			if err != nil {
				return fmt.Errorf("compile trie: %w", err)
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			if decode {
				var ids []uint32
				if err := json.Unmarshal(data, &ids); err != nil {
					return fmt.Errorf("decode expects a JSON array of token ids: %w", err)
				}
				os.Stdout.Write(tok.Decode(ids))
				return nil
			}

			ids := tok.Encode(data)
			out, err := json.Marshal(ids)
			if err != nil {
				return fmt.Errorf("marshal token ids: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&decode, "decode", false, "treat input as a JSON array of token ids and emit decoded bytes")
	return cmd
}

func watchCmd(targetVocabSize *int, modelPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <corpus>",
		Short: "Retrain whenever the corpus file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			corpusPath := args[0]
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			retrain := func() error {
				corpus, err := os.ReadFile(corpusPath)
				if err != nil {
					return fmt.Errorf("read corpus: %w", err)
				}
				result, err := runTraining(ctx, corpus, *targetVocabSize, false, corpusPath)
				if err != nil {
					return err
				}
				f, err := os.Create(*modelPath)
				if err != nil {
					return fmt.Errorf("create model file: %w", err)
				}
				defer f.Close()
				if err := modelio.Save(f, modelio.FromResult(result.Vocab, result.Merges)); err != nil {
					return fmt.Errorf("save model: %w", err)
				}
				fmt.Fprintf(os.Stderr, "[watch] retrained: %s tokens, wrote %s\n",
					humanize.Comma(int64(result.Vocab.Len())), *modelPath)
				return nil
			}

			if err := retrain(); err != nil {
				return err
			}

			w, err := watch.New()
			if err != nil {
				return err
			}
			defer w.Close()

			return w.Watch(ctx, corpusPath, func() {
				if err := retrain(); err != nil {
					fmt.Fprintf(os.Stderr, "[watch] error: %v\n", err)
				}
			})
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local training run history",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded training runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := modelcache.Open(defaultCacheDBPath)
			if err != nil {
				return err
			}
			defer c.Close()

			runs, err := c.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no recorded runs")
				return nil
			}
			for _, r := range runs {
				ts, err := strftime.Format("%Y-%m-%d %H:%M", r.TrainedAt)
				if err != nil {
					ts = r.TrainedAt.Format("2006-01-02 15:04")
				}
				fmt.Printf("%s  %s  %s -> %s tokens (%d merges)  %s\n",
					r.ID[:8], ts, r.CorpusPath, humanize.Comma(int64(r.FinalVocabSize)), r.MergeCount, r.ModelPath)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details for one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := modelcache.Open(defaultCacheDBPath)
			if err != nil {
				return err
			}
			defer c.Close()

			run, err := c.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("id:                %s\n", run.ID)
			fmt.Printf("corpus:            %s\n", run.CorpusPath)
			fmt.Printf("corpus hash:       %s\n", run.CorpusHash)
			fmt.Printf("target vocab size: %s\n", humanize.Comma(int64(run.TargetVocabSize)))
			fmt.Printf("final vocab size:  %s\n", humanize.Comma(int64(run.FinalVocabSize)))
			fmt.Printf("merges:            %s\n", humanize.Comma(int64(run.MergeCount)))
			fmt.Printf("trained at:        %s\n", run.TrainedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Printf("model path:        %s\n", run.ModelPath)
			return nil
		},
	})

	return cmd
}

func recordRun(corpusPath string, corpus []byte, targetVocabSize int, result *bpegpu.TrainingResult, modelPath string) error {
	if err := os.MkdirAll(filepath.Dir(defaultCacheDBPath), 0o755); err != nil {
		return err
	}
	c, err := modelcache.Open(defaultCacheDBPath)
	if err != nil {
		return err
	}
	defer c.Close()

	sum := sha256.Sum256(corpus)
	hash := hex.EncodeToString(sum[:])

	_, err = c.Record(corpusPath, hash, targetVocabSize, result.Vocab.Len(), len(result.Merges), modelPath)
	return err
}

// importGPT2Cmd downloads a public GPT-2 vocab.json and converts it into a
// bpegpu model file, so a trie tokenizer can be compiled over a vocabulary
// nobody had to train. Adapted from the teacher's cmd/fetch_gpt2_tokenizer.
func importGPT2Cmd(modelPath *string) *cobra.Command {
	var vocabURL string
	cmd := &cobra.Command{
		Use:   "import-gpt2",
		Short: "Download GPT-2's vocab.json and convert it to a bpegpu model file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(os.Stderr, "downloading %s\n", vocabURL)
			data, err := downloadVocabJSON(vocabURL)
			if err != nil {
				return err
			}

			v, err := gpt2import.LoadVocabJSON(data)
			if err != nil {
				return fmt.Errorf("convert vocab.json: %w", err)
			}

			f, err := os.Create(*modelPath)
			if err != nil {
				return fmt.Errorf("create model file: %w", err)
			}
			defer f.Close()
			model := modelio.FromResult(v, nil)
			if err := modelio.Save(f, model); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Imported %s tokens. Wrote %s.\n", humanize.Comma(int64(v.Len())), *modelPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&vocabURL, "vocab-url", "https://huggingface.co/openai-community/gpt2/resolve/main/vocab.json", "URL of a GPT-2-style vocab.json")
	return cmd
}

func downloadVocabJSON(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
