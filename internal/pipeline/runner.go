// Package pipeline drives a dictionary build: it walks the prefix list,
// runs the acceptance filter per prefix, checkpoints the run state and
// finalizes the artifact.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/slovnyk/internal/checkpoint"
	"github.com/valpere/slovnyk/internal/finalize"
)

// ErrInterrupted is returned by Run after a shutdown request. The run state
// has been saved and the build can be resumed.
var ErrInterrupted = errors.New("run interrupted")

// PrefixRunner processes one prefix.
type PrefixRunner interface {
	Run(ctx context.Context, prefix string, batch int) PrefixResult
}

// Options configure one run.
type Options struct {
	Model      string
	TargetLang string
	Mode       string
	Prefixes   []string
	Batch      int
	SaveEvery  int
	Workers    int
	Resume     bool
	UseVectors bool

	OutputDir string
	Format    string
}

// Result summarises a run.
type Result struct {
	ArtifactPath string
	ArchivePath  string
	State        *checkpoint.RunState
	// Processed counts prefixes run to completion in this invocation.
	Processed   int
	Interrupted bool
}

// Runner owns the RunState for the duration of a run. Prefixes may be
// processed concurrently but every state mutation and checkpoint save
// happens on the goroutine that called Run.
type Runner struct {
	filter   PrefixRunner
	store    *checkpoint.Store
	opts     Options
	logger   *zap.Logger
	progress io.Writer
	now      func() time.Time
}

func NewRunner(filter PrefixRunner, store *checkpoint.Store, opts Options, logger *zap.Logger) *Runner {
	if opts.SaveEvery < 1 {
		opts.SaveEvery = 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Batch < 1 {
		opts.Batch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		filter:   filter,
		store:    store,
		opts:     opts,
		logger:   logger,
		progress: io.Discard,
		now:      time.Now,
	}
}

// SetProgress directs the per-prefix progress lines to w.
func (r *Runner) SetProgress(w io.Writer) {
	r.progress = w
}

// Run executes the build until every prefix has been processed or ctx is
// cancelled. Cancellation is a graceful shutdown: no new prefix starts, the
// state is saved and ErrInterrupted is returned.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	prefixes, err := Prefixes(r.opts.Mode, r.opts.Prefixes)
	if err != nil {
		return nil, err
	}

	state := r.initialState()
	done := toSet(state.CompletedPrefixes)
	failed := toSet(state.FailedPrefixes)

	var pending []string
	for _, p := range prefixes {
		if _, ok := done[p]; !ok {
			pending = append(pending, p)
		}
	}
	r.logger.Info("starting run",
		zap.String("run_id", state.RunID),
		zap.String("target_lang", r.opts.TargetLang),
		zap.String("mode", r.opts.Mode),
		zap.Int("prefixes", len(prefixes)),
		zap.Int("pending", len(pending)),
		zap.Int("workers", r.opts.Workers))

	start := r.now()
	baseRuntime := state.RuntimeSec
	results := r.dispatch(ctx, pending)

	res := &Result{State: state}
	dirty := false
	for pr := range results {
		if pr.Interrupted {
			res.Interrupted = true
			continue
		}
		res.Processed++
		state.Metrics.Add(pr.Metrics)
		if len(pr.Entries) > 0 {
			state.Words = append(state.Words, pr.Entries...)
			done[pr.Prefix] = struct{}{}
			delete(failed, pr.Prefix)
		} else {
			failed[pr.Prefix] = struct{}{}
		}
		dirty = true
		fmt.Fprintf(r.progress, "[%d/%d] Prefix '%s' ... %d accepted\n", res.Processed, len(pending), pr.Prefix, len(pr.Entries))

		if res.Processed%r.opts.SaveEvery == 0 || ctx.Err() != nil {
			r.save(state, done, failed, baseRuntime, start)
			dirty = false
		}
	}
	if ctx.Err() != nil {
		res.Interrupted = true
	}

	if res.Interrupted {
		if dirty || res.Processed == 0 {
			r.save(state, done, failed, baseRuntime, start)
		}
		fmt.Fprintf(r.progress, "  -> progress saved (%d done, %d entries)\n", len(done), len(state.Words))
		return res, ErrInterrupted
	}

	r.save(state, done, failed, baseRuntime, start)
	return res, r.finish(state, res)
}

// dispatch runs pending prefixes on a bounded pool and streams the results.
// The channel is closed once every started prefix has reported.
func (r *Runner) dispatch(ctx context.Context, pending []string) <-chan PrefixResult {
	results := make(chan PrefixResult)
	go func() {
		defer close(results)
		var g errgroup.Group
		g.SetLimit(r.opts.Workers)
		for _, p := range pending {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				results <- r.filter.Run(ctx, p, r.opts.Batch)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return results
}

func (r *Runner) finish(state *checkpoint.RunState, res *Result) error {
	createdAt := r.now()
	artifact, err := finalize.Finalize(state.Words, finalize.Options{
		TargetLang: r.opts.TargetLang,
		Model:      r.opts.Model,
		Mode:       r.opts.Mode,
		RunID:      state.RunID,
		CreatedAt:  createdAt,
	})
	if errors.Is(err, finalize.ErrNoEntries) {
		fmt.Fprintln(r.progress, "No entries collected.")
		return nil
	}
	if err != nil {
		return err
	}

	path, err := finalize.Write(artifact, r.opts.OutputDir, r.opts.Format)
	if err != nil {
		return err
	}
	res.ArtifactPath = path

	archive, err := r.store.Archive(createdAt)
	if err != nil {
		r.logger.Warn("checkpoint archive failed", zap.Error(err))
	}
	res.ArchivePath = archive

	r.logger.Info("dictionary completed",
		zap.String("file", path),
		zap.Int("entries", artifact.Metadata.TotalEntries))
	return nil
}

// initialState loads the checkpoint when resuming: the primary file, then
// its backup, then the newest completed archive. Anything else starts fresh.
func (r *Runner) initialState() *checkpoint.RunState {
	state := &checkpoint.RunState{}
	if r.opts.Resume {
		loaded, err := r.store.Load()
		if errors.Is(err, checkpoint.ErrNoCheckpoint) {
			var archive string
			loaded, archive, err = r.store.LoadLatestArchive()
			if err == nil {
				r.logger.Info("resuming from completed archive", zap.String("path", archive))
			}
		}
		if err == nil {
			state = loaded
			r.logger.Info("resumed checkpoint",
				zap.Int("completed", len(state.CompletedPrefixes)),
				zap.Int("failed", len(state.FailedPrefixes)),
				zap.Int("entries", len(state.Words)))
		}
	}

	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	state.ModelUsed = r.opts.Model
	state.TargetLanguage = r.opts.TargetLang
	state.Mode = r.opts.Mode
	state.Batch = r.opts.Batch
	state.UseVectors = r.opts.UseVectors
	return state
}

func (r *Runner) save(state *checkpoint.RunState, done, failed map[string]struct{}, baseRuntime int64, start time.Time) {
	state.Timestamp = r.now()
	state.CompletedPrefixes = sortedKeys(done)
	state.FailedPrefixes = sortedKeys(failed)
	state.RuntimeSec = baseRuntime + int64(r.now().Sub(start)/time.Second)

	if err := r.store.Save(state); err != nil {
		r.logger.Warn("checkpoint save failed", zap.String("path", r.store.Path()), zap.Error(err))
		return
	}
	r.logger.Debug("progress saved",
		zap.Int("done", len(done)),
		zap.Int("entries", len(state.Words)))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
