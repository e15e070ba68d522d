package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/valpere/slovnyk/internal/checkpoint"
	"github.com/valpere/slovnyk/internal/config"
	"github.com/valpere/slovnyk/internal/consensus"
	"github.com/valpere/slovnyk/internal/finalize"
	"github.com/valpere/slovnyk/internal/generator"
	"github.com/valpere/slovnyk/internal/oracle"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	validatePrompt = regexp.MustCompile(`Validate the English word '([^']+)'`)
	listPrompt     = regexp.MustCompile(`start(?:s|ing)? with '([^']+)'`)
)

// fakeOracle answers candidate prompts from candidates and validation
// prompts from judgments, keyed by word and then by temperature.
type fakeOracle struct {
	candidates map[string]string
	judgments  map[string]map[float64]string
	// onList runs when candidates for a prefix are requested.
	onList func(prefix string)
	calls  atomic.Int32
}

func (o *fakeOracle) Generate(_ context.Context, prompt string, opts oracle.SampleOptions) (string, error) {
	o.calls.Add(1)
	if m := validatePrompt.FindStringSubmatch(prompt); m != nil {
		if byTemp, ok := o.judgments[m[1]]; ok {
			if reply, ok := byTemp[opts.Temperature]; ok {
				return reply, nil
			}
		}
		return accept(0.9, 2), nil
	}
	if m := listPrompt.FindStringSubmatch(prompt); m != nil {
		if o.onList != nil {
			o.onList(m[1])
		}
		return o.candidates[m[1]], nil
	}
	return "", errors.New("unexpected prompt")
}

func accept(conf float64, rarity int) string {
	return fmt.Sprintf(`{"pos":"noun","definition_en":"d","example_en":"e","word_target":"w","definition_target":"dt","example_target":"et","rarity":%d,"confidence":%v,"accept":true}`, rarity, conf)
}

func reject() string {
	return `{"accept":false,"confidence":0.2,"rarity":3,"reasons":["not a word"]}`
}

var testTemps = []float64{0.2, 0.4, 0.8}

func newTestRunner(t *testing.T, o oracle.Oracle, dir string, opts Options) *Runner {
	t.Helper()
	gen := generator.New(o, generator.Config{MinLen: 3, MaxLen: 20, OvergenFactor: 1.8}, nil)
	val := consensus.New(o, consensus.Config{TargetLang: "ko", Temperatures: testTemps, RarityCut: 4}, nil)
	filter := NewFilter(gen, val, FilterConfig{
		TargetLang: "ko",
		ScoreCut:   0.6,
		RarityCut:  4,
		Rare:       generator.DefaultRareSet,
	}, nil)

	opts.Model = "gpt-oss:20b"
	opts.TargetLang = "ko"
	opts.OutputDir = dir
	if opts.Mode == "" {
		opts.Mode = config.ModeCustom
	}
	if opts.Format == "" {
		opts.Format = config.FormatJSON
	}
	store := checkpoint.New(filepath.Join(dir, "dict_progress_ko.json"), nil)
	r := NewRunner(filter, store, opts, nil)

	// Every call advances the clock so artifacts and archives never collide.
	var mu sync.Mutex
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return r
}

func TestRun_EndToEnd(t *testing.T) {
	o := &fakeOracle{
		candidates: map[string]string{"ta": "table\ntale\ntax"},
		judgments: map[string]map[float64]string{
			"table": {0.2: accept(0.9, 2), 0.4: accept(0.85, 2), 0.8: accept(0.8, 2)},
			"tale":  {0.2: accept(0.9, 2), 0.4: reject(), 0.8: reject()},
			"tax":   {0.2: reject(), 0.4: reject(), 0.8: reject()},
		},
	}
	dir := t.TempDir()
	r := newTestRunner(t, o, dir, Options{Prefixes: []string{"ta"}, Batch: 2, SaveEvery: 10})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	a, err := finalize.Read(res.ArtifactPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(a.Entries) != 1 {
		t.Fatalf("expected one entry, got %+v", a.Entries)
	}
	e := a.Entries[0]
	if e.Word != "table" || e.Prefix != "ta" || e.Score != 0.85 || e.Rarity != 2 {
		t.Errorf("unexpected entry %+v", e)
	}

	m := res.State.Metrics
	if m.CandidatesGenerated != 3 || m.Attempts != 3 || m.Accepted != 1 || m.Rejected != 2 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if diff := cmp.Diff([]string{"ta"}, res.State.CompletedPrefixes); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}

	if res.ArchivePath == "" {
		t.Fatal("expected the checkpoint to be archived")
	}
	if !strings.HasPrefix(filepath.Base(res.ArchivePath), "completed_") {
		t.Errorf("unexpected archive name %q", res.ArchivePath)
	}
	if _, err := os.Stat(filepath.Join(dir, "dict_progress_ko.json")); !os.IsNotExist(err) {
		t.Errorf("primary checkpoint should be gone after archiving, stat err = %v", err)
	}
}

func TestRun_IdempotentResume(t *testing.T) {
	o := &fakeOracle{candidates: map[string]string{
		"aa": "aardvark",
		"ab": "abacus\nable",
	}}
	dir := t.TempDir()
	opts := Options{Prefixes: []string{"aa", "ab"}, Batch: 5, SaveEvery: 1}

	first, err := newTestRunner(t, o, dir, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Processed != 2 {
		t.Fatalf("expected 2 processed prefixes, got %d", first.Processed)
	}
	callsAfterFirst := o.calls.Load()

	opts.Resume = true
	second, err := newTestRunner(t, o, dir, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if second.Processed != 0 {
		t.Errorf("resume processed %d prefixes, want 0", second.Processed)
	}
	if o.calls.Load() != callsAfterFirst {
		t.Errorf("resume called the oracle %d more times", o.calls.Load()-callsAfterFirst)
	}
	if second.State.RunID != first.State.RunID {
		t.Errorf("resume should keep run id %q, got %q", first.State.RunID, second.State.RunID)
	}

	a1, err := finalize.Read(first.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := finalize.Read(second.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a1.Entries, a2.Entries); diff != "" {
		t.Errorf("entry sets differ after resume (-first +second):\n%s", diff)
	}
}

func TestRun_InterruptAndResume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	o := &fakeOracle{candidates: map[string]string{
		"aa": "aardvark",
		"ab": "abacus",
		"ac": "accent",
	}}
	o.onList = func(prefix string) {
		if prefix == "ab" {
			cancel()
		}
	}
	dir := t.TempDir()
	opts := Options{Prefixes: []string{"aa", "ab", "ac"}, Batch: 1, SaveEvery: 10}

	res, err := newTestRunner(t, o, dir, opts).Run(ctx)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if !res.Interrupted || res.ArtifactPath != "" {
		t.Errorf("interrupted run must not finalize: %+v", res)
	}

	saved, err := checkpoint.New(filepath.Join(dir, "dict_progress_ko.json"), nil).Load()
	if err != nil {
		t.Fatalf("expected a checkpoint after shutdown: %v", err)
	}
	if diff := cmp.Diff([]string{"aa"}, saved.CompletedPrefixes); diff != "" {
		t.Errorf("completed mismatch (-want +got):\n%s", diff)
	}
	if len(saved.FailedPrefixes) != 0 || len(saved.Words) != 1 {
		t.Errorf("interrupted prefix must be neither done nor failed: %+v", saved)
	}

	o.onList = nil
	opts.Resume = true
	res, err = newTestRunner(t, o, dir, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if res.Processed != 2 {
		t.Errorf("expected ab and ac to be processed on resume, got %d", res.Processed)
	}
	a, err := finalize.Read(res.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	var words []string
	for _, e := range a.Entries {
		words = append(words, e.Word)
	}
	if diff := cmp.Diff([]string{"aardvark", "abacus", "accent"}, words); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_FailedPrefixIsRetried(t *testing.T) {
	o := &fakeOracle{candidates: map[string]string{"ta": "table"}}
	dir := t.TempDir()
	opts := Options{Prefixes: []string{"ta", "zz"}, Batch: 1, SaveEvery: 1}

	res, err := newTestRunner(t, o, dir, opts).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"zz"}, res.State.FailedPrefixes); diff != "" {
		t.Errorf("failed mismatch (-want +got):\n%s", diff)
	}

	o.candidates["zz"] = "zzz\nzzzs"
	opts.Resume = true
	res, err = newTestRunner(t, o, dir, opts).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 1 || len(res.State.FailedPrefixes) != 0 {
		t.Errorf("expected zz to be retried and completed: processed=%d failed=%v", res.Processed, res.State.FailedPrefixes)
	}
}

func TestRun_ConcurrentWorkers(t *testing.T) {
	candidates := make(map[string]string)
	for _, r := range alphabet {
		p := string(r)
		candidates[p] = p + "word\n" + p + "thing"
	}
	o := &fakeOracle{candidates: candidates}
	dir := t.TempDir()
	r := newTestRunner(t, o, dir, Options{Mode: config.ModeOneLetter, Batch: 2, SaveEvery: 5, Workers: 4})

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 26 || len(res.State.CompletedPrefixes) != 26 {
		t.Errorf("expected all 26 prefixes completed, got %d / %d", res.Processed, len(res.State.CompletedPrefixes))
	}
	a, err := finalize.Read(res.ArtifactPath)
	if err != nil {
		t.Fatal(err)
	}
	if a.Metadata.TotalEntries != 52 {
		t.Errorf("expected 52 entries, got %d", a.Metadata.TotalEntries)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := &fakeOracle{}
	dir := t.TempDir()
	_, err := newTestRunner(t, o, dir, Options{Prefixes: []string{"ta"}, Batch: 1}).Run(ctx)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if o.calls.Load() != 0 {
		t.Errorf("no oracle call may start after shutdown, got %d", o.calls.Load())
	}
	if _, err := os.Stat(filepath.Join(dir, "dict_progress_ko.json")); err != nil {
		t.Errorf("expected a checkpoint on shutdown: %v", err)
	}
}

func TestRun_UnsupportedMode(t *testing.T) {
	o := &fakeOracle{}
	_, err := newTestRunner(t, o, t.TempDir(), Options{Mode: "3letter"}).Run(context.Background())
	if !errors.Is(err, config.ErrUnsupportedMode) {
		t.Errorf("expected ErrUnsupportedMode, got %v", err)
	}
	if o.calls.Load() != 0 {
		t.Error("configuration errors must fail before any oracle call")
	}
}
