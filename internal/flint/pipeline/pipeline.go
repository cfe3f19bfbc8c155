// Package pipeline wires the full harness run: discover specs, select them
// under the run filter, execute each against an isolated world, then
// persist outcomes to the cache index and the optional artifacts.
package pipeline

import (
	"log"
	"sync"
	"time"

	"flint.dev/internal/flint"
	"flint.dev/internal/flint/config"
	"flint.dev/internal/flint/index"
	"flint.dev/internal/flint/runlog"
	"flint.dev/internal/flint/runner"
	"flint.dev/internal/flint/spec"
)

type Pipeline struct {
	cfg     *config.Config
	adapter flint.Adapter
	log     *log.Logger
}

func New(cfg *config.Config, adapter flint.Adapter, logger *log.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, adapter: adapter, log: logger}
}

// Run executes one full pipeline pass. The returned summary covers every
// executed case; cache or artifact write failures are logged but do not
// invalidate computed outcomes.
func (p *Pipeline) Run() (*runner.Summary, error) {
	specs, skipped, err := spec.Discover(p.cfg.TestDir, p.cfg.DefaultTag, p.log)
	if err != nil {
		return nil, err
	}

	f := p.cfg.Filter()
	selected := make([]spec.TestSpec, 0, len(specs))
	for _, sp := range specs {
		if f.Matches(sp.Name, sp.Tags) {
			selected = append(selected, sp)
		}
	}
	p.log.Printf("discovered %d specs (%d skipped), selected %d", len(specs), skipped, len(selected))

	summary := &runner.Summary{Skipped: skipped}
	results := p.execute(selected)
	for _, r := range results {
		summary.Add(r)
	}

	p.persist(summary)
	return summary, nil
}

// execute runs the selected specs on FLINT_PARALLEL workers. Each case owns
// its world/player/sink triple exclusively; only the result slice is shared,
// and each worker writes a disjoint slot.
func (p *Pipeline) execute(selected []spec.TestSpec) []runner.TestResult {
	results := make([]runner.TestResult, len(selected))
	if p.cfg.Parallel <= 1 {
		for i, sp := range selected {
			results[i] = p.runOne(sp)
		}
		return results
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.cfg.Parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.runOne(selected[i])
			}
		}()
	}
	for i := range selected {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func (p *Pipeline) runOne(sp spec.TestSpec) runner.TestResult {
	r := runner.RunSpec(p.adapter, sp)
	p.log.Printf("%s: %s", r.Name, r.Outcome)
	return r
}

// persist merges outcomes into the cache index and mirrors them to the
// history DB and run log when configured.
func (p *Pipeline) persist(summary *runner.Summary) {
	ix := index.Load(p.cfg.IndexPath)
	for _, r := range summary.Results {
		ix.Put(r.Name, index.Entry{
			Outcome:    string(r.Outcome),
			DurationMS: r.Duration.Milliseconds(),
			Ticks:      r.Ticks,
		})
	}
	if err := ix.Save(); err != nil {
		p.log.Printf("cache index not written: %v", err)
	}

	if p.cfg.HistoryDB != "" {
		h, err := index.OpenHistory(p.cfg.HistoryDB, p.adapter.Info().EngineVersion)
		if err != nil {
			p.log.Printf("history db unavailable: %v", err)
		} else {
			for _, r := range summary.Results {
				h.Record(r.Name, string(r.Outcome), r.Detail, r.Ticks, r.Duration)
			}
			if err := h.Close(); err != nil {
				p.log.Printf("history db close: %v", err)
			}
		}
	}

	if p.cfg.RunLog != "" {
		w, err := runlog.NewWriter(p.cfg.RunLog)
		if err != nil {
			p.log.Printf("run log unavailable: %v", err)
			return
		}
		for _, r := range summary.Results {
			e := runlog.Entry{
				Name:       r.Name,
				Outcome:    string(r.Outcome),
				Detail:     r.Detail,
				Ticks:      r.Ticks,
				DurationMS: r.Duration.Milliseconds(),
				RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
			}
			if err := w.Write(e); err != nil {
				p.log.Printf("run log write: %v", err)
				break
			}
		}
		if err := w.Close(); err != nil {
			p.log.Printf("run log close: %v", err)
		}
	}
}
