package runner

import (
	"fmt"
	"log"
	"time"
)

// Outcome classifies one executed case. Assertion mismatches are failures;
// engine or harness faults are errors. The distinction matters for
// reporting only; both make the run non-zero.
type Outcome string

const (
	OutcomePass  Outcome = "pass"
	OutcomeFail  Outcome = "fail"
	OutcomeError Outcome = "error"
)

type TestResult struct {
	Name     string
	Outcome  Outcome
	Ticks    uint64
	Duration time.Duration
	// Detail holds the assertion failure or error message, empty on pass.
	Detail string
}

type Summary struct {
	Results []TestResult
	Skipped int // discovery failures
}

func (s *Summary) Add(r TestResult) { s.Results = append(s.Results, r) }

func (s *Summary) count(o Outcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

func (s *Summary) Passed() int  { return s.count(OutcomePass) }
func (s *Summary) Failed() int  { return s.count(OutcomeFail) }
func (s *Summary) Errored() int { return s.count(OutcomeError) }

// Ok reports whether every executed case passed.
func (s *Summary) Ok() bool { return s.Failed() == 0 && s.Errored() == 0 }

func (s *Summary) Print(logger *log.Logger) {
	for _, r := range s.Results {
		line := fmt.Sprintf("%-5s %s (%d ticks, %s)", r.Outcome, r.Name, r.Ticks, r.Duration.Round(time.Millisecond))
		if r.Detail != "" {
			line += ": " + r.Detail
		}
		logger.Print(line)
	}
	logger.Printf("%d passed, %d failed, %d errored, %d skipped at discovery",
		s.Passed(), s.Failed(), s.Errored(), s.Skipped)
}
