// ABOUTME: Test runner orchestrating built-in checks and external suite scripts
// ABOUTME: Waits for the device, runs checks through the aggregator, reports a summary

package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/harper/mcp-probe/internal/client"
	"github.com/harper/mcp-probe/internal/config"
	"github.com/harper/mcp-probe/internal/logagg"
	"github.com/harper/mcp-probe/internal/logger"
)

// Result records one check or script outcome.
type Result struct {
	Name     string
	Passed   bool
	Duration time.Duration
	Err      error
}

// Summary aggregates results after a run.
type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Results []Result
}

// SuccessRate returns the passed fraction in percent, 100 for an empty run.
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Passed) / float64(s.Total) * 100
}

// Runner drives a diagnostic session against one device.
type Runner struct {
	client  *client.Client
	agg     *logagg.Aggregator
	target  string
	results []Result
}

func New(c *client.Client, agg *logagg.Aggregator, target string) *Runner {
	return &Runner{
		client: c,
		agg:    agg,
		target: target,
	}
}

// WaitForDevice retries TCP connects with exponential backoff until the
// device accepts a connection or the deadline passes. The probe connection
// is closed again; checks open their own.
func (r *Runner) WaitForDevice(ctx context.Context, maxWait time.Duration) error {
	r.emit(logagg.LevelInfo, fmt.Sprintf("waiting for device at %s", r.target))

	bf := backoff.NewExponentialBackOff()
	bf.InitialInterval = 250 * time.Millisecond
	bf.MaxInterval = 2 * time.Second
	bf.MaxElapsedTime = maxWait

	err := backoff.Retry(func() error {
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		default:
		}

		if err := r.client.Connect(ctx); err != nil {
			logger.Debug("device not ready: %v", err)
			return err
		}
		r.client.Disconnect()
		return nil
	}, backoff.WithContext(bf, ctx))

	if err != nil {
		r.emit(logagg.LevelError, fmt.Sprintf("device did not come up within %s: %v", maxWait, err))
		return fmt.Errorf("waiting for device: %w", err)
	}

	r.emit(logagg.LevelInfo, "device is accepting connections")
	return nil
}

// RunChecks executes the built-in protocol checks in order. Checks after
// a failed connect or initialize are skipped since they cannot pass.
func (r *Runner) RunChecks(ctx context.Context) {
	checks := builtinChecks()

	for i, chk := range checks {
		res := r.runCheck(ctx, chk)
		r.results = append(r.results, res)

		// connect and initialize gate everything after them
		if !res.Passed && i < 2 {
			r.emit(logagg.LevelError, fmt.Sprintf("aborting remaining checks after %s failure", chk.name))
			for _, skipped := range checks[i+1:] {
				r.results = append(r.results, Result{
					Name: skipped.name,
					Err:  fmt.Errorf("skipped: %s failed", chk.name),
				})
			}
			break
		}
	}

	r.client.Disconnect()
}

// RunSuite executes the configured external scripts through the aggregator.
func (r *Runner) RunSuite(ctx context.Context, suite []config.SuiteItem) {
	for _, item := range suite {
		name := item.Name
		if name == "" {
			name = item.Script
		}

		start := time.Now()
		passed := r.agg.RunScript(ctx, item.Script, r.target, item.Args, item.Env)
		r.results = append(r.results, Result{
			Name:     name,
			Passed:   passed,
			Duration: time.Since(start),
		})

		if ctx.Err() != nil {
			return
		}
	}
}

// Finish emits the run summary through the aggregator and returns it.
func (r *Runner) Finish() Summary {
	s := Summary{Results: r.results}
	for _, res := range r.results {
		s.Total++
		if res.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}

	r.emit(logagg.LevelTest, fmt.Sprintf("results: %d/%d passed (%.1f%%)", s.Passed, s.Total, s.SuccessRate()))
	for _, res := range r.results {
		if !res.Passed {
			r.emit(logagg.LevelError, fmt.Sprintf("failed: %s: %v", res.Name, res.Err))
		}
	}

	return s
}

func (r *Runner) runCheck(ctx context.Context, chk check) Result {
	r.emit(logagg.LevelTest, fmt.Sprintf("starting test: %s", chk.name))

	start := time.Now()
	err := chk.fn(ctx, r.client)
	res := Result{
		Name:     chk.name,
		Passed:   err == nil,
		Duration: time.Since(start),
		Err:      err,
	}

	if res.Passed {
		r.emit(logagg.LevelTest, fmt.Sprintf("test completed successfully: %s (%s)", chk.name, res.Duration.Round(time.Millisecond)))
	} else {
		r.emit(logagg.LevelError, fmt.Sprintf("test failed: %s: %v", chk.name, err))
	}

	return res
}

func (r *Runner) emit(level logagg.Level, msg string) {
	r.agg.Enqueue(logagg.NewEntry(logagg.SourceDriver, level, msg))
}
