package services

import (
	"context"
	"time"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/metrics"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/utils"
)

// ProbeReporter receives the outcome of each dependency probe. err is nil
// when the dependency answered.
type ProbeReporter func(name string, err error)

// RunProbes pings every dependency once, each bounded by timeout, and
// reports the results in order.
func RunProbes(ctx context.Context, deps []Dependency, timeout time.Duration, report ProbeReporter) {
	for _, dep := range deps {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		err := dep.Ping(probeCtx)
		cancel()

		metrics.SetDependencyUp(dep.Name(), err == nil)
		if err != nil {
			metrics.IncrementError("probe", dep.Name())
			utils.LogError("DEPENDENCY PROBE FAILED", err, "dependency", dep.Name())
		}
		if report != nil {
			report(dep.Name(), err)
		}
	}
}

// ProbeLoop runs RunProbes every interval until ctx is cancelled. It always
// returns nil so it can share an errgroup with the serve loop.
func ProbeLoop(ctx context.Context, deps []Dependency, interval, timeout time.Duration, report ProbeReporter) error {
	if len(deps) == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			RunProbes(ctx, deps, timeout, report)
		}
	}
}
