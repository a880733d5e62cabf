package preflight

import (
	"context"

	"reelpress/internal/config"
	"reelpress/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Skipped bool
	Detail  string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results,
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	)
	if cfg.Storage.Backend == config.StorageBackendLocal {
		results = append(results, CheckDirectoryAccess("Object store root", cfg.Storage.LocalRoot))
	}

	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckSegmentationFromConfig(ctx, cfg))
	if cfg.Generation.Backend == config.GenerationBackendLLM {
		results = append(results, CheckLLM(ctx, "Generation LLM", cfg.GetLLM()))
	}
	return results
}

// Failed returns the results that did not pass and were not skipped.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && !r.Skipped {
			out = append(out, r)
		}
	}
	return out
}

func fromStatus(s deps.Status) Result {
	r := Result{Name: s.Name, Passed: s.Available, Detail: s.Command}
	if !s.Available {
		r.Detail = s.Detail
		r.Skipped = s.Optional
	}
	return r
}
