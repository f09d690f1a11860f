package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/qtc/internal/model"
)

// RunBatch runs every identifier and returns one result per identifier in
// input order. With nproc <= 1 species run strictly one after another and
// each changes into its workspace; otherwise up to nproc run concurrently
// without touching the process working directory.
//
// Species failures are recorded in the results. The returned error is set
// only when the batch was aborted, by a strict-mode unsupported package or
// by ctx; species that never started are then reported as failed.
func (p *Pipeline) RunBatch(ctx context.Context, identifiers []string, nproc int) ([]model.SpeciesResult, error) {
	results := make([]model.SpeciesResult, len(identifiers))
	if len(identifiers) == 0 {
		return results, nil
	}

	zap.L().Info("pipeline: processing batch",
		zap.Int("species", len(identifiers)),
		zap.Int("nproc", nproc),
	)

	var err error
	if nproc <= 1 {
		err = p.runSequential(ctx, identifiers, results)
	} else {
		err = p.runParallel(ctx, identifiers, nproc, results)
	}

	var complete, failed int
	for _, r := range results {
		if r.Failed() {
			failed++
		} else {
			complete++
		}
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int("complete", complete),
		zap.Int("failed", failed),
	)
	if err != nil {
		return results, eris.Wrap(err, "pipeline: batch aborted")
	}
	return results, nil
}

func (p *Pipeline) runSequential(ctx context.Context, identifiers []string, results []model.SpeciesResult) error {
	for i, id := range identifiers {
		if err := ctx.Err(); err != nil {
			fillNotRun(identifiers[i:], results[i:], err)
			return err
		}
		r, err := p.run(ctx, id, true)
		results[i] = r
		if err != nil {
			fillNotRun(identifiers[i+1:], results[i+1:], err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) runParallel(ctx context.Context, identifiers []string, nproc int, results []model.SpeciesResult) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(nproc)

	var started atomic.Int64
	for i, id := range identifiers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = notRun(id, err)
				return nil
			}
			started.Add(1)
			r, err := p.run(gctx, id, false)
			results[i] = r
			return err
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	zap.L().Debug("pipeline: parallel batch drained", zap.Int64("started", started.Load()))
	return err
}

func fillNotRun(identifiers []string, results []model.SpeciesResult, cause error) {
	for i, id := range identifiers {
		results[i] = notRun(id, cause)
	}
}

func notRun(identifier string, cause error) model.SpeciesResult {
	return model.SpeciesResult{
		Identifier: identifier,
		Status:     model.RunStatusFailed,
		Message:    "not run, batch aborted\n",
		Error:      cause.Error(),
	}
}
