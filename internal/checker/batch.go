package checker

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/August26/proxyprobe/internal/model"
)

// ProxyProber is satisfied by *Prober.
type ProxyProber interface {
	Probe(ctx context.Context, addr model.ProxyAddress) model.ProbeResult
}

// Recorder persists a single probe outcome.
type Recorder interface {
	Record(res model.ProbeResult) error
}

type BatchOptions struct {
	// Concurrency <= 1 probes strictly one proxy at a time.
	Concurrency int
	// OnResult, if set, is called after each result has been recorded.
	OnResult func(model.ProbeResult)
	Log      zerolog.Logger
}

// RunBatch probes every proxy and records each result in input order.
//
// A failed probe never stops the batch. A Recorder error does, and is returned
// together with the results recorded so far. If ctx is cancelled, probes still
// running are dropped rather than recorded as dead, and ctx.Err() is returned.
func RunBatch(ctx context.Context, proxies []model.ProxyAddress, prober ProxyProber, rec Recorder, opts BatchOptions) ([]model.ProbeResult, error) {
	if opts.Concurrency <= 1 {
		return runSequential(ctx, proxies, prober, rec, opts)
	}
	return runPool(ctx, proxies, prober, rec, opts)
}

func runSequential(ctx context.Context, proxies []model.ProxyAddress, prober ProxyProber, rec Recorder, opts BatchOptions) ([]model.ProbeResult, error) {
	out := make([]model.ProbeResult, 0, len(proxies))
	for _, addr := range proxies {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		opts.Log.Info().Str("proxy", string(addr)).Msg("checking proxy")
		res := prober.Probe(ctx, addr)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}

		if err := record(rec, res, opts); err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// runPool probes through a bounded errgroup while this goroutine stays the
// only writer. Each proxy gets a one-slot channel so results are drained in
// input order no matter which probe finishes first.
func runPool(ctx context.Context, proxies []model.ProxyAddress, prober ProxyProber, rec Recorder, opts BatchOptions) ([]model.ProbeResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	slots := make([]chan model.ProbeResult, len(proxies))
	for i := range slots {
		slots[i] = make(chan model.ProbeResult, 1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, addr := range proxies {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				opts.Log.Info().Str("proxy", string(addr)).Msg("checking proxy")
				res := prober.Probe(gctx, addr)
				if gctx.Err() == nil {
					slots[i] <- res
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	out := make([]model.ProbeResult, 0, len(proxies))
	for i := range slots {
		res, ok := next(slots[i], done)
		if !ok {
			break
		}
		if err := record(rec, res, opts); err != nil {
			cancel()
			<-done
			return out, err
		}
		out = append(out, res)
	}
	<-done

	if len(out) < len(proxies) {
		if err := ctx.Err(); err != nil {
			return out, err
		}
	}
	return out, nil
}

// next waits for slot to be filled. Once every worker is done an empty slot
// means its probe was abandoned.
func next(slot <-chan model.ProbeResult, done <-chan struct{}) (model.ProbeResult, bool) {
	select {
	case res := <-slot:
		return res, true
	case <-done:
		select {
		case res := <-slot:
			return res, true
		default:
			return model.ProbeResult{}, false
		}
	}
}

func record(rec Recorder, res model.ProbeResult, opts BatchOptions) error {
	if err := rec.Record(res); err != nil {
		return fmt.Errorf("record %q: %w", res.Address, err)
	}
	if opts.OnResult != nil {
		opts.OnResult(res)
	}
	return nil
}
