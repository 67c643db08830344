// Package batch validates many log files concurrently.
package batch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/olegiv/logvalidator-go/internal/validator"
)

// DefaultWorkers is used when NewPool gets a non-positive worker count.
const DefaultWorkers = 4

// FileValidator validates a single file.
type FileValidator interface {
	Validate(path string) *validator.Result
}

// Pool runs a FileValidator over a lazily expanded set of paths.
type Pool struct {
	validator FileValidator
	workers   int
	logger    zerolog.Logger
}

// NewPool creates a pool running at most workers validations at once.
func NewPool(v FileValidator, workers int, logger zerolog.Logger) *Pool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Pool{validator: v, workers: workers, logger: logger}
}

// Run validates every file reachable from inputs. Each result is sent once
// on the returned channel, in no particular order. The error channel yields
// a single value after the result channel is closed.
func (p *Pool) Run(ctx context.Context, inputs []string) (<-chan *validator.Result, <-chan error) {
	results := make(chan *validator.Result)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)

		walkErr := p.Walk(gctx, inputs, func(path string) error {
			g.Go(func() error {
				res := p.validator.Validate(path)
				select {
				case results <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
			return nil
		})

		waitErr := g.Wait()
		close(results)

		if walkErr != nil {
			errc <- walkErr
			return
		}
		errc <- waitErr
	}()

	return results, errc
}

// Collect runs the pool to completion and returns the results sorted by path.
func (p *Pool) Collect(ctx context.Context, inputs []string) ([]*validator.Result, error) {
	results, errc := p.Run(ctx, inputs)

	var out []*validator.Result
	for res := range results {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })

	return out, <-errc
}

// Walk expands inputs and calls fn once per regular file. Inputs may be
// files, directories (walked recursively) or doublestar glob patterns.
func (p *Pool) Walk(ctx context.Context, inputs []string, fn func(path string) error) error {
	seen := make(map[string]bool)
	visit := func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := path
		if abs, err := filepath.Abs(path); err == nil {
			key = abs
		}
		if seen[key] {
			return nil
		}
		seen[key] = true
		return fn(path)
	}

	for _, input := range inputs {
		if err := p.expand(input, visit); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) expand(input string, visit func(string) error) error {
	if isGlob(input) {
		matches, err := doublestar.FilepathGlob(input, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
		if err != nil {
			return fmt.Errorf("failed to expand %s: %w", input, err)
		}
		if len(matches) == 0 {
			p.logger.Warn().Str("pattern", input).Msg("Pattern matched no files")
		}
		for _, m := range matches {
			if err := visit(m); err != nil {
				return err
			}
		}
		return nil
	}

	mode, err := validator.ExecutionMode(input)
	if err != nil {
		return err
	}
	if mode == validator.ModeFile {
		return visit(input)
	}

	return filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			p.logger.Warn().Str("path", path).Err(err).Msg("Skipping unreadable path")
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return visit(path)
	})
}

func isGlob(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}
