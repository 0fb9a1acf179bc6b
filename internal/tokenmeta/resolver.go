// Package tokenmeta resolves token symbols and decimals for mints
// through a chain of upstream sources with a guaranteed derived fallback.
package tokenmeta

import (
	"context"
	"log"
	"time"

	"github.com/hudakjoseph28/fadeAi/internal/domain"
	"github.com/hudakjoseph28/fadeAi/internal/observability"
	"github.com/hudakjoseph28/fadeAi/internal/storage"
	"github.com/hudakjoseph28/fadeAi/internal/wallet"
	"github.com/hudakjoseph28/fadeAi/internal/workqueue"
)

// DerivedDecimals is assumed for mints no source can describe.
const DerivedDecimals = 9

// Source is one upstream metadata provider. A source returns entries for
// the mints it knows; unknown mints are simply absent from the result.
type Source interface {
	Name() string
	Resolve(ctx context.Context, mints []string) (map[string]*domain.TokenMeta, error)
}

// Resolver chains the local store and upstream sources. Its Batch
// contract never fails: every requested mint receives an entry, derived
// if necessary.
type Resolver struct {
	store   storage.TokenMetaStore
	sources []Source
	queue   *workqueue.Queue
	logger  *log.Logger
}

// ResolverOptions contains configuration for creating a Resolver.
type ResolverOptions struct {
	Store   storage.TokenMetaStore
	Sources []Source
	Queue   *workqueue.Queue
	Logger  *log.Logger
}

// NewResolver creates a metadata resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	queue := opts.Queue
	if queue == nil {
		queue = workqueue.New(workqueue.DefaultConcurrency, workqueue.DefaultPerSecond)
	}
	return &Resolver{
		store:   opts.Store,
		sources: opts.Sources,
		queue:   queue,
		logger:  logger,
	}
}

// Batch resolves metadata for every mint. Cached entries are served from
// the store; the remainder walks the source chain and is cached. Mints
// that survive every source get a derived entry.
func (r *Resolver) Batch(ctx context.Context, mints []string) map[string]*domain.TokenMeta {
	result := make(map[string]*domain.TokenMeta, len(mints))
	if len(mints) == 0 {
		return result
	}

	pending := dedupe(mints)

	if r.store != nil {
		cached, err := r.store.GetByMints(ctx, pending)
		if err != nil {
			r.logger.Printf("metadata cache read: %v", err)
		} else {
			for mint, m := range cached {
				result[mint] = m
			}
			pending = subtract(pending, result)
			observability.RecordMetaResolved(domain.MetaSourceLocal, len(cached))
		}
	}

	for _, src := range r.sources {
		if len(pending) == 0 {
			break
		}
		resolved := r.resolveSource(ctx, src, pending)
		for mint, m := range resolved {
			result[mint] = m
			r.cache(ctx, m)
		}
		if len(resolved) > 0 {
			observability.RecordMetaResolved(src.Name(), len(resolved))
			pending = subtract(pending, result)
		}
	}

	for _, mint := range pending {
		m := Derived(mint)
		result[mint] = m
		observability.RecordMetaResolved(domain.MetaSourceDerived, 1)
	}
	return result
}

// resolveSource runs one source through the rate-limit queue. Source
// failures degrade to an empty result.
func (r *Resolver) resolveSource(ctx context.Context, src Source, mints []string) map[string]*domain.TokenMeta {
	var resolved map[string]*domain.TokenMeta
	err := r.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		resolved, err = src.Resolve(ctx, mints)
		return err
	})
	if err != nil {
		r.logger.Printf("metadata source %s: %v", src.Name(), err)
		return nil
	}
	return resolved
}

func (r *Resolver) cache(ctx context.Context, m *domain.TokenMeta) {
	if r.store == nil {
		return
	}
	if err := r.store.Upsert(ctx, m); err != nil {
		r.logger.Printf("metadata cache write mint=%s: %v", m.Mint, err)
	}
}

// Derived builds the fallback entry for an unresolvable mint.
func Derived(mint string) *domain.TokenMeta {
	return &domain.TokenMeta{
		Mint:      mint,
		Symbol:    wallet.Short(mint),
		Decimals:  DerivedDecimals,
		Source:    domain.MetaSourceDerived,
		UpdatedAt: time.Now().UnixMilli(),
	}
}

func dedupe(mints []string) []string {
	seen := make(map[string]struct{}, len(mints))
	out := make([]string, 0, len(mints))
	for _, m := range mints {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func subtract(mints []string, resolved map[string]*domain.TokenMeta) []string {
	out := mints[:0]
	for _, m := range mints {
		if _, ok := resolved[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}
