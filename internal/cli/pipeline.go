// Package cli implements the csvcheck subcommands, which run the upload pipeline
// of the server on local files or URLs and print the outcome.
package cli

import (
	"context"
	"sync"
	"time"

	"chart_backend/internal/feature/ingest/adapters/csvdecoder"
	"chart_backend/internal/feature/ingest/domain"
	"chart_backend/internal/feature/ingest/domain/entity"
	"chart_backend/internal/feature/ingest/usecase"
)

// memoryStore keeps datasets for the lifetime of one command.
type memoryStore struct {
	mu       sync.Mutex
	datasets map[string]entity.Dataset
}

func newMemoryStore() *memoryStore {
	return &memoryStore{datasets: make(map[string]entity.Dataset)}
}

func (m *memoryStore) Save(ctx context.Context, ds entity.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.ID] = ds
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[id]; !ok {
		return domain.ErrDatasetNotFound
	}
	delete(m.datasets, id)
	return nil
}

// noTokens issues empty tokens; nothing is served over HTTP.
type noTokens struct{}

func (noTokens) IssueDatasetToken(string, time.Time) (string, error) { return "", nil }

// Pipeline parses sources exactly as an upload to the server would.
type Pipeline struct {
	loader *Loader
	parser *usecase.Parser
}

// NewPipeline creates a Pipeline. A nil parser uses the default normalization.
func NewPipeline(loader *Loader, parser *usecase.Parser) *Pipeline {
	if parser == nil {
		parser = usecase.NewParser()
	}
	return &Pipeline{loader: loader, parser: parser}
}

// Run loads src and returns the parsed dataset.
func (p *Pipeline) Run(ctx context.Context, src string) (*entity.Dataset, error) {
	in, closeFn, err := p.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	store := newMemoryStore()
	uc := usecase.NewUploadUsecase(store, csvdecoder.Decoder{}, noTokens{}, p.parser, usecase.UploadConfig{
		MaxBytes: p.loader.MaxBytes,
	})
	res, err := uc.Upload(ctx, in)
	if err != nil {
		return nil, err
	}
	return &res.Dataset, nil
}
