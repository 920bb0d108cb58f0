// Package archive stores MRP run snapshots as JSON objects keyed by day.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/storage"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

const contentType = "application/json"

// RunArchive writes runs under <prefix>/YYYY/MM/DD/<id>.json.
type RunArchive struct {
	store  storage.ObjectStorage
	prefix string
}

func NewRunArchive(store storage.ObjectStorage, prefix string) *RunArchive {
	return &RunArchive{store: store, prefix: strings.Trim(prefix, "/")}
}

// Key is the object key of run.
func (a *RunArchive) Key(run *domain.MRPRun) string {
	day := run.CreatedAt.UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, run.ID+".json")
}

// Save uploads run and returns its key.
func (a *RunArchive) Save(ctx context.Context, run *domain.MRPRun) (string, error) {
	payload, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("encode mrp run %s: %w", run.ID, err)
	}
	key := a.Key(run)
	if err := a.store.PutObject(ctx, key, payload, contentType); err != nil {
		return "", fmt.Errorf("archive mrp run %s: %w", run.ID, err)
	}
	return key, nil
}

// List returns archived runs, newest first.
func (a *RunArchive) List(ctx context.Context) ([]domain.MRPRunSummary, error) {
	objects, err := a.store.ListObjects(ctx, a.listPrefix())
	if err != nil {
		return nil, fmt.Errorf("list mrp runs: %w", err)
	}

	summaries := make([]domain.MRPRunSummary, 0, len(objects))
	for _, obj := range objects {
		id, ok := runID(obj.Key)
		if !ok {
			continue
		}
		summaries = append(summaries, domain.MRPRunSummary{ID: id, Key: obj.Key, Size: obj.Size})
	}
	// Keys start with the date, so reverse key order is newest first.
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Key > summaries[j].Key })
	return summaries, nil
}

// Get loads the run with the given id.
func (a *RunArchive) Get(ctx context.Context, id string) (*domain.MRPRun, error) {
	summaries, err := a.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, s := range summaries {
		if s.ID != id {
			continue
		}
		payload, err := a.store.GetObject(ctx, s.Key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("load mrp run %s: %w", id, err)
		}

		var run domain.MRPRun
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("decode mrp run %s: %w", id, err)
		}
		return &run, nil
	}
	return nil, apperror.NotFound("mrp run", id)
}

func (a *RunArchive) listPrefix() string {
	if a.prefix == "" {
		return ""
	}
	return a.prefix + "/"
}

func runID(key string) (string, bool) {
	base := path.Base(key)
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}
