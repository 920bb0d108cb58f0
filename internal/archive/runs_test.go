package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/battery-scm/backend-go/internal/domain"
	"github.com/andresuchdata/battery-scm/backend-go/internal/storage"
	"github.com/andresuchdata/battery-scm/backend-go/pkg/apperror"
)

func TestRunArchive_SaveListGet(t *testing.T) {
	ctx := context.Background()
	objects := storage.NewMemoryStorage()
	a := NewRunArchive(objects, "/runs/")

	older := &domain.MRPRun{
		ID:        "run-a",
		CreatedAt: time.Date(2026, 10, 13, 23, 0, 0, 0, time.UTC),
		Shortages: 1,
		Report:    &domain.RequirementsReport{ActiveProductions: 2},
	}
	newer := &domain.MRPRun{
		ID:        "run-b",
		CreatedAt: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
	}

	key, err := a.Save(ctx, older)
	require.NoError(t, err)
	assert.Equal(t, "runs/2026/10/13/run-a.json", key)
	_, err = a.Save(ctx, newer)
	require.NoError(t, err)

	// Unrelated objects under the prefix are skipped.
	require.NoError(t, objects.PutObject(ctx, "runs/README.txt", []byte("x"), "text/plain"))

	list, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "run-b", list[0].ID)
	assert.Equal(t, "run-a", list[1].ID)
	assert.Positive(t, list[1].Size)

	got, err := a.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Shortages)
	require.NotNil(t, got.Report)
	assert.Equal(t, 2, got.Report.ActiveProductions)
	assert.True(t, got.CreatedAt.Equal(older.CreatedAt))

	_, err = a.Get(ctx, "run-zzz")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestRunArchive_EmptyPrefix(t *testing.T) {
	a := NewRunArchive(storage.NewMemoryStorage(), "")
	run := &domain.MRPRun{ID: "x", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2026/01/02/x.json", a.Key(run))
}
