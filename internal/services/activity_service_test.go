package services

import (
	"context"
	"errors"
	"testing"

	"github.com/mopc-digital/expedientes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityService_Record_PersistsNormalizedEntry(t *testing.T) {
	var got *models.Activity
	repo := &MockActivityRepository{
		CreateFunc: func(ctx context.Context, a *models.Activity) (*models.Activity, error) {
			got = a
			return a, nil
		},
	}
	svc := NewActivityService(repo, testLogger())

	actorID := "user_1"
	svc.Record(context.Background(), ActivityEntry{
		ActorID:    &actorID,
		Action:     models.ActionCreate,
		EntityType: models.EntityTypeCase,
		EntityID:   "case_1",
		Metadata: map[string]any{
			"count":   int64(3),
			"dropped": func() {},
		},
	})

	require.NotNil(t, got)
	assert.Equal(t, models.ActionCreate, got.Action)
	assert.Equal(t, float64(3), got.Metadata["count"], "numbers are coerced on the way in")
	assert.NotContains(t, got.Metadata, "dropped", "unsupported values are dropped")
}

func TestActivityService_Record_SwallowsRepositoryError(t *testing.T) {
	repo := &MockActivityRepository{
		CreateFunc: func(ctx context.Context, a *models.Activity) (*models.Activity, error) {
			return nil, errors.New("write failed")
		},
	}
	svc := NewActivityService(repo, testLogger())

	// Must not panic or propagate; Record has no error to return.
	svc.Record(context.Background(), ActivityEntry{
		Action:     models.ActionView,
		EntityType: models.EntityTypeDocument,
		EntityID:   "doc_1",
	})
}

func TestActivityService_ListRecent_ClampsPageSize(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &MockActivityRepository{
		ListRecentFunc: func(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
			gotLimit = limit
			gotOffset = offset
			return []*models.Activity{}, nil
		},
	}
	svc := NewActivityService(repo, testLogger())

	_, err := svc.ListRecent(context.Background(), 5000, -3)

	require.NoError(t, err)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestActivityService_ListByActor(t *testing.T) {
	repo := &MockActivityRepository{
		ListByActorFunc: func(ctx context.Context, actorID string, limit, offset int) ([]*models.Activity, error) {
			assert.Equal(t, "user_1", actorID)
			return []*models.Activity{{ID: "act_1"}, {ID: "act_2"}}, nil
		},
	}
	svc := NewActivityService(repo, testLogger())

	activities, err := svc.ListByActor(context.Background(), "user_1", 20, 0)

	require.NoError(t, err)
	assert.Len(t, activities, 2)
}
