package database_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"grc-risk/internal/apperr"
	"grc-risk/internal/database"
	"grc-risk/internal/models"
	"grc-risk/internal/scoring"
)

func newStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(context.Background(), database.Options{
		DSN:             filepath.Join(t.TempDir(), "risks.db"),
		ConnectAttempts: 1,
	})
	gt.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insert(t *testing.T, store *database.Store, asset string, likelihood, impact int) models.Risk {
	t.Helper()
	r := models.NewRisk(asset, "threat", likelihood, impact)
	gt.NoError(t, store.CreateRisk(context.Background(), &r))
	return r
}

func TestOpen(t *testing.T) {
	t.Run("sqlite is the default driver", func(t *testing.T) {
		store := newStore(t)
		gt.Equal(t, store.Driver(), "sqlite")
		gt.NoError(t, store.Ping(context.Background()))
	})

	t.Run("empty DSN", func(t *testing.T) {
		_, err := database.Open(context.Background(), database.Options{})
		gt.Error(t, err)
	})
}

func TestRiskCRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	t.Run("round trip", func(t *testing.T) {
		created := insert(t, store, "Web Application", 4, 5)
		gt.True(t, created.ID > 0)
		gt.False(t, created.CreatedAt.IsZero())

		got, err := store.GetRisk(ctx, created.ID)
		gt.NoError(t, err)
		gt.Equal(t, got.Score, 20)
		gt.Equal(t, got.Level, scoring.LevelCritical)
		gt.Equal(t, got.View().MitigationHint, "Immediate mitigation required + executive reporting")
	})

	t.Run("ids are increasing", func(t *testing.T) {
		a := insert(t, store, "A", 1, 1)
		b := insert(t, store, "B", 1, 1)
		gt.True(t, b.ID > a.ID)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := store.GetRisk(ctx, 99999)
		gt.Error(t, err)
		gt.True(t, apperr.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		r := insert(t, store, "Temp", 2, 2)
		gt.NoError(t, store.DeleteRisk(ctx, r.ID))

		_, err := store.GetRisk(ctx, r.ID)
		gt.True(t, apperr.IsNotFound(err))
	})

	t.Run("delete missing leaves table untouched", func(t *testing.T) {
		before, err := store.CountRisks(ctx)
		gt.NoError(t, err)

		err = store.DeleteRisk(ctx, 99999)
		gt.Error(t, err)
		gt.True(t, apperr.IsNotFound(err))

		after, err := store.CountRisks(ctx)
		gt.NoError(t, err)
		gt.Equal(t, after, before)
	})
}

func TestListRisks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	t.Run("empty table", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, "")
		gt.NoError(t, err)
		gt.Equal(t, len(risks), 0)
	})

	low := insert(t, store, "Low", 1, 2)
	firstHigh := insert(t, store, "High 1", 4, 4)
	critical := insert(t, store, "Critical", 5, 5)
	secondHigh := insert(t, store, "High 2", 4, 4)

	t.Run("score desc then newest first", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, "")
		gt.NoError(t, err)
		gt.Equal(t, len(risks), 4)
		gt.Equal(t, risks[0].ID, critical.ID)
		gt.Equal(t, risks[1].ID, secondHigh.ID)
		gt.Equal(t, risks[2].ID, firstHigh.ID)
		gt.Equal(t, risks[3].ID, low.ID)
	})

	t.Run("filter by level", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, "High")
		gt.NoError(t, err)
		gt.Equal(t, len(risks), 2)
		for _, r := range risks {
			gt.Equal(t, r.Level, scoring.LevelHigh)
		}
	})

	t.Run("unknown level matches nothing", func(t *testing.T) {
		risks, err := store.ListRisks(ctx, "Severe")
		gt.NoError(t, err)
		gt.Equal(t, len(risks), 0)
	})
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	st, err := store.Stats(ctx)
	gt.NoError(t, err)
	gt.Equal(t, st.TotalRisks, 0)
	gt.Equal(t, st.AverageScore, 0.0)

	insert(t, store, "A", 5, 5)
	insert(t, store, "B", 5, 5)
	insert(t, store, "C", 1, 1)

	st, err = store.Stats(ctx)
	gt.NoError(t, err)
	gt.Equal(t, st.TotalRisks, 3)
	gt.Equal(t, st.HighCriticalCount, 2)
	gt.Equal(t, st.AverageScore, 17.0)

	hm, err := store.Heatmap(ctx)
	gt.NoError(t, err)
	gt.Equal(t, hm["5-5"].Count, 2)
	gt.Equal(t, hm["5-5"].Assets, []string{"A", "B"})
	gt.Equal(t, hm["5-5"].Level, scoring.LevelCritical)
	gt.Equal(t, hm["1-1"].Level, scoring.LevelLow)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds an empty table once", func(t *testing.T) {
		store := newStore(t)

		n, err := store.Seed(ctx, database.DefaultSeed)
		gt.NoError(t, err)
		gt.Equal(t, n, len(database.DefaultSeed))

		n, err = store.Seed(ctx, database.DefaultSeed)
		gt.NoError(t, err)
		gt.Equal(t, n, 0)

		count, err := store.CountRisks(ctx)
		gt.NoError(t, err)
		gt.Equal(t, count, int64(len(database.DefaultSeed)))

		risks, err := store.ListRisks(ctx, "")
		gt.NoError(t, err)
		gt.Equal(t, risks[0].Asset, "Customer Database")
		gt.Equal(t, risks[0].Level, scoring.LevelCritical)
	})

	t.Run("skips a table that has data", func(t *testing.T) {
		store := newStore(t)
		insert(t, store, "Existing", 1, 1)

		n, err := store.Seed(ctx, database.DefaultSeed)
		gt.NoError(t, err)
		gt.Equal(t, n, 0)
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Seed(ctx, []models.RiskInput{
			{Asset: "A", Threat: "T", Likelihood: 9, Impact: 1},
		})
		gt.Error(t, err)
		gt.True(t, apperr.IsValidation(err))

		count, err := store.CountRisks(ctx)
		gt.NoError(t, err)
		gt.Equal(t, count, int64(0))
	})
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "seed.yaml")
		gt.NoError(t, os.WriteFile(path, []byte(`risks:
  - asset: Payroll
    threat: Fraud
    likelihood: 3
    impact: 5
  - asset: VPN
    threat: Credential Stuffing
    likelihood: 4
    impact: 3
`), 0o600))

		inputs, err := database.LoadSeedFile(path)
		gt.NoError(t, err)
		gt.Equal(t, len(inputs), 2)

		r, err := inputs[0].Validate()
		gt.NoError(t, err)
		gt.Equal(t, r.Score, 15)
		gt.Equal(t, r.Level, scoring.LevelHigh)
	})

	t.Run("no risks", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		gt.NoError(t, os.WriteFile(path, []byte("risks: []\n"), 0o600))
		_, err := database.LoadSeedFile(path)
		gt.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := database.LoadSeedFile(filepath.Join(dir, "nope.yaml"))
		gt.Error(t, err)
	})
}
