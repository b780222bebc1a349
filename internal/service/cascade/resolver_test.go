package cascade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

type stubIdentity struct{}

func (stubIdentity) Current() (models.User, error) {
	return models.User{Email: "op@example.com", Role: models.RoleDataOperator}, nil
}

type fakeClient struct {
	farms   func(ctx context.Context, email string) ([]models.Farm, error)
	flocks  func(ctx context.Context, email string, farmID int64) ([]models.Flock, error)
	animals func(ctx context.Context, email string, flockID int64) ([]models.Animal, error)
	drugs   func(ctx context.Context, species models.SpeciesType) ([]models.Drug, error)
}

func (f *fakeClient) ListFarms(ctx context.Context, email string) ([]models.Farm, error) {
	return f.farms(ctx, email)
}

func (f *fakeClient) ListFlocks(ctx context.Context, email string, farmID int64) ([]models.Flock, error) {
	return f.flocks(ctx, email, farmID)
}

func (f *fakeClient) ListAnimals(ctx context.Context, email string, flockID int64) ([]models.Animal, error) {
	return f.animals(ctx, email, flockID)
}

func (f *fakeClient) ListDrugs(ctx context.Context, species models.SpeciesType) ([]models.Drug, error) {
	return f.drugs(ctx, species)
}

var testFarms = []models.Farm{
	{ID: 1, Name: "Sunrise Poultry", FarmNumber: "TN-001", SpeciesType: models.SpeciesAvian},
	{ID: 2, Name: "Green Valley", FarmNumber: "TN-002", SpeciesType: models.SpeciesBovine},
}

func newTestResolver(t *testing.T, client *fakeClient) *Resolver {
	t.Helper()

	if client.farms == nil {
		client.farms = func(context.Context, string) ([]models.Farm, error) {
			return testFarms, nil
		}
	}
	r := NewResolver(client, stubIdentity{}, nil)
	require.NoError(t, r.LoadFarms(context.Background()))
	return r
}

func TestSelectFarm_LoadsFlocks(t *testing.T) {
	client := &fakeClient{
		flocks: func(_ context.Context, _ string, farmID int64) ([]models.Flock, error) {
			return []models.Flock{{ID: 10, FarmID: farmID, FlockTag: "FL-A"}}, nil
		},
	}
	r := newTestResolver(t, client)

	require.NoError(t, r.SelectFarm(context.Background(), 1))

	flocks := r.Flocks()
	require.Len(t, flocks, 1)
	assert.Equal(t, "FL-A", flocks[0].FlockTag)
	require.NotNil(t, r.Selection().Farm)
	assert.Equal(t, int64(1), r.Selection().Farm.ID)
}

func TestSelectFarm_ClearsDownstreamSelection(t *testing.T) {
	client := &fakeClient{
		flocks: func(_ context.Context, _ string, farmID int64) ([]models.Flock, error) {
			return []models.Flock{{ID: farmID * 10, FarmID: farmID, SpeciesType: models.SpeciesAvian}}, nil
		},
		animals: func(_ context.Context, _ string, flockID int64) ([]models.Animal, error) {
			return []models.Animal{{ID: 100, FlockID: flockID, AnimalTag: "TN-001-A-001"}}, nil
		},
	}
	r := newTestResolver(t, client)

	require.NoError(t, r.SelectFarm(context.Background(), 1))
	require.NoError(t, r.SelectFlock(context.Background(), 10))
	require.NoError(t, r.SelectAnimal(100))

	require.NoError(t, r.SelectFarm(context.Background(), 2))

	sel := r.Selection()
	require.NotNil(t, sel.Farm)
	assert.Equal(t, int64(2), sel.Farm.ID)
	assert.Nil(t, sel.Flock)
	assert.Nil(t, sel.Animal)
	assert.Empty(t, r.Animals())
}

func TestSelectFarm_StaleResponseDiscarded(t *testing.T) {
	flocksF1 := []models.Flock{{ID: 10, FarmID: 1, FlockTag: "OLD"}}
	flocksF2 := []models.Flock{{ID: 20, FarmID: 2, FlockTag: "NEW"}}

	entered := make(chan struct{})
	release := make(chan struct{})
	client := &fakeClient{
		flocks: func(_ context.Context, _ string, farmID int64) ([]models.Flock, error) {
			if farmID == 1 {
				close(entered)
				<-release
				return flocksF1, nil
			}
			return flocksF2, nil
		},
	}
	r := newTestResolver(t, client)

	done := make(chan error, 1)
	go func() { done <- r.SelectFarm(context.Background(), 1) }()
	<-entered

	// The user changes their mind while farm 1's flocks are still in flight.
	require.NoError(t, r.SelectFarm(context.Background(), 2))
	close(release)
	require.NoError(t, <-done)

	flocks := r.Flocks()
	require.Len(t, flocks, 1)
	assert.Equal(t, "NEW", flocks[0].FlockTag)
	assert.Equal(t, int64(2), r.Selection().Farm.ID)
}

func TestSelectFlock_RequiresFarm(t *testing.T) {
	r := newTestResolver(t, &fakeClient{})

	err := r.SelectFlock(context.Background(), 10)
	require.ErrorIs(t, err, ErrNoFarmSelected)
}

func TestSelectAnimal_RequiresFlock(t *testing.T) {
	client := &fakeClient{
		flocks: func(context.Context, string, int64) ([]models.Flock, error) { return nil, nil },
	}
	r := newTestResolver(t, client)
	require.NoError(t, r.SelectFarm(context.Background(), 1))

	err := r.SelectAnimal(100)
	require.ErrorIs(t, err, ErrNoFlockSelected)
}

func TestSelectFarm_FetchFailureEmptiesFlockList(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	client := &fakeClient{
		flocks: func(_ context.Context, _ string, farmID int64) ([]models.Flock, error) {
			calls++
			if calls == 1 {
				return []models.Flock{{ID: 10, FarmID: farmID}}, nil
			}
			return nil, boom
		},
	}
	r := newTestResolver(t, client)

	require.NoError(t, r.SelectFarm(context.Background(), 1))
	require.NotEmpty(t, r.Flocks())

	err := r.SelectFarm(context.Background(), 2)
	require.ErrorIs(t, err, boom)
	assert.Empty(t, r.Flocks(), "failed fetch must not keep the previous farm's flocks")
}

func TestTargetIntent_UsesDeepestSelection(t *testing.T) {
	client := &fakeClient{
		flocks: func(_ context.Context, _ string, farmID int64) ([]models.Flock, error) {
			return []models.Flock{{ID: 10, FarmID: farmID, SpeciesType: models.SpeciesAvian}}, nil
		},
		animals: func(_ context.Context, _ string, flockID int64) ([]models.Animal, error) {
			return []models.Animal{{ID: 100, FlockID: flockID}}, nil
		},
	}
	r := newTestResolver(t, client)

	_, err := r.TargetIntent()
	require.ErrorIs(t, err, ErrNoFarmSelected)

	require.NoError(t, r.SelectFarm(context.Background(), 1))
	intent, err := r.TargetIntent()
	require.NoError(t, err)
	assert.Equal(t, int64(1), intent.FarmID)
	assert.Zero(t, intent.FlockID)

	require.NoError(t, r.SelectFlock(context.Background(), 10))
	require.NoError(t, r.SelectAnimal(100))
	intent, err = r.TargetIntent()
	require.NoError(t, err)
	assert.Equal(t, int64(10), intent.FlockID)
	assert.Equal(t, int64(100), intent.AnimalID)
}

func TestDrugsForSelection_PrefersFlockSpecies(t *testing.T) {
	var askedSpecies models.SpeciesType
	client := &fakeClient{
		flocks: func(_ context.Context, _ string, farmID int64) ([]models.Flock, error) {
			return []models.Flock{{ID: 10, FarmID: farmID, SpeciesType: models.SpeciesBovine}}, nil
		},
		animals: func(context.Context, string, int64) ([]models.Animal, error) {
			return nil, nil
		},
		drugs: func(_ context.Context, species models.SpeciesType) ([]models.Drug, error) {
			askedSpecies = species
			return []models.Drug{{ID: 1, Name: "Oxytetracycline"}}, nil
		},
	}
	r := newTestResolver(t, client)

	_, err := r.DrugsForSelection(context.Background())
	require.ErrorIs(t, err, ErrNoFarmSelected)

	require.NoError(t, r.SelectFarm(context.Background(), 1))
	_, err = r.DrugsForSelection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SpeciesAvian, askedSpecies, "farm species when no flock selected")

	require.NoError(t, r.SelectFlock(context.Background(), 10))
	drugs, err := r.DrugsForSelection(context.Background())
	require.NoError(t, err)
	require.Len(t, drugs, 1)
	assert.Equal(t, models.SpeciesBovine, askedSpecies, "flock species overrides farm species")
}
