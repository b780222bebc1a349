package cascade

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/amuvet/internal/domain/models"
)

// Identity supplies the account the cascade fetches are scoped to.
type Identity interface {
	Current() (models.User, error)
}

// Client is the slice of the AMU API the resolver depends on.
type Client interface {
	ListFarms(ctx context.Context, email string) ([]models.Farm, error)
	ListFlocks(ctx context.Context, email string, farmID int64) ([]models.Flock, error)
	ListAnimals(ctx context.Context, email string, flockID int64) ([]models.Animal, error)
	ListDrugs(ctx context.Context, species models.SpeciesType) ([]models.Drug, error)
}

// Selection errors returned to callers; all are non-fatal, the user retries
// by reselecting.
var (
	ErrNoFarmSelected  = errors.New("no farm selected")
	ErrNoFlockSelected = errors.New("no flock selected")
	ErrUnknownFarm     = errors.New("farm is not in the loaded list")
	ErrUnknownFlock    = errors.New("flock is not in the loaded list")
	ErrUnknownAnimal   = errors.New("animal is not in the loaded list")
)

// Selection is a point-in-time snapshot of the chosen farm/flock/animal.
type Selection struct {
	Farm   *models.Farm   `json:"farm,omitempty"`
	Flock  *models.Flock  `json:"flock,omitempty"`
	Animal *models.Animal `json:"animal,omitempty"`
}

// Resolver keeps the three dependent selection lists consistent with the
// currently chosen farm and flock. Selecting upstream invalidates everything
// downstream, and responses to superseded selections are discarded by
// sequence token rather than applied.
type Resolver struct {
	client   Client
	identity Identity
	logger   *zap.Logger

	mu             sync.Mutex
	farms          []models.Farm
	flocks         []models.Flock
	animals        []models.Animal
	selectedFarm   *models.Farm
	selectedFlock  *models.Flock
	selectedAnimal *models.Animal

	// Per-level supersession tokens; a fetch may only apply its result when
	// the token it was issued under is still current.
	farmSeq  uint64
	flockSeq uint64
}

// NewResolver wires a cascade resolver for the active session.
func NewResolver(client Client, identity Identity, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, identity: identity, logger: logger}
}

// LoadFarms refreshes the top-level farm list. Existing selections survive
// only if the selected farm is still present.
func (r *Resolver) LoadFarms(ctx context.Context) error {
	user, err := r.identity.Current()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.farmSeq++
	seq := r.farmSeq
	r.mu.Unlock()

	farms, fetchErr := r.client.ListFarms(ctx, user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.farmSeq {
		r.logger.Debug("discarding stale farm list", zap.Uint64("seq", seq))
		return nil
	}
	if fetchErr != nil {
		return fmt.Errorf("load farms: %w", fetchErr)
	}

	r.farms = farms
	if r.selectedFarm != nil && findFarm(farms, r.selectedFarm.ID) == nil {
		r.resetDownstreamLocked(true)
	}
	return nil
}

// SelectFarm fixes the current farm, invalidates the flock and animal
// selections, and fetches the farm's flocks. A newer SelectFarm supersedes
// any in-flight flock fetch; the stale response is discarded silently.
func (r *Resolver) SelectFarm(ctx context.Context, farmID int64) error {
	user, err := r.identity.Current()
	if err != nil {
		return err
	}

	r.mu.Lock()
	farm := findFarm(r.farms, farmID)
	if farm == nil {
		r.mu.Unlock()
		return ErrUnknownFarm
	}
	r.selectedFarm = farm
	r.resetDownstreamLocked(false)
	r.flockSeq++
	seq := r.flockSeq
	r.mu.Unlock()

	flocks, fetchErr := r.client.ListFlocks(ctx, user.Email, farmID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.flockSeq {
		r.logger.Debug("discarding stale flock list",
			zap.Int64("farm_id", farmID), zap.Uint64("seq", seq))
		return nil
	}
	if fetchErr != nil {
		r.flocks = nil
		return fmt.Errorf("load flocks for farm %d: %w", farmID, fetchErr)
	}

	r.flocks = flocks
	return nil
}

// SelectFlock fixes the current flock and fetches its animals. Valid only
// once a farm is selected.
func (r *Resolver) SelectFlock(ctx context.Context, flockID int64) error {
	user, err := r.identity.Current()
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.selectedFarm == nil {
		r.mu.Unlock()
		return ErrNoFarmSelected
	}
	flock := findFlock(r.flocks, flockID)
	if flock == nil {
		r.mu.Unlock()
		return ErrUnknownFlock
	}
	r.selectedFlock = flock
	r.selectedAnimal = nil
	r.animals = nil
	r.flockSeq++
	seq := r.flockSeq
	r.mu.Unlock()

	animals, fetchErr := r.client.ListAnimals(ctx, user.Email, flockID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.flockSeq {
		r.logger.Debug("discarding stale animal list",
			zap.Int64("flock_id", flockID), zap.Uint64("seq", seq))
		return nil
	}
	if fetchErr != nil {
		r.animals = nil
		return fmt.Errorf("load animals for flock %d: %w", flockID, fetchErr)
	}

	r.animals = animals
	return nil
}

// SelectAnimal fixes the terminal selection; no further cascade happens.
func (r *Resolver) SelectAnimal(animalID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selectedFlock == nil {
		return ErrNoFlockSelected
	}
	animal := findAnimal(r.animals, animalID)
	if animal == nil {
		return ErrUnknownAnimal
	}
	r.selectedAnimal = animal
	return nil
}

// Farms returns a copy of the loaded farm list.
func (r *Resolver) Farms() []models.Farm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Farm(nil), r.farms...)
}

// Flocks returns a copy of the flocks loaded for the selected farm.
func (r *Resolver) Flocks() []models.Flock {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Flock(nil), r.flocks...)
}

// Animals returns a copy of the animals loaded for the selected flock.
func (r *Resolver) Animals() []models.Animal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Animal(nil), r.animals...)
}

// Selection snapshots the currently chosen entities.
func (r *Resolver) Selection() Selection {
	r.mu.Lock()
	defer r.mu.Unlock()

	sel := Selection{}
	if r.selectedFarm != nil {
		farm := *r.selectedFarm
		sel.Farm = &farm
	}
	if r.selectedFlock != nil {
		flock := *r.selectedFlock
		sel.Flock = &flock
	}
	if r.selectedAnimal != nil {
		animal := *r.selectedAnimal
		sel.Animal = &animal
	}
	return sel
}

// TargetIntent seeds a treatment intent with the selected target references.
// An animal selection implies its flock and farm; leaving flock or animal
// unselected broadens the target.
func (r *Resolver) TargetIntent() (models.TreatmentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.selectedFarm == nil {
		return models.TreatmentIntent{}, ErrNoFarmSelected
	}

	intent := models.TreatmentIntent{FarmID: r.selectedFarm.ID}
	if r.selectedFlock != nil {
		intent.FlockID = r.selectedFlock.ID
	}
	if r.selectedAnimal != nil {
		intent.AnimalID = r.selectedAnimal.ID
	}
	return intent, nil
}

// DrugsForSelection fetches the antibiotic reference list scoped to the
// species of the deepest selected level (flock over farm).
func (r *Resolver) DrugsForSelection(ctx context.Context) ([]models.Drug, error) {
	r.mu.Lock()
	var species models.SpeciesType
	switch {
	case r.selectedFlock != nil:
		species = r.selectedFlock.SpeciesType
	case r.selectedFarm != nil:
		species = r.selectedFarm.SpeciesType
	}
	r.mu.Unlock()

	if species == "" {
		return nil, ErrNoFarmSelected
	}

	drugs, err := r.client.ListDrugs(ctx, species)
	if err != nil {
		return nil, fmt.Errorf("load drugs for species %s: %w", species, err)
	}
	return drugs, nil
}

// resetDownstreamLocked clears flock and animal state; withFarm also drops
// the farm selection. Callers hold the mutex.
func (r *Resolver) resetDownstreamLocked(withFarm bool) {
	if withFarm {
		r.selectedFarm = nil
	}
	r.selectedFlock = nil
	r.selectedAnimal = nil
	r.flocks = nil
	r.animals = nil
}

func findFarm(farms []models.Farm, id int64) *models.Farm {
	for i := range farms {
		if farms[i].ID == id {
			return &farms[i]
		}
	}
	return nil
}

func findFlock(flocks []models.Flock, id int64) *models.Flock {
	for i := range flocks {
		if flocks[i].ID == id {
			return &flocks[i]
		}
	}
	return nil
}

func findAnimal(animals []models.Animal, id int64) *models.Animal {
	for i := range animals {
		if animals[i].ID == id {
			return &animals[i]
		}
	}
	return nil
}
