package models

// FarmType distinguishes backyard holdings from commercial operations.
type FarmType string

const (
	FarmTypeBackyard   FarmType = "backyard"
	FarmTypeCommercial FarmType = "commercial"
)

// SpeciesType is the coded species category shared by farms and flocks.
type SpeciesType string

const (
	SpeciesAvian    SpeciesType = "AVI"
	SpeciesBovine   SpeciesType = "BOV"
	SpeciesSuine    SpeciesType = "SUI"
	SpeciesCaprine  SpeciesType = "CAP"
	SpeciesOvine    SpeciesType = "OVI"
	SpeciesEquine   SpeciesType = "EQU"
	SpeciesLeporine SpeciesType = "LEP"
	SpeciesPisces   SpeciesType = "PIS"
	SpeciesCamelid  SpeciesType = "CAM"
	SpeciesApiary   SpeciesType = "API"
)

// Farm mirrors the farm records served by the remote registry.
type Farm struct {
	ID                  int64       `json:"id"`
	Name                string      `json:"name"`
	FarmNumber          string      `json:"farm_number"`
	State               string      `json:"state"`
	District            string      `json:"district"`
	Village             string      `json:"village"`
	FarmType            FarmType    `json:"farm_type"`
	SpeciesType         SpeciesType `json:"species_type"`
	TotalAnimals        int         `json:"total_animals"`
	AvgWeight           float64     `json:"avg_weight"`
	AvgFeedConsumption  float64     `json:"avg_feed_consumption"`
	AvgWaterConsumption float64     `json:"avg_water_consumption"`
	OwnerName           string      `json:"owner_name,omitempty"`
}

// Flock belongs to exactly one farm.
type Flock struct {
	ID          int64       `json:"id"`
	FarmID      int64       `json:"farm"`
	FlockTag    string      `json:"flock_tag"`
	SpeciesType SpeciesType `json:"species_type"`
	Size        int         `json:"size"`
	AgeInWeeks  int         `json:"age_in_weeks"`
}

// Animal belongs to exactly one flock. The tag is derived server-side from
// the farm number, flock tag and a sequence; clients only display it.
type Animal struct {
	ID        int64  `json:"id"`
	FlockID   int64  `json:"flock"`
	AnimalTag string `json:"animal_tag"`
}
