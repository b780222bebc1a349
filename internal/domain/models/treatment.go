package models

import (
	"errors"
	"time"
)

// TreatmentStatus tracks where a request sits in the approval lifecycle.
type TreatmentStatus string

const (
	StatusPending  TreatmentStatus = "pending"
	StatusApproved TreatmentStatus = "approved"
	StatusRejected TreatmentStatus = "rejected"
)

// Decided reports whether the status is terminal.
func (s TreatmentStatus) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

// TreatmentReason enumerates why the antibiotic was administered.
type TreatmentReason string

const (
	ReasonTreatDisease TreatmentReason = "treat_disease"
	ReasonProphylactic TreatmentReason = "prophylactic"
	ReasonOther        TreatmentReason = "other"
)

// TreatedFor enumerates the body system the treatment addresses.
type TreatedFor string

const (
	TreatedForEnteric      TreatedFor = "enteric"
	TreatedForRespiratory  TreatedFor = "respiratory"
	TreatedForReproductive TreatedFor = "reproductive"
	TreatedForOther        TreatedFor = "other"
)

const dateLayout = "2006-01-02"

// TreatmentRequest is a logged antibiotic administration awaiting or carrying
// a veterinary decision. Exactly one of the farm/flock/animal references is
// the target: an animal reference implies its flock and farm are fixed, an
// empty animal and flock broadens the target to the whole farm.
type TreatmentRequest struct {
	ID             int64           `json:"id"`
	FarmID         int64           `json:"farm"`
	FlockID        int64           `json:"flock_id,omitempty"`
	AnimalID       int64           `json:"animal_id,omitempty"`
	AntibioticName string          `json:"antibiotic_name"`
	Reason         TreatmentReason `json:"reason"`
	TreatedFor     TreatedFor      `json:"treated_for"`
	Date           string          `json:"date"`
	Status         TreatmentStatus `json:"status"`

	// Vet-added fields, present once a reviewed approval happened.
	Dosage       string `json:"dosage,omitempty"`
	MethodIntake string `json:"method_intake,omitempty"`
	VetNotes     string `json:"vet_notes,omitempty"`

	// Denormalized farm columns the remote API includes for display.
	FarmName     string `json:"farm__name,omitempty"`
	FarmNumber   string `json:"farm__farm_number,omitempty"`
	FarmVillage  string `json:"farm__village,omitempty"`
	FarmDistrict string `json:"farm__district,omitempty"`
}

// TreatmentInbox is the dual-partition payload of the vet treatment listing.
type TreatmentInbox struct {
	Pending []TreatmentRequest `json:"pending"`
	History []TreatmentRequest `json:"history"`
}

// TreatmentIntent is a prescription submission before the server assigns it
// an identity.
type TreatmentIntent struct {
	FarmID         int64           `json:"farm"`
	FlockID        int64           `json:"flock_id,omitempty"`
	AnimalID       int64           `json:"animal_id,omitempty"`
	AntibioticName string          `json:"antibiotic_name"`
	Reason         TreatmentReason `json:"reason"`
	TreatedFor     TreatedFor      `json:"treated_for"`
	Date           string          `json:"date"`
}

// ErrMissingTarget indicates no farm, flock or animal was referenced.
var ErrMissingTarget = errors.New("treatment intent needs a farm, flock or animal target")

// Validate checks the intent before it is allowed near the network.
func (i TreatmentIntent) Validate() error {
	if i.FarmID == 0 {
		return ErrMissingTarget
	}
	if i.AnimalID != 0 && i.FlockID == 0 {
		return errors.New("animal target requires its flock reference")
	}
	if i.AntibioticName == "" {
		return errors.New("antibiotic name is required")
	}
	switch i.Reason {
	case ReasonTreatDisease, ReasonProphylactic, ReasonOther:
	default:
		return errors.New("unknown treatment reason")
	}
	switch i.TreatedFor {
	case TreatedForEnteric, TreatedForRespiratory, TreatedForReproductive, TreatedForOther:
	default:
		return errors.New("unknown treated_for value")
	}
	if _, err := time.Parse(dateLayout, i.Date); err != nil {
		return errors.New("date must be formatted YYYY-MM-DD")
	}
	return nil
}

// DecisionAction is the verb posted to the treatment action endpoint.
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
)

// Decision is the payload of a vet ruling on a pending request. The modified
// fields are only meaningful for approvals coming out of a review.
type Decision struct {
	Action       DecisionAction `json:"action"`
	Dosage       string         `json:"dosage,omitempty"`
	MethodIntake string         `json:"method_intake,omitempty"`
	VetNotes     string         `json:"vet_notes,omitempty"`
}

// DecisionRecord is the audit trail entry persisted after a confirmed ruling.
type DecisionRecord struct {
	TreatmentID  int64          `bson:"treatment_id" json:"treatment_id"`
	Action       DecisionAction `bson:"action" json:"action"`
	VetEmail     string         `bson:"vet_email" json:"vet_email"`
	FarmNumber   string         `bson:"farm_number" json:"farm_number"`
	Antibiotic   string         `bson:"antibiotic" json:"antibiotic"`
	Dosage       string         `bson:"dosage,omitempty" json:"dosage,omitempty"`
	MethodIntake string         `bson:"method_intake,omitempty" json:"method_intake,omitempty"`
	VetNotes     string         `bson:"vet_notes,omitempty" json:"vet_notes,omitempty"`
	DecidedAt    time.Time      `bson:"decided_at" json:"decided_at"`
}
