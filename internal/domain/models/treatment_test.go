package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreatmentIntentValidate(t *testing.T) {
	valid := TreatmentIntent{
		FarmID:         1,
		AntibioticName: "Enrofloxacin",
		Reason:         ReasonTreatDisease,
		TreatedFor:     TreatedForEnteric,
		Date:           "2026-08-28",
	}
	require.NoError(t, valid.Validate())

	t.Run("farm target is mandatory", func(t *testing.T) {
		intent := valid
		intent.FarmID = 0
		require.ErrorIs(t, intent.Validate(), ErrMissingTarget)
	})

	t.Run("animal without flock", func(t *testing.T) {
		intent := valid
		intent.AnimalID = 100
		err := intent.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flock")
	})

	t.Run("unknown reason", func(t *testing.T) {
		intent := valid
		intent.Reason = "curiosity"
		require.Error(t, intent.Validate())
	})

	t.Run("malformed date", func(t *testing.T) {
		intent := valid
		intent.Date = "28/08/2026"
		require.Error(t, intent.Validate())
	})
}

func TestTreatmentStatusDecided(t *testing.T) {
	assert.False(t, StatusPending.Decided())
	assert.True(t, StatusApproved.Decided())
	assert.True(t, StatusRejected.Decided())
}
