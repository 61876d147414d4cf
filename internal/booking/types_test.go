package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmbulanceTypeLabels(t *testing.T) {
	assert.Equal(t, "Basic Life Support (BLS)", AmbulanceBLS.Label())
	assert.Equal(t, "Patient Transfer", AmbulancePatientTransfer.Label())
	assert.Equal(t, "Ventilator & ECG for critical care.", AmbulanceALS.Description())
	assert.Equal(t, "Standard transport.", AmbulanceMortuary.Description())
	assert.Len(t, AmbulanceTypes(), 5)
	assert.False(t, AmbulanceType("HELICOPTER").Valid())
	assert.Equal(t, "HELICOPTER", AmbulanceType("HELICOPTER").Label())
}

func TestParseAmbulanceType(t *testing.T) {
	got, err := ParseAmbulanceType("ICU")
	require.NoError(t, err)
	assert.Equal(t, AmbulanceICU, got)

	got, err = ParseAmbulanceType("Mortuary Van")
	require.NoError(t, err)
	assert.Equal(t, AmbulanceMortuary, got)

	_, err = ParseAmbulanceType("icu")
	assert.Error(t, err)
}

func TestStatusActive(t *testing.T) {
	assert.False(t, StatusIdle.Active())
	assert.True(t, StatusSearching.Active())
	assert.True(t, StatusConfirmed.Active())
	assert.True(t, StatusArrived.Active())
	assert.False(t, StatusCompleted.Active())
}

func TestNewPastBooking(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2026, time.October, 14, 9, 34, 0, 0, time.UTC)
	d := Details{PatientName: "Asha", City: "Mumbai", AmbulanceType: AmbulanceICU}

	pb := NewPastBooking(d, now, loc)
	assert.Equal(t, "1791970440000", pb.ID)
	assert.Equal(t, "Asha", pb.PatientName)
	assert.Equal(t, "14 Oct, 03:04 pm", pb.Date)
	assert.Equal(t, HistoryStatusBooked, pb.Status)
	assert.Equal(t, "Mumbai", pb.City)
	assert.Equal(t, "ICU Ambulance", pb.AmbulanceType)
}

func TestPastBookingJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(PastBooking{ID: "1", PatientName: "A", Date: "d", Status: "Booked", City: "Delhi", AmbulanceType: "ICU Ambulance"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","patientName":"A","date":"d","status":"Booked","city":"Delhi","ambulanceType":"ICU Ambulance"}`, string(raw))
}

func TestDetailsValidate(t *testing.T) {
	valid := Details{
		PatientName:    "Ravi",
		ContactNumber:  "+91 98765 43210",
		City:           "Delhi",
		PickupLocation: "Connaught Place",
		HospitalID:     "h1",
		AmbulanceType:  AmbulanceALS,
	}
	require.NoError(t, valid.Validate())

	wrongCity := valid
	wrongCity.HospitalID = "h4"
	err := wrongCity.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("hospitalId"))
	assert.Equal(t, "hospital_in_city", verr.Fields[0].Rule)

	empty := Details{}
	require.ErrorAs(t, empty.Validate(), &verr)
	for _, field := range []string{"patientName", "contactNumber", "city", "pickupLocation", "hospitalId", "ambulanceType"} {
		assert.True(t, verr.Has(field), "expected %s to be reported", field)
	}
	assert.False(t, verr.Has("emergencyContactNumber"))
	assert.Contains(t, verr.Error(), "patientName (required)")
}

func TestOptions(t *testing.T) {
	opts := Options()
	require.Len(t, opts, 5)
	assert.Equal(t, AmbulanceBLS, opts[0].Code)
	assert.Equal(t, "Full ICU setup on wheels.", opts[2].Description)
}
