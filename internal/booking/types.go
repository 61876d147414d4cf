package booking

import (
	"fmt"
	"strconv"
	"time"
)

// AmbulanceType is the service tier requested for a booking.
type AmbulanceType string

const (
	AmbulanceBLS             AmbulanceType = "BLS"
	AmbulanceALS             AmbulanceType = "ALS"
	AmbulanceICU             AmbulanceType = "ICU"
	AmbulanceMortuary        AmbulanceType = "MORTUARY"
	AmbulancePatientTransfer AmbulanceType = "PATIENT_TRANSFER"
)

// DefaultAmbulanceType is preselected on step three of the form.
const DefaultAmbulanceType = AmbulanceBLS

type ambulanceInfo struct {
	label       string
	description string
}

var ambulanceTypes = map[AmbulanceType]ambulanceInfo{
	AmbulanceBLS:             {"Basic Life Support (BLS)", "Standard equipment for non-critical."},
	AmbulanceALS:             {"Advanced Life Support (ALS)", "Ventilator & ECG for critical care."},
	AmbulanceICU:             {"ICU Ambulance", "Full ICU setup on wheels."},
	AmbulanceMortuary:        {"Mortuary Van", "Standard transport."},
	AmbulancePatientTransfer: {"Patient Transfer", "Standard transport."},
}

// AmbulanceTypes lists every tier in display order.
func AmbulanceTypes() []AmbulanceType {
	return []AmbulanceType{AmbulanceBLS, AmbulanceALS, AmbulanceICU, AmbulanceMortuary, AmbulancePatientTransfer}
}

// Valid reports whether t is one of the known tiers.
func (t AmbulanceType) Valid() bool {
	_, ok := ambulanceTypes[t]
	return ok
}

// Label is the human readable name shown in booking history.
func (t AmbulanceType) Label() string {
	if info, ok := ambulanceTypes[t]; ok {
		return info.label
	}
	return string(t)
}

// Description summarizes the equipment carried by the tier.
func (t AmbulanceType) Description() string {
	return ambulanceTypes[t].description
}

// ParseAmbulanceType accepts either a code ("ICU") or a label ("ICU Ambulance").
func ParseAmbulanceType(s string) (AmbulanceType, error) {
	if t := AmbulanceType(s); t.Valid() {
		return t, nil
	}
	for t, info := range ambulanceTypes {
		if info.label == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("booking: unknown ambulance type %q", s)
}

// Status is the lifecycle state of the current booking.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusSearching Status = "SEARCHING"
	StatusConfirmed Status = "CONFIRMED"
	StatusArrived   Status = "ARRIVED"
	// StatusCompleted is declared for clients but nothing transitions into it.
	StatusCompleted Status = "COMPLETED"
)

// Active reports whether a booking is in flight in this state.
func (s Status) Active() bool {
	return s == StatusSearching || s == StatusConfirmed || s == StatusArrived
}

// Details is a completed booking request. It is never modified after the
// form hands it over.
type Details struct {
	PatientName            string        `json:"patientName" validate:"required"`
	ContactNumber          string        `json:"contactNumber" validate:"required"`
	EmergencyContactNumber string        `json:"emergencyContactNumber,omitempty"`
	City                   string        `json:"city" validate:"required,city"`
	PickupLocation         string        `json:"pickupLocation" validate:"required"`
	HospitalID             string        `json:"hospitalId" validate:"required,hospital_in_city"`
	AmbulanceType          AmbulanceType `json:"ambulanceType" validate:"required,ambulance_type"`
}

// HistoryStatusBooked is the only status label written to history.
const HistoryStatusBooked = "Booked"

// HistoryDateLayout renders PastBooking.Date, e.g. "14 Oct, 03:04 pm".
const HistoryDateLayout = "2 Jan, 03:04 pm"

// PastBooking is one entry in the persisted booking history.
type PastBooking struct {
	ID            string `json:"id"`
	PatientName   string `json:"patientName"`
	Date          string `json:"date"`
	Status        string `json:"status"`
	City          string `json:"city"`
	AmbulanceType string `json:"ambulanceType"`
}

// NewPastBooking builds the history record written when d is submitted at
// now. The id is the Unix millisecond timestamp.
func NewPastBooking(d Details, now time.Time, loc *time.Location) PastBooking {
	if loc == nil {
		loc = time.UTC
	}
	return PastBooking{
		ID:            strconv.FormatInt(now.UnixMilli(), 10),
		PatientName:   d.PatientName,
		Date:          now.In(loc).Format(HistoryDateLayout),
		Status:        HistoryStatusBooked,
		City:          d.City,
		AmbulanceType: d.AmbulanceType.Label(),
	}
}

// AmbulanceTypeOption is the JSON shape used to list tiers to clients.
type AmbulanceTypeOption struct {
	Code        AmbulanceType `json:"code"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
}

// Options returns every tier with its label and description.
func Options() []AmbulanceTypeOption {
	types := AmbulanceTypes()
	out := make([]AmbulanceTypeOption, 0, len(types))
	for _, t := range types {
		out = append(out, AmbulanceTypeOption{Code: t, Label: t.Label(), Description: t.Description()})
	}
	return out
}
