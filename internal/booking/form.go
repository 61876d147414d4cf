package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfman30/ambu-dispatch/internal/catalog"
)

// Step identifies a page of the booking form.
type Step int

const (
	StepLocation Step = 1
	StepPatient  Step = 2
	StepVehicle  Step = 3
)

// DetectedLocationLabel replaces the pickup address after a successful
// current-location lookup. Reverse geocoding is not performed.
const DetectedLocationLabel = "Current Location (Detected)"

var (
	// ErrIncompleteForm is returned when Submit is called before the final step.
	ErrIncompleteForm = errors.New("booking: form is not on the final step")
	// ErrFinalStep is returned by Next on the last step.
	ErrFinalStep = errors.New("booking: already on the final step")
	// ErrLocationUnavailable wraps locator failures; the form stays editable.
	ErrLocationUnavailable = errors.New("booking: location access denied, please enter manually")
)

// Position is a coordinate reported by a Locator.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Locator is a best-effort source of the caller's current position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Position, error)

// Locate calls f.
func (f LocatorFunc) Locate(ctx context.Context) (Position, error) {
	return f(ctx)
}

// FormInput carries partial edits; nil fields are left untouched.
type FormInput struct {
	PatientName            *string        `json:"patientName,omitempty"`
	ContactNumber          *string        `json:"contactNumber,omitempty"`
	EmergencyContactNumber *string        `json:"emergencyContactNumber,omitempty"`
	City                   *string        `json:"city,omitempty"`
	PickupLocation         *string        `json:"pickupLocation,omitempty"`
	HospitalID             *string        `json:"hospitalId,omitempty"`
	AmbulanceType          *AmbulanceType `json:"ambulanceType,omitempty"`
}

type locationStep struct {
	City           string `json:"city" validate:"required,city"`
	PickupLocation string `json:"pickupLocation" validate:"required"`
	HospitalID     string `json:"hospitalId" validate:"required,hospital_in_city"`
}

type patientStep struct {
	PatientName   string `json:"patientName" validate:"required"`
	ContactNumber string `json:"contactNumber" validate:"required"`
}

type vehicleStep struct {
	AmbulanceType AmbulanceType `json:"ambulanceType" validate:"required,ambulance_type"`
}

// Form collects booking details over three steps. A Form is not safe for
// concurrent use; FormStore serializes access.
type Form struct {
	step Step
	data Details
}

// NewForm starts on the first step with the default city and tier.
func NewForm() *Form {
	return &Form{
		step: StepLocation,
		data: Details{
			City:          catalog.DefaultCity,
			AmbulanceType: DefaultAmbulanceType,
		},
	}
}

// Step returns the current step.
func (f *Form) Step() Step { return f.step }

// Data returns the values entered so far.
func (f *Form) Data() Details { return f.data }

// Hospitals lists the destinations selectable for the current city.
func (f *Form) Hospitals() []catalog.Hospital {
	return catalog.HospitalsByCity(f.data.City)
}

// SetCity changes the city. A real change clears the hospital selection.
func (f *Form) SetCity(city string) {
	if city == f.data.City {
		return
	}
	f.data.City = city
	f.data.HospitalID = ""
}

// Update applies in. City is applied before the hospital so a single edit
// can switch city and pick a hospital there.
func (f *Form) Update(in FormInput) {
	if in.City != nil {
		f.SetCity(*in.City)
	}
	if in.HospitalID != nil {
		f.data.HospitalID = *in.HospitalID
	}
	if in.PickupLocation != nil {
		f.data.PickupLocation = *in.PickupLocation
	}
	if in.PatientName != nil {
		f.data.PatientName = *in.PatientName
	}
	if in.ContactNumber != nil {
		f.data.ContactNumber = *in.ContactNumber
	}
	if in.EmergencyContactNumber != nil {
		f.data.EmergencyContactNumber = *in.EmergencyContactNumber
	}
	if in.AmbulanceType != nil {
		f.data.AmbulanceType = *in.AmbulanceType
	}
}

// UseCurrentLocation fills the pickup field from loc. On failure the field
// keeps its previous value and an error wrapping ErrLocationUnavailable is
// returned.
func (f *Form) UseCurrentLocation(ctx context.Context, loc Locator) error {
	if loc == nil {
		return ErrLocationUnavailable
	}
	if _, err := loc.Locate(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	f.data.PickupLocation = DetectedLocationLabel
	return nil
}

// Next validates the current step and advances.
func (f *Form) Next() error {
	if f.step >= StepVehicle {
		return ErrFinalStep
	}
	if err := f.validateStep(f.step); err != nil {
		return err
	}
	f.step++
	return nil
}

// Back returns to the previous step without clearing data.
func (f *Form) Back() {
	if f.step > StepLocation {
		f.step--
	}
}

// Submit returns the completed details. The step is left unchanged; the
// caller is expected to discard the form.
func (f *Form) Submit() (Details, error) {
	if f.step != StepVehicle {
		return Details{}, ErrIncompleteForm
	}
	if err := f.data.Validate(); err != nil {
		return Details{}, err
	}
	return f.data, nil
}

func (f *Form) validateStep(step Step) error {
	switch step {
	case StepLocation:
		return validateStruct(locationStep{
			City:           f.data.City,
			PickupLocation: f.data.PickupLocation,
			HospitalID:     f.data.HospitalID,
		})
	case StepPatient:
		return validateStruct(patientStep{
			PatientName:   f.data.PatientName,
			ContactNumber: f.data.ContactNumber,
		})
	case StepVehicle:
		return validateStruct(vehicleStep{AmbulanceType: f.data.AmbulanceType})
	}
	return fmt.Errorf("booking: unknown step %d", step)
}
