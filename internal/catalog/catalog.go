// Package catalog holds the static city and hospital lookup data.
package catalog

// DefaultCity is preselected on a new booking form.
const DefaultCity = "Delhi"

// Hospital is a destination the ambulance can be routed to.
type Hospital struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	City   string  `json:"city"`
	Rating float64 `json:"rating"`
}

var cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Hyderabad", "Chennai",
	"Kolkata", "Pune", "Ahmedabad", "Jaipur", "Lucknow",
}

var hospitals = []Hospital{
	{ID: "h1", Name: "AIIMS", City: "Delhi", Rating: 4.8},
	{ID: "h2", Name: "Max Super Speciality Hospital", City: "Delhi", Rating: 4.6},
	{ID: "h3", Name: "Fortis Hospital", City: "Delhi", Rating: 4.5},
	{ID: "h4", Name: "Lilavati Hospital", City: "Mumbai", Rating: 4.7},
	{ID: "h5", Name: "Kokilaben Dhirubhai Ambani Hospital", City: "Mumbai", Rating: 4.8},
	{ID: "h6", Name: "Tata Memorial Hospital", City: "Mumbai", Rating: 4.9},
	{ID: "h7", Name: "Apollo Hospital", City: "Bangalore", Rating: 4.6},
	{ID: "h8", Name: "Manipal Hospital", City: "Bangalore", Rating: 4.7},
	{ID: "h9", Name: "Narayana Health City", City: "Bangalore", Rating: 4.5},
	{ID: "h10", Name: "Apollo Health City", City: "Hyderabad", Rating: 4.7},
	{ID: "h11", Name: "Yashoda Hospitals", City: "Hyderabad", Rating: 4.6},
	{ID: "h12", Name: "Apollo Hospitals Greams Road", City: "Chennai", Rating: 4.8},
	{ID: "h13", Name: "CMC Vellore (Outstation)", City: "Chennai", Rating: 4.9},
}

var hospitalsByID = func() map[string]Hospital {
	m := make(map[string]Hospital, len(hospitals))
	for _, h := range hospitals {
		m[h.ID] = h
	}
	return m
}()

// Cities returns the supported cities in display order.
func Cities() []string {
	out := make([]string, len(cities))
	copy(out, cities)
	return out
}

// IsCity reports whether city is one of the supported cities.
func IsCity(city string) bool {
	for _, c := range cities {
		if c == city {
			return true
		}
	}
	return false
}

// HospitalsByCity returns the hospitals located in city. Cities without
// partner hospitals yield an empty, non-nil slice.
func HospitalsByCity(city string) []Hospital {
	out := make([]Hospital, 0, 3)
	for _, h := range hospitals {
		if h.City == city {
			out = append(out, h)
		}
	}
	return out
}

// HospitalByID looks up a hospital.
func HospitalByID(id string) (Hospital, bool) {
	h, ok := hospitalsByID[id]
	return h, ok
}

// HospitalInCity reports whether the hospital id exists and belongs to city.
func HospitalInCity(id, city string) bool {
	h, ok := hospitalsByID[id]
	return ok && h.City == city
}
