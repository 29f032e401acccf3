package metrics

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// A decoded per-day arrival archive: every observed arrival for one
// agency, route and service date.
type ArrivalArchive struct {
	Version  string    `json:"version"`
	AgencyID string    `json:"agencyId"`
	RouteID  string    `json:"routeId"`
	Date     string    `json:"date"`
	Arrivals []Arrival `json:"arrivals"`
}

// One observed arrival. Times are Unix seconds.
type Arrival struct {
	TripID        string `json:"tripId" csv:"trip_id"`
	StopID        string `json:"stopId" csv:"stop_id"`
	DirectionID   string `json:"directionId" csv:"direction_id"`
	VehicleID     string `json:"vehicleId" csv:"vehicle_id"`
	Time          int64  `json:"time" csv:"arrival_time"`
	DepartureTime int64  `json:"departureTime" csv:"departure_time"`
}

func DecodeArrivalArchive(body []byte) (*ArrivalArchive, error) {
	archive := &ArrivalArchive{}
	if err := json.Unmarshal(body, archive); err != nil {
		return nil, errors.Wrap(err, "unmarshaling arrival archive")
	}
	return archive, nil
}
