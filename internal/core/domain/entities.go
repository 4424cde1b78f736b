package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// StateVector is one timestamped position/velocity sample of the tracked object.
// Position is in km and velocity in km/s, both in the feed's inertial frame (J2000).
type StateVector struct {
	Epoch string  `json:"EPOCH"`
	X     float64 `json:"X"`
	Y     float64 `json:"Y"`
	Z     float64 `json:"Z"`
	XDot  float64 `json:"X_DOT"`
	YDot  float64 `json:"Y_DOT"`
	ZDot  float64 `json:"Z_DOT"`
}

// UnmarshalJSON accepts numeric fields either as bare numbers or as
// {"#text": "..."} wrappers, which is how blobs written by the legacy
// tracker stored them. EPOCH and all six numeric fields are required.
func (sv *StateVector) UnmarshalJSON(data []byte) error {
	var raw struct {
		Epoch string          `json:"EPOCH"`
		X     json.RawMessage `json:"X"`
		Y     json.RawMessage `json:"Y"`
		Z     json.RawMessage `json:"Z"`
		XDot  json.RawMessage `json:"X_DOT"`
		YDot  json.RawMessage `json:"Y_DOT"`
		ZDot  json.RawMessage `json:"Z_DOT"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: state vector: %v", ErrMalformedFeed, err)
	}
	if raw.Epoch == "" {
		return fmt.Errorf("%w: state vector missing EPOCH", ErrMalformedFeed)
	}

	var out StateVector
	out.Epoch = raw.Epoch
	fields := []struct {
		name string
		data json.RawMessage
		dst  *float64
	}{
		{"X", raw.X, &out.X}, {"Y", raw.Y, &out.Y}, {"Z", raw.Z, &out.Z},
		{"X_DOT", raw.XDot, &out.XDot}, {"Y_DOT", raw.YDot, &out.YDot}, {"Z_DOT", raw.ZDot, &out.ZDot},
	}
	for _, f := range fields {
		if f.data == nil {
			return fmt.Errorf("%w: %s missing %s", ErrMalformedFeed, raw.Epoch, f.name)
		}
		var q Quantity
		if err := q.decodeJSON(f.data, f.name); err != nil {
			return fmt.Errorf("%s: %w", raw.Epoch, err)
		}
		*f.dst = float64(q)
	}
	*sv = out
	return nil
}

// Header is the OEM file header.
type Header struct {
	CreationDate string `json:"CREATION_DATE"`
	Originator   string `json:"ORIGINATOR"`
}

// Metadata describes the segment the state vectors belong to.
type Metadata struct {
	ObjectName string `json:"OBJECT_NAME"`
	ObjectID   string `json:"OBJECT_ID"`
	CenterName string `json:"CENTER_NAME"`
	RefFrame   string `json:"REF_FRAME"`
	TimeSystem string `json:"TIME_SYSTEM"`
	StartTime  string `json:"START_TIME"`
	StopTime   string `json:"STOP_TIME"`
}

// Snapshot is the full result of one ingestion cycle. It is never mutated
// after it is built; a refresh replaces it wholesale.
type Snapshot struct {
	FetchedAt    time.Time     `json:"fetched_at"`
	Source       string        `json:"source"`
	Header       Header        `json:"header"`
	Metadata     Metadata      `json:"metadata"`
	Comments     []string      `json:"comments"`
	StateVectors []StateVector `json:"state_vectors"`
}

// Len returns the number of state vectors.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.StateVectors)
}

// SpeedReport is the instantaneous speed at one epoch.
type SpeedReport struct {
	Epoch string  `json:"EPOCH"`
	Speed float64 `json:"Instantaneous_Speed"`
}

// LocationReport is the ground position under the object at one epoch.
type LocationReport struct {
	Epoch       string  `json:"EPOCH"`
	Latitude    float64 `json:"Latitude"`
	Longitude   float64 `json:"Longitude"`
	Altitude    float64 `json:"Altitude"`
	Geoposition string  `json:"Geoposition"`
}

// NowReport is the state vector closest to the current time, enriched with
// speed and ground position.
type NowReport struct {
	Epoch       string  `json:"EPOCH"`
	X           float64 `json:"X"`
	Y           float64 `json:"Y"`
	Z           float64 `json:"Z"`
	XDot        float64 `json:"X_DOT"`
	YDot        float64 `json:"Y_DOT"`
	ZDot        float64 `json:"Z_DOT"`
	Speed       float64 `json:"Instantaneous_Speed"`
	Latitude    float64 `json:"Latitude"`
	Longitude   float64 `json:"Longitude"`
	Altitude    float64 `json:"Altitude"`
	Geoposition string  `json:"Geoposition"`
}

// UnknownGeoposition is reported when reverse geocoding yields nothing.
const UnknownGeoposition = "Unknown"

// FeedRefreshed is emitted after a new snapshot has been published.
type FeedRefreshed struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	FetchedAt    time.Time `json:"fetched_at"`
	StateVectors int       `json:"state_vectors"`
	FirstEpoch   string    `json:"first_epoch,omitempty"`
	LastEpoch    string    `json:"last_epoch,omitempty"`
}
