package oem

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/samirrijal/isstrack/internal/core/domain"
)

// XML structures matching the CCSDS OEM (XML flavour) document published by NASA.
// Pointers mark elements whose absence makes the document unusable.

type xmlNDM struct {
	XMLName xml.Name `xml:"ndm"`
	OEM     *xmlOEM  `xml:"oem"`
}

type xmlOEM struct {
	Header *xmlHeader `xml:"header"`
	Body   *xmlBody   `xml:"body"`
}

type xmlHeader struct {
	CreationDate string `xml:"CREATION_DATE"`
	Originator   string `xml:"ORIGINATOR"`
}

type xmlBody struct {
	Segment *xmlSegment `xml:"segment"`
}

type xmlSegment struct {
	Metadata *xmlMetadata `xml:"metadata"`
	Data     *xmlData     `xml:"data"`
}

type xmlMetadata struct {
	ObjectName string `xml:"OBJECT_NAME"`
	ObjectID   string `xml:"OBJECT_ID"`
	CenterName string `xml:"CENTER_NAME"`
	RefFrame   string `xml:"REF_FRAME"`
	TimeSystem string `xml:"TIME_SYSTEM"`
	StartTime  string `xml:"START_TIME"`
	StopTime   string `xml:"STOP_TIME"`
}

type xmlData struct {
	Comments     []string         `xml:"COMMENT"`
	StateVectors []xmlStateVector `xml:"stateVector"`
}

type xmlStateVector struct {
	Epoch string           `xml:"EPOCH"`
	X     *domain.Quantity `xml:"X"`
	Y     *domain.Quantity `xml:"Y"`
	Z     *domain.Quantity `xml:"Z"`
	XDot  *domain.Quantity `xml:"X_DOT"`
	YDot  *domain.Quantity `xml:"Y_DOT"`
	ZDot  *domain.Quantity `xml:"Z_DOT"`
}

// Parse decodes an OEM XML document into a snapshot. FetchedAt and Source
// are left for the caller to fill in.
func Parse(data []byte) (*domain.Snapshot, error) {
	var raw xmlNDM
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: unmarshal OEM XML: %v", domain.ErrMalformedFeed, err)
	}

	switch {
	case raw.OEM == nil:
		return nil, fmt.Errorf("%w: missing ndm/oem", domain.ErrMalformedFeed)
	case raw.OEM.Body == nil:
		return nil, fmt.Errorf("%w: missing oem/body", domain.ErrMalformedFeed)
	case raw.OEM.Body.Segment == nil:
		return nil, fmt.Errorf("%w: missing body/segment", domain.ErrMalformedFeed)
	case raw.OEM.Body.Segment.Data == nil:
		return nil, fmt.Errorf("%w: missing segment/data", domain.ErrMalformedFeed)
	}

	seg := raw.OEM.Body.Segment
	snap := &domain.Snapshot{
		Comments:     make([]string, 0, len(seg.Data.Comments)),
		StateVectors: make([]domain.StateVector, 0, len(seg.Data.StateVectors)),
	}

	if h := raw.OEM.Header; h != nil {
		snap.Header = domain.Header{
			CreationDate: strings.TrimSpace(h.CreationDate),
			Originator:   strings.TrimSpace(h.Originator),
		}
	}
	if m := seg.Metadata; m != nil {
		snap.Metadata = domain.Metadata{
			ObjectName: strings.TrimSpace(m.ObjectName),
			ObjectID:   strings.TrimSpace(m.ObjectID),
			CenterName: strings.TrimSpace(m.CenterName),
			RefFrame:   strings.TrimSpace(m.RefFrame),
			TimeSystem: strings.TrimSpace(m.TimeSystem),
			StartTime:  strings.TrimSpace(m.StartTime),
			StopTime:   strings.TrimSpace(m.StopTime),
		}
	}
	for _, c := range seg.Data.Comments {
		snap.Comments = append(snap.Comments, strings.TrimSpace(c))
	}

	for i, xv := range seg.Data.StateVectors {
		sv, err := toStateVector(xv)
		if err != nil {
			return nil, fmt.Errorf("state vector %d: %w", i, err)
		}
		snap.StateVectors = append(snap.StateVectors, sv)
	}

	return snap, nil
}

func toStateVector(xv xmlStateVector) (domain.StateVector, error) {
	epoch := strings.TrimSpace(xv.Epoch)
	if epoch == "" {
		return domain.StateVector{}, fmt.Errorf("%w: missing EPOCH", domain.ErrMalformedFeed)
	}

	fields := []struct {
		name string
		q    *domain.Quantity
	}{
		{"X", xv.X}, {"Y", xv.Y}, {"Z", xv.Z},
		{"X_DOT", xv.XDot}, {"Y_DOT", xv.YDot}, {"Z_DOT", xv.ZDot},
	}
	for _, f := range fields {
		if f.q == nil {
			return domain.StateVector{}, fmt.Errorf("%w: %s missing %s", domain.ErrMalformedFeed, epoch, f.name)
		}
	}

	return domain.StateVector{
		Epoch: epoch,
		X:     float64(*xv.X),
		Y:     float64(*xv.Y),
		Z:     float64(*xv.Z),
		XDot:  float64(*xv.XDot),
		YDot:  float64(*xv.YDot),
		ZDot:  float64(*xv.ZDot),
	}, nil
}
