package geo

import "github.com/fixboard/fixboard/pkg/models"

// Covers reports whether loc falls inside any of the contractor's service
// areas (logical OR across areas).
//
// The filter is deliberately fail-open: a contractor with zero declared areas
// sees every job, and a job without a coordinate is shown regardless of the
// areas. Contractors must not lose visibility into work because of missing
// data.
func Covers(areas []models.ServiceArea, loc models.Location) bool {
	if len(areas) == 0 {
		return true
	}
	if loc.Coordinate == nil {
		return true
	}
	for _, a := range areas {
		if Distance(a.Center(), *loc.Coordinate) <= a.RadiusKm {
			return true
		}
	}
	return false
}
