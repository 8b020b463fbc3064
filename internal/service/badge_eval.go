package service

import (
	"encoding/json"

	"backend/internal/model"

	"github.com/google/uuid"
)

// PointsSnapshot is an immutable view of one konfi's standing, used to decide
// badge criteria without touching storage.
type PointsSnapshot struct {
	GottesdienstPoints int
	GemeindePoints     int
	ActivityCount      int
	ActivityCounts     map[uuid.UUID]int
}

// TotalPoints returns the sum of both point buckets.
func (s PointsSnapshot) TotalPoints() int {
	return s.GottesdienstPoints + s.GemeindePoints
}

type criteriaExtra struct {
	ActivityID string `json:"activity_id"`
}

// CriteriaMet reports whether a badge's criteria hold for the snapshot.
// Unknown criteria types never match, so a mistyped badge stays un-awarded
// instead of firing for everyone.
func CriteriaMet(b model.Badge, snap PointsSnapshot) bool {
	switch b.CriteriaType {
	case model.CriteriaTotalPoints:
		return snap.TotalPoints() >= b.CriteriaValue
	case model.CriteriaGottesdienstPoints:
		return snap.GottesdienstPoints >= b.CriteriaValue
	case model.CriteriaGemeindePoints:
		return snap.GemeindePoints >= b.CriteriaValue
	case model.CriteriaActivityCount:
		return snap.ActivityCount >= b.CriteriaValue
	case model.CriteriaSpecificActivity:
		var extra criteriaExtra
		if err := json.Unmarshal([]byte(b.CriteriaExtra), &extra); err != nil {
			return false
		}
		activityID, err := uuid.Parse(extra.ActivityID)
		if err != nil {
			return false
		}
		return snap.ActivityCounts[activityID] >= b.CriteriaValue
	default:
		return false
	}
}
