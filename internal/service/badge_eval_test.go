package service

import (
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCriteriaMet(t *testing.T) {
	campID := uuid.New()
	snap := PointsSnapshot{
		GottesdienstPoints: 7,
		GemeindePoints:     5,
		ActivityCount:      9,
		ActivityCounts:     map[uuid.UUID]int{campID: 2},
	}

	tests := []struct {
		name  string
		badge model.Badge
		want  bool
	}{
		{"total met", model.Badge{CriteriaType: model.CriteriaTotalPoints, CriteriaValue: 12}, true},
		{"total not met", model.Badge{CriteriaType: model.CriteriaTotalPoints, CriteriaValue: 13}, false},
		{"gottesdienst met", model.Badge{CriteriaType: model.CriteriaGottesdienstPoints, CriteriaValue: 7}, true},
		{"gemeinde not met", model.Badge{CriteriaType: model.CriteriaGemeindePoints, CriteriaValue: 6}, false},
		{"activity count met", model.Badge{CriteriaType: model.CriteriaActivityCount, CriteriaValue: 9}, true},
		{
			"specific activity met",
			model.Badge{
				CriteriaType:  model.CriteriaSpecificActivity,
				CriteriaValue: 2,
				CriteriaExtra: `{"activity_id":"` + campID.String() + `"}`,
			},
			true,
		},
		{
			"specific activity not met",
			model.Badge{
				CriteriaType:  model.CriteriaSpecificActivity,
				CriteriaValue: 3,
				CriteriaExtra: `{"activity_id":"` + campID.String() + `"}`,
			},
			false,
		},
		{
			"specific activity unknown id",
			model.Badge{
				CriteriaType:  model.CriteriaSpecificActivity,
				CriteriaValue: 1,
				CriteriaExtra: `{"activity_id":"` + uuid.NewString() + `"}`,
			},
			false,
		},
		{
			"specific activity malformed extra",
			model.Badge{CriteriaType: model.CriteriaSpecificActivity, CriteriaValue: 1, CriteriaExtra: `not json`},
			false,
		},
		{"unknown criteria type", model.Badge{CriteriaType: "streak", CriteriaValue: 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CriteriaMet(tt.badge, snap))
		})
	}
}

func TestPointsSnapshotTotal(t *testing.T) {
	snap := PointsSnapshot{GottesdienstPoints: 3, GemeindePoints: 4}
	assert.Equal(t, 7, snap.TotalPoints())
}
