package pgcr

import (
	"strconv"

	"github.com/vnykmshr/ratepool/pkg/results"
)

// Report is a post-game carnage report.
type Report struct {
	Period          string          `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
	Entries         []Entry         `json:"entries"`
}

// ActivityDetails identifies an activity instance and its definition.
type ActivityDetails struct {
	DirectorActivityHash uint32 `json:"directorActivityHash"`
	ReferenceID          uint32 `json:"referenceId"`
	InstanceID           string `json:"instanceId"`
	Mode                 int    `json:"mode"`
}

// Entry is one player's line in a report.
type Entry struct {
	CharacterID string          `json:"characterId"`
	Values      map[string]Stat `json:"values"`
}

// Stat is a historical stat value.
type Stat struct {
	Basic struct {
		Value        float64 `json:"value"`
		DisplayValue string  `json:"displayValue"`
	} `json:"basic"`
}

// Activity is an entry of a character's activity history.
type Activity struct {
	Period          string          `json:"period"`
	ActivityDetails ActivityDetails `json:"activityDetails"`
	Values          map[string]Stat `json:"values"`
}

// playerStats maps column suffixes to stat names, in column order.
var playerStats = []struct {
	column string
	stat   string
}{
	{"kills", "kills"},
	{"deaths", "deaths"},
	{"assists", "assists"},
	{"kdr", "killsDeathsRatio"},
	{"kda", "killsDeathsAssists"},
	{"efficiency", "efficiency"},
	{"score", "score"},
	{"standing", "standing"},
	{"team_score", "teamScore"},
	{"activity_duration", "activityDurationSeconds"},
}

// Flatten produces one row: instance_id, period, director_activity_name,
// then playerN_* columns for each entry in order. Standing is inverted so
// that 1 means victory. Missing stats become empty cells.
func (r *Report) Flatten(instanceID int64, activityName string) results.Row {
	var row results.Row
	row.Set("instance_id", strconv.FormatInt(instanceID, 10))
	row.Set("period", r.Period)
	row.Set("director_activity_name", activityName)

	for i, entry := range r.Entries {
		prefix := "player" + strconv.Itoa(i+1) + "_"
		row.Set(prefix+"char_id", entry.CharacterID)
		if entry.Values == nil {
			continue
		}
		for _, ps := range playerStats {
			row.Set(prefix+ps.column, statCell(entry.Values, ps.stat))
		}
	}
	return row
}

func statCell(values map[string]Stat, name string) string {
	s, ok := values[name]
	if !ok {
		return ""
	}
	v := s.Basic.Value
	if name == "standing" {
		v = 1 - v
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
