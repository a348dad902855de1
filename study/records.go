package study

import (
	"math"
	"strconv"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/i18n"
)

// Choice is one answer of a FormStep. Value is whatever the backend sent
// (string, json.Number, bool, object ...).
type Choice struct {
	Value     any    `json:"value"`
	Text      string `json:"text,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Icon      string `json:"icon,omitempty"`
	Exclusive bool   `json:"exclusive,omitempty"`
}

// TaskProgress tracks how far a participant is through a task.
type TaskProgress struct {
	Progress  int  `json:"progress"`
	Total     int  `json:"total"`
	Estimated bool `json:"isEstimated,omitempty"`
}

// Fraction returns Progress/Total clamped to [0, 1]. A zero Total yields 0.
func (p TaskProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return math.Min(1, math.Max(0, float64(p.Progress)/float64(p.Total)))
}

// Validate checks that 0 <= Progress <= Total.
func (p TaskProgress) Validate() error {
	var iss polyjson.Issues
	if p.Total < 0 {
		iss = append(iss, invalid("/total", "total must not be negative, got "+strconv.Itoa(p.Total)))
	}
	if p.Progress < 0 || (p.Total >= 0 && p.Progress > p.Total) {
		iss = append(iss, invalid("/progress", "progress "+strconv.Itoa(p.Progress)+" is outside 0.."+strconv.Itoa(p.Total)))
	}
	if len(iss) == 0 {
		return nil
	}
	return iss
}

func invalid(path, detail string) polyjson.Issue {
	return polyjson.Issue{
		Kind:    polyjson.ErrInvalidArgument,
		Path:    path,
		Code:    polyjson.CodeInvalidArgument,
		Message: i18n.T(polyjson.CodeInvalidArgument, map[string]string{"detail": detail}),
		Params:  map[string]any{"detail": detail},
	}
}
