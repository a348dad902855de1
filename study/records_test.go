package study_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/study"
)

func TestTaskProgress_Fraction(t *testing.T) {
	cases := []struct {
		p    study.TaskProgress
		want float64
	}{
		{study.TaskProgress{Progress: 1, Total: 4}, 0.25},
		{study.TaskProgress{Progress: 0, Total: 0}, 0},
		{study.TaskProgress{Progress: 5, Total: 4}, 1},
		{study.TaskProgress{Progress: -1, Total: 4}, 0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, c.p.Fraction(), 1e-9, "%+v", c.p)
	}
}

func TestTaskProgress_Validate(t *testing.T) {
	require.NoError(t, study.TaskProgress{Progress: 2, Total: 2, Estimated: true}.Validate())

	err := study.TaskProgress{Progress: 3, Total: 2}.Validate()
	iss, ok := polyjson.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/progress", iss[0].Path)
	assert.ErrorIs(t, err, polyjson.ErrInvalidArgument)

	iss, _ = polyjson.AsIssues(study.TaskProgress{Progress: -1, Total: -2}.Validate())
	require.Len(t, iss, 2)
	assert.Equal(t, "/total", iss[0].Path)
	assert.Contains(t, iss[0].Message, "total must not be negative")
}

type resources map[string]int

func (r resources) ResourceID(name string) (int, bool) {
	id, ok := r[name]
	return id, ok
}

func TestResolveTheme(t *testing.T) {
	res := study.ResourceMap{"logo": 7, "frame1": 11}

	assert.Equal(t, study.ImageThemeView{}, study.ResolveTheme(nil, res))
	assert.Equal(t,
		study.ImageThemeView{ColorPlacement: study.PlacementHeader, ImageResourceID: 7},
		study.ResolveTheme(study.FetchableImageTheme{ImageName: "logo", ColorPlacement: study.PlacementHeader}, res))
	assert.Equal(t,
		study.ImageThemeView{ImageResourceID: 11},
		study.ResolveTheme(&study.AnimationImageTheme{ImageNames: []string{"frame1", "frame2"}}, resources(res)))
	assert.Equal(t,
		study.ImageThemeView{ColorPlacement: study.PlacementBackground},
		study.ResolveTheme(study.FetchableImageTheme{ImageName: "logo", ColorPlacement: study.PlacementBackground}, nil))
	assert.Zero(t, study.ResolveTheme(study.FetchableImageTheme{ImageName: "missing"}, res).ImageResourceID)
}

func TestColorPlacement_Valid(t *testing.T) {
	for _, p := range []study.ColorPlacement{"", study.PlacementHeader, study.PlacementBackground, study.PlacementFooter} {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, study.ColorPlacement("sidebar").Valid())
}
