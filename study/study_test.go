package study_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	polyjson "github.com/reoring/polyjson"
	"github.com/reoring/polyjson/study"
)

func sampleSection() study.Step {
	return study.SectionStep{
		Identifier: "intro",
		Title:      "Intro",
		Steps: []study.Step{
			study.InstructionStep{
				Identifier: "welcome",
				Text:       "Hi",
				Image:      study.FetchableImageTheme{ImageName: "logo", ColorPlacement: study.PlacementHeader},
			},
			study.FormStep{
				Identifier: "mood",
				Choices: []study.Choice{
					{Value: "good", Text: "Good"},
					{Value: json.Number("2"), Exclusive: true},
				},
			},
			study.ActiveStep{Identifier: "walk", Duration: 30, Commands: []string{"vibrate"}},
			study.CompletionStep{Identifier: "done", CompletedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}
}

const sampleJSON = `{"type":"section","identifier":"intro","title":"Intro","steps":[` +
	`{"type":"instruction","identifier":"welcome","text":"Hi","image":{"type":"fetchable","imageName":"logo","colorPlacement":"header"}},` +
	`{"type":"form","identifier":"mood","choices":[{"value":"good","text":"Good"},{"value":2,"exclusive":true}]},` +
	`{"type":"active","identifier":"walk","duration":30,"commands":["vibrate"]},` +
	`{"type":"completion","identifier":"done","completedAt":"2025-01-02T03:04:05Z"}]}`

func TestStudy_RoundTrip(t *testing.T) {
	m, err := study.NewMapper("")
	require.NoError(t, err)
	ctx := context.Background()

	out, err := polyjson.Marshal(ctx, m, sampleSection())
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(out))

	got, err := polyjson.Unmarshal[study.Step](ctx, m, out)
	require.NoError(t, err)
	assert.Equal(t, sampleSection(), got)
}

func TestStudy_UnknownLabelKeepsGenericStep(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m, err := study.NewMapper("", polyjson.WithLogger(zap.New(core)))
	require.NoError(t, err)
	ctx := context.Background()

	in := `{"type":"quiz","identifier":"q1","title":"Quiz"}`
	got, err := polyjson.Unmarshal[study.Step](ctx, m, []byte(in))
	require.NoError(t, err)
	require.Equal(t, study.UIStep{Type: "quiz", Identifier: "q1", Title: "Quiz"}, got)
	assert.Equal(t, 1, logs.FilterMessage("unknown label, decoding default type").Len())

	out, err := polyjson.Marshal(ctx, m, got)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}

func TestStudy_CustomField(t *testing.T) {
	m, err := study.NewMapper("kind")
	require.NoError(t, err)
	ctx := context.Background()

	out, err := polyjson.Marshal[study.Step](ctx, m, study.InstructionStep{Identifier: "a"})
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"instruction","identifier":"a"}`, string(out))

	_, err = polyjson.Unmarshal[study.Step](ctx, m, []byte(`{"type":"instruction","identifier":"a"}`))
	require.Error(t, err)
	assert.Equal(t, polyjson.CodeDiscriminatorMissing, polyjson.FirstCode(err))
}

func TestStudy_CustomFieldKeepsUnknownLabel(t *testing.T) {
	m, err := study.NewMapper("kind")
	require.NoError(t, err)
	ctx := context.Background()

	in := `{"kind":"survey","identifier":"x"}`
	got, err := polyjson.Unmarshal[study.Step](ctx, m, []byte(in))
	require.NoError(t, err)
	require.Equal(t, study.UIStep{Type: "survey", Identifier: "x"}, got)

	out, err := polyjson.Marshal(ctx, m, got)
	require.NoError(t, err)
	assert.Equal(t, in, string(out))

	again, err := polyjson.Unmarshal[study.Step](ctx, m, out)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	// a "type" member is plain data under another field
	got, err = polyjson.Unmarshal[study.Step](ctx, m, []byte(`{"kind":"survey","type":"ignored","identifier":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, "survey", got.(study.UIStep).Type)
}

func TestStudy_NestedErrorPath(t *testing.T) {
	m, err := study.NewMapper("")
	require.NoError(t, err)

	in := `{"type":"section","identifier":"s","steps":[{"type":"form","identifier":"f","choices":[],"image":{"type":"sketch"}}]}`
	_, err = polyjson.Unmarshal[study.Step](context.Background(), m, []byte(in))
	iss, ok := polyjson.AsIssues(err)
	require.True(t, ok, "expected issues, got %v", err)
	assert.Equal(t, polyjson.CodeDiscriminatorUnknown, iss[0].Code)
	assert.Equal(t, "/steps/0/image/type", iss[0].Path)
}

func TestStudy_UnregisteredStepFails(t *testing.T) {
	m, err := study.NewMapper("")
	require.NoError(t, err)

	// pointer types are distinct from the registered value types
	_, err = polyjson.Marshal[study.Step](context.Background(), m, &study.FormStep{Identifier: "f"})
	assert.Equal(t, polyjson.CodeUnregisteredType, polyjson.FirstCode(err))
	assert.ErrorIs(t, err, polyjson.ErrSerialization)
}

func TestRegistries(t *testing.T) {
	r, err := study.NewRegistries("")
	require.NoError(t, err)

	assert.Equal(t, []string{"instruction", "form", "active", "completion", "section"}, r.Steps.Labels())
	assert.Equal(t, []string{"fetchable", "animation"}, r.Themes.Labels())
	assert.Equal(t, "study.UIStep", r.Steps.Default().String())
	assert.Nil(t, r.Themes.Default())

	s := r.Steps.JSONSchema()
	require.NotNil(t, s.Discriminator)
	assert.Equal(t, "type", s.Discriminator.PropertyName)
	assert.Len(t, s.OneOf, 5)
	assert.Equal(t, "study.SectionStep", s.Discriminator.Mapping["section"])
}

func TestWalk(t *testing.T) {
	var ids []string
	study.Walk([]study.Step{sampleSection(), study.UIStep{Identifier: "tail"}}, func(s study.Step) bool {
		ids = append(ids, s.StepIdentifier())
		return true
	})
	assert.Equal(t, []string{"intro", "welcome", "mood", "walk", "done", "tail"}, ids)

	ids = ids[:0]
	complete := study.Walk([]study.Step{sampleSection()}, func(s study.Step) bool {
		ids = append(ids, s.StepIdentifier())
		return s.StepIdentifier() != "mood"
	})
	assert.False(t, complete)
	assert.Equal(t, []string{"intro", "welcome", "mood"}, ids)
}
