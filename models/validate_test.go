package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProject(t *testing.T) {
	data := []byte(`{
		"id": "project-1700000000000000000",
		"name": "The Harbor Case",
		"createdAt": "2026-01-10T09:00:00Z",
		"updatedAt": "2026-01-11T10:30:00Z",
		"currentPhase": 2,
		"config": {"timeframe": "2020s", "language": "en", "targetRuntime": 12},
		"scriptText": "Opening narration."
	}`)

	p, err := DecodeProject(data)
	require.NoError(t, err)
	assert.Equal(t, "project-1700000000000000000", p.ID)
	assert.Equal(t, "The Harbor Case", p.Name)
	assert.Equal(t, PhaseScript, p.CurrentPhase)
	assert.Equal(t, "2020s", p.Config.Timeframe)
	assert.Nil(t, p.ResearchData)
}

func TestDecodeProjectRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"wrong type", `"just a string"`},
		{"missing id", `{"name":"x","currentPhase":0}`},
		{"phase below range", `{"id":"project-1","currentPhase":-1}`},
		{"phase above range", `{"id":"project-1","currentPhase":8}`},
		{"updated before created", `{"id":"project-1","currentPhase":0,"createdAt":"2026-01-02T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := DecodeProject([]byte(tc.data))
			assert.Error(t, err)
			assert.Nil(t, p)
		})
	}
}

func TestDecodeProjectsSkipsCorruptRecords(t *testing.T) {
	data := []byte(`[
		{"id":"project-1","name":"Kept","currentPhase":1},
		{"name":"no id","currentPhase":1},
		42,
		{"id":"project-2","name":"Also Kept","currentPhase":7}
	]`)

	projects, skipped := DecodeProjects(data)
	require.Len(t, projects, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "project-1", projects[0].ID)
	assert.Equal(t, "project-2", projects[1].ID)
}

func TestDecodeProjectsUnparseableArray(t *testing.T) {
	projects, skipped := DecodeProjects([]byte(`{"not":"an array"}`))
	assert.Nil(t, projects)
	assert.Zero(t, skipped)
}

func TestEncodeProjectsRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	in := []Project{{
		ID:           "project-1",
		Name:         "Round Trip",
		CreatedAt:    now,
		UpdatedAt:    now,
		CurrentPhase: PhaseVoiceover,
		VoiceoverData: &VoiceoverData{
			AudioURL:   "https://cdn.example.com/vo.mp3",
			Duration:   421.5,
			VoiceStyle: "dramatic",
			Speed:      1.0,
			Pitch:      1.0,
		},
	}}

	data, err := EncodeProjects(in)
	require.NoError(t, err)

	out, skipped := DecodeProjects(data)
	require.Len(t, out, 1)
	assert.Zero(t, skipped)
	assert.Equal(t, in[0].VoiceoverData, out[0].VoiceoverData)
	assert.True(t, in[0].CreatedAt.Equal(out[0].CreatedAt))
}

func TestEncodeProjectsNilIsEmptyArray(t *testing.T) {
	data, err := EncodeProjects(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncodedSizeGrowsWithContent(t *testing.T) {
	small := &Project{ID: "project-1", Name: "S"}
	big := &Project{ID: "project-1", Name: "S", ScriptText: "a considerably longer script body"}
	assert.Greater(t, EncodedSize(big), EncodedSize(small))
}
