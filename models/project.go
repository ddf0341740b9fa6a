package models

import "time"

// Pipeline phases (linear, 0-7). CurrentPhase is monotonic in normal use but
// nothing enforces that.
const (
	PhaseDiscovery  = 0
	PhaseResearch   = 1
	PhaseScript     = 2
	PhaseStoryboard = 3
	PhaseVoiceover  = 4
	PhaseAssembly   = 5
	PhasePackaging  = 6
	PhaseExport     = 7
)

// Render job states reported by the external render service.
const (
	RenderStatusPending    = "pending"
	RenderStatusProcessing = "processing"
	RenderStatusCompleted  = "completed"
	RenderStatusFailed     = "failed"
)

// ProjectConfig is the small per-project settings record.
type ProjectConfig struct {
	Timeframe     string `json:"timeframe"`
	Language      string `json:"language"`
	TargetRuntime int    `json:"targetRuntime"`
}

type TimelineEntry struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

type KeyPerson struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type Source struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Source      string `json:"source"`
	Credibility string `json:"credibility"` // high | medium | low
}

// ResearchData holds the structured output of the research service. Textual
// only, no binary payloads.
type ResearchData struct {
	CaseName          string          `json:"caseName"`
	Summary           string          `json:"summary"`
	Timeline          []TimelineEntry `json:"timeline"`
	KeyPeople         []KeyPerson     `json:"keyPeople"`
	Locations         []string        `json:"locations"`
	Outcomes          []string        `json:"outcomes"`
	Sources           []Source        `json:"sources"`
	SensitiveElements []string        `json:"sensitiveElements"`
	FactCheckingScore float64         `json:"factCheckingScore"`
	ResearchedAt      string          `json:"researchedAt"`
}

// StoryboardScene is one scene of the storyboard. PreviewImage, when inline,
// is a base64 data string and dominates the scene's serialized size.
type StoryboardScene struct {
	SceneID        string   `json:"sceneId"`
	Duration       float64  `json:"duration"`
	ScriptExcerpt  string   `json:"scriptExcerpt"`
	VisualPrompt   string   `json:"visualPrompt"`
	CameraAngle    string   `json:"cameraAngle"`
	CameraMovement string   `json:"cameraMovement"`
	Lighting       string   `json:"lighting"`
	Mood           string   `json:"mood"`
	Characters     []string `json:"characters"`
	Setting        string   `json:"setting"`
	EditorNotes    string   `json:"editorNotes"`
	PreviewImage   string   `json:"previewImage,omitempty"`
	// PreviewImageURL is set instead of PreviewImage when the image was
	// offloaded to object storage.
	PreviewImageURL string `json:"previewImageUrl,omitempty"`
}

type StoryboardData struct {
	Scenes        []StoryboardScene `json:"scenes"`
	TotalScenes   int               `json:"totalScenes"`
	TotalDuration float64           `json:"totalDuration"`
	GlobalStyle   string            `json:"globalStyle"`
	GeneratedAt   string            `json:"generatedAt"`
}

type SceneTimestamp struct {
	Time    float64 `json:"time"`
	SceneID string  `json:"sceneId"`
	Label   string  `json:"label"`
}

// VoiceoverData holds one narration track. AudioData is the inline base64
// payload; AudioURL replaces it when the track was offloaded.
type VoiceoverData struct {
	AudioData   string           `json:"audioData,omitempty"`
	AudioURL    string           `json:"audioUrl,omitempty"`
	Duration    float64          `json:"duration"`
	VoiceStyle  string           `json:"voiceStyle"` // dramatic | neutral | mysterious
	Speed       float64          `json:"speed"`
	Pitch       float64          `json:"pitch"`
	Timestamps  []SceneTimestamp `json:"timestamps"`
	GeneratedAt string           `json:"generatedAt"`
}

type VideoScene struct {
	ID         string  `json:"id"`
	SceneID    string  `json:"sceneId"`
	ImageURL   string  `json:"imageUrl"`
	Duration   float64 `json:"duration"`
	Transition string  `json:"transition"` // fade | dissolve | cut | wipe
	AudioStart float64 `json:"audioStart"`
	AudioEnd   float64 `json:"audioEnd"`
	Order      int     `json:"order"`
}

type VideoData struct {
	Scenes           []VideoScene `json:"scenes"`
	TotalDuration    float64      `json:"totalDuration"`
	AudioURL         string       `json:"audioUrl,omitempty"`
	ExportFormat     string       `json:"exportFormat"` // mp4 | mov
	Resolution       string       `json:"resolution"`   // 1080p | 4k
	FPS              int          `json:"fps"`          // 30 | 60
	GeneratedAt      string       `json:"generatedAt"`
	RenderID         string       `json:"renderId,omitempty"`
	RenderStatus     string       `json:"renderStatus,omitempty"`
	RenderedVideoURL string       `json:"renderedVideoUrl,omitempty"`
}

// Project is the root persisted aggregate: the full state of one production
// pipeline run. The repository is the sole writer of ID, CreatedAt and
// UpdatedAt.
type Project struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CurrentPhase   int             `json:"currentPhase"`
	Config         ProjectConfig   `json:"config"`
	ResearchData   *ResearchData   `json:"researchData"`
	ScriptText     string          `json:"scriptText"`
	StoryboardData *StoryboardData `json:"storyboardData"`
	VoiceoverData  *VoiceoverData  `json:"voiceoverData"`
	VideoData      *VideoData      `json:"videoData"`
}

// HasContent reports whether any content slice is non-empty. Autosave skips
// projects with nothing in them.
func (p *Project) HasContent() bool {
	return p.ResearchData != nil || p.ScriptText != "" ||
		p.StoryboardData != nil || p.VoiceoverData != nil || p.VideoData != nil
}
