package service

import (
	"sync"

	"go.uber.org/zap"

	"truecrime-studio/config"
	"truecrime-studio/models"
	"truecrime-studio/storage"
)

// Session is the mutable working state of the pipeline: the project being
// edited, slice by slice. Every setter notifies the autosave scheduler;
// nothing here is a package-level singleton — the repository and scheduler
// are injected at construction and handed around by reference.
type Session struct {
	mu sync.Mutex

	projectID    string
	projectName  string
	currentPhase int
	cfg          models.ProjectConfig
	research     *models.ResearchData
	scriptText   string
	storyboard   *models.StoryboardData
	voiceover    *models.VoiceoverData
	video        *models.VideoData

	repo  *storage.Repository
	sched *storage.Scheduler
	log   *zap.Logger
}

func defaultProjectConfig() models.ProjectConfig {
	return models.ProjectConfig{
		Timeframe:     "all",
		Language:      "en",
		TargetRuntime: 10,
	}
}

// NewSession builds the session and its autosave scheduler.
func NewSession(repo *storage.Repository, cfg *config.Config, log *zap.Logger) *Session {
	s := &Session{
		projectName: "Untitled Project",
		cfg:         defaultProjectConfig(),
		repo:        repo,
		log:         log,
	}
	s.sched = storage.NewScheduler(cfg.AutosaveInterval(), s.autosaveSnapshot, s.persist, log)
	return s
}

// Scheduler exposes the autosave scheduler for teardown.
func (s *Session) Scheduler() *storage.Scheduler {
	return s.sched
}

// Snapshot assembles the current full state as a Project aggregate.
func (s *Session) Snapshot() *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *models.Project {
	return &models.Project{
		ID:             s.projectID,
		Name:           s.projectName,
		CurrentPhase:   s.currentPhase,
		Config:         s.cfg,
		ResearchData:   s.research,
		ScriptText:     s.scriptText,
		StoryboardData: s.storyboard,
		VoiceoverData:  s.voiceover,
		VideoData:      s.video,
	}
}

// autosaveSnapshot feeds the debounce scheduler: nil when there is nothing
// worth writing yet. CreatedAt is the repository's business, not ours.
func (s *Session) autosaveSnapshot() *models.Project {
	p := s.Snapshot()
	if !p.HasContent() {
		return nil
	}
	return p
}

func (s *Session) persist(p *models.Project) bool {
	ok := s.repo.Save(p)
	if ok {
		s.mu.Lock()
		if s.projectID == "" {
			s.projectID = p.ID
		}
		s.mu.Unlock()
	}
	return ok
}

// SaveNow persists the current state immediately, bypassing the debounce.
// Returns the saved project (with id assigned on first save) and whether the
// write landed.
func (s *Session) SaveNow() (*models.Project, bool) {
	p := s.autosaveSnapshot()
	if p == nil {
		p = s.Snapshot()
	}
	ok := s.persist(p)
	return p, ok
}

// Load replaces the session state with a stored project.
func (s *Session) Load(id string) bool {
	p := s.repo.Get(id)
	if p == nil {
		return false
	}
	s.mu.Lock()
	s.projectID = p.ID
	s.projectName = p.Name
	s.currentPhase = p.CurrentPhase
	s.cfg = p.Config
	s.research = p.ResearchData
	s.scriptText = p.ScriptText
	s.storyboard = p.StoryboardData
	s.voiceover = p.VoiceoverData
	s.video = p.VideoData
	s.mu.Unlock()
	return true
}

// Reset clears the session back to a fresh unsaved project.
func (s *Session) Reset() {
	s.mu.Lock()
	s.projectID = ""
	s.projectName = "Untitled Project"
	s.currentPhase = models.PhaseDiscovery
	s.cfg = defaultProjectConfig()
	s.research = nil
	s.scriptText = ""
	s.storyboard = nil
	s.voiceover = nil
	s.video = nil
	s.mu.Unlock()
}

// Delete removes a stored project; when it is the loaded one the session
// resets.
func (s *Session) Delete(id string) bool {
	ok := s.repo.Delete(id)
	s.mu.Lock()
	current := s.projectID == id
	s.mu.Unlock()
	if current {
		s.Reset()
	}
	return ok
}

// ProjectID returns the id of the loaded project ("" before first save).
func (s *Session) ProjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID
}

func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.projectName = name
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetPhase(phase int) {
	if phase < models.PhaseDiscovery || phase > models.PhaseExport {
		return
	}
	s.mu.Lock()
	s.currentPhase = phase
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetConfig(cfg models.ProjectConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetResearchData(rd *models.ResearchData) {
	s.mu.Lock()
	s.research = rd
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetScriptText(text string) {
	s.mu.Lock()
	s.scriptText = text
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetStoryboardData(sd *models.StoryboardData) {
	s.mu.Lock()
	s.storyboard = sd
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetVoiceoverData(vd *models.VoiceoverData) {
	s.mu.Lock()
	s.voiceover = vd
	s.mu.Unlock()
	s.sched.NotifyChange()
}

func (s *Session) SetVideoData(vd *models.VideoData) {
	s.mu.Lock()
	s.video = vd
	s.mu.Unlock()
	s.sched.NotifyChange()
}

// UpdateRenderState patches the render linkage on the current video data.
func (s *Session) UpdateRenderState(renderID, status, videoURL string) {
	s.mu.Lock()
	if s.video != nil {
		if renderID != "" {
			s.video.RenderID = renderID
		}
		if status != "" {
			s.video.RenderStatus = status
		}
		if videoURL != "" {
			s.video.RenderedVideoURL = videoURL
		}
	}
	s.mu.Unlock()
	s.sched.NotifyChange()
}

// Close flushes a final save and tears the scheduler down.
func (s *Session) Close() {
	s.sched.Flush()
	s.sched.Dispose()
}
