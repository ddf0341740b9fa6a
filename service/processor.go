package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"truecrime-studio/config"
	"truecrime-studio/models"
)

// Processor consumes generation tasks: it calls the upstream service for the
// phase, offloads any large payloads the result carries, and writes the
// result into the session. Local persistence is left to the autosave
// scheduler (or an explicit save) — a save is never blocked on, or retried
// against, the remote services.
type Processor struct {
	session  *Session
	services *Services
	gateway  BlobGateway
	tasks    *TaskRegistry
	log      *zap.Logger

	srv *asynq.Server
}

func NewProcessor(session *Session, services *Services, gateway BlobGateway, tasks *TaskRegistry, log *zap.Logger) *Processor {
	return &Processor{
		session:  session,
		services: services,
		gateway:  gateway,
		tasks:    tasks,
		log:      log,
	}
}

// Start launches the asynq consumer.
func (p *Processor) Start(cfg *config.Config, concurrency int) error {
	p.srv = asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{"default": 1},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(typeGenerate, p.HandleGenerateTask)

	p.log.Info("task processor starting", zap.Int("concurrency", concurrency))
	go func() {
		if err := p.srv.Run(mux); err != nil {
			p.log.Fatal("task processor stopped", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown stops the consumer.
func (p *Processor) Shutdown() {
	if p.srv != nil {
		p.srv.Shutdown()
	}
}

// HandleGenerateTask dispatches one queued generation task.
func (p *Processor) HandleGenerateTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	p.log.Info("processing task",
		zap.String("task_id", payload.TaskID),
		zap.String("type", payload.Type))
	p.setProgress(payload.TaskID, models.TaskStatusProcessing, 5, "Task started")

	var err error
	switch payload.Type {
	case models.TaskTypeResearch:
		err = p.runResearch(ctx, payload)
	case models.TaskTypeScript:
		err = p.runScript(ctx, payload)
	case models.TaskTypeStoryboard:
		err = p.runStoryboard(ctx, payload)
	case models.TaskTypeVoiceover:
		err = p.runVoiceover(ctx, payload)
	case models.TaskTypeRender:
		err = p.runRender(ctx, payload)
	default:
		err = fmt.Errorf("unknown task type %q", payload.Type)
	}

	if err != nil {
		p.tasks.Update(payload.TaskID, models.TaskStatusFailed, intp(100), "Task failed", nil, err.Error())
		p.log.Error("task failed",
			zap.String("task_id", payload.TaskID),
			zap.String("type", payload.Type),
			zap.Error(err))
		// Upstream retries already ran inside the handler; requeueing would
		// only repeat them.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return nil
}

func (p *Processor) runResearch(ctx context.Context, payload TaskPayload) error {
	rd, err := p.services.Research(ctx, payload.CaseName, payload.Timeframe)
	if err != nil {
		return err
	}
	p.session.SetResearchData(rd)
	p.session.SetPhase(models.PhaseResearch)
	p.finish(payload.TaskID, models.TaskResult{ResourceType: "research"}, "Research complete")
	return nil
}

func (p *Processor) runScript(ctx context.Context, payload TaskPayload) error {
	snap := p.session.Snapshot()
	if snap.ResearchData == nil {
		return fmt.Errorf("no research data to script from")
	}
	res, err := p.services.GenerateScript(ctx, ScriptRequest{
		CaseName:       snap.ResearchData.CaseName,
		Summary:        snap.ResearchData.Summary,
		TargetDuration: snap.Config.TargetRuntime,
		FactCheckScore: snap.ResearchData.FactCheckingScore,
	})
	if err != nil {
		return err
	}
	p.session.SetScriptText(res.Content)
	p.session.SetPhase(models.PhaseScript)
	p.finish(payload.TaskID, models.TaskResult{ResourceType: "script"}, fmt.Sprintf("Script generated (%d words)", res.WordCount))
	return nil
}

func (p *Processor) runStoryboard(ctx context.Context, payload TaskPayload) error {
	snap := p.session.Snapshot()
	if snap.ScriptText == "" {
		return fmt.Errorf("no script to storyboard")
	}
	caseName := snap.Name
	if snap.ResearchData != nil {
		caseName = snap.ResearchData.CaseName
	}
	sb, err := p.services.GenerateStoryboard(ctx, StoryboardRequest{
		Script:      snap.ScriptText,
		CaseName:    caseName,
		VisualStyle: payload.VisualStyle,
	})
	if err != nil {
		return err
	}

	// Offload inline preview images at generation time; a failed upload
	// keeps the image inline. This is where the local-store budget is won
	// or lost — a 50-scene storyboard with embedded previews is megabytes.
	offloaded := 0
	for i := range sb.Scenes {
		scene := &sb.Scenes[i]
		if scene.PreviewImage == "" {
			continue
		}
		name := fmt.Sprintf("%s-scene-%s.png", caseName, scene.SceneID)
		if res := OffloadBase64(ctx, p.gateway, scene.PreviewImage, "image/png", name, p.log); res != nil {
			scene.PreviewImageURL = res.URL
			scene.PreviewImage = ""
			offloaded++
		}
		pct := 10 + (80*(i+1))/len(sb.Scenes)
		p.setProgress(payload.TaskID, models.TaskStatusProcessing, pct, "Processing scenes")
	}
	if offloaded > 0 {
		p.log.Info("storyboard previews offloaded",
			zap.Int("offloaded", offloaded),
			zap.Int("scenes", len(sb.Scenes)))
	}

	p.session.SetStoryboardData(sb)
	p.session.SetPhase(models.PhaseStoryboard)
	p.finish(payload.TaskID, models.TaskResult{ResourceType: "storyboard"}, fmt.Sprintf("Storyboard generated (%d scenes)", sb.TotalScenes))
	return nil
}

func (p *Processor) runVoiceover(ctx context.Context, payload TaskPayload) error {
	snap := p.session.Snapshot()
	if snap.ScriptText == "" {
		return fmt.Errorf("no script to narrate")
	}
	res, err := p.services.GenerateVoiceover(ctx, VoiceoverRequest{
		Text:       snap.ScriptText,
		VoiceStyle: payload.VoiceStyle,
		Speed:      payload.Speed,
		Pitch:      payload.Pitch,
	})
	if err != nil {
		return err
	}

	vd := &models.VoiceoverData{
		AudioData:   res.AudioData,
		Duration:    res.Duration,
		VoiceStyle:  res.VoiceStyle,
		Speed:       res.Speed,
		Pitch:       res.Pitch,
		GeneratedAt: res.GeneratedAt,
	}
	audioURL := ""
	name := fmt.Sprintf("%s-voiceover.mp3", snap.Name)
	if up := OffloadBase64(ctx, p.gateway, res.AudioData, "audio/mpeg", name, p.log); up != nil {
		vd.AudioURL = up.URL
		vd.AudioData = ""
		audioURL = up.URL
	}

	p.session.SetVoiceoverData(vd)
	p.session.SetPhase(models.PhaseVoiceover)
	p.finish(payload.TaskID, models.TaskResult{ResourceType: "audio", ResourceURL: audioURL}, "Voiceover generated")
	return nil
}

func (p *Processor) runRender(ctx context.Context, payload TaskPayload) error {
	snap := p.session.Snapshot()
	if snap.VideoData == nil || len(snap.VideoData.Scenes) == 0 {
		return fmt.Errorf("no timeline to render")
	}
	req := RenderRequest{
		Scenes:   snap.VideoData.Scenes,
		AudioURL: snap.VideoData.AudioURL,
	}
	req.Settings.Resolution = snap.VideoData.Resolution
	req.Settings.FPS = snap.VideoData.FPS

	job, err := p.services.StartRender(ctx, req)
	if err != nil {
		return err
	}
	p.session.UpdateRenderState(job.RenderID, models.RenderStatusProcessing, "")
	p.setProgress(payload.TaskID, models.TaskStatusProcessing, 10, "Render started")

	// Poll the external service until the job is terminal. Only the status
	// contract is consumed here; rendering itself is entirely the service's
	// problem.
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		st, err := p.services.CheckRenderStatus(ctx, job.RenderID)
		if err != nil {
			p.log.Warn("render status poll failed", zap.Error(err))
			continue
		}
		p.setProgress(payload.TaskID, models.TaskStatusProcessing, clampPercent(st.Progress), "Rendering")
		switch st.Status {
		case models.RenderStatusCompleted:
			p.session.UpdateRenderState(job.RenderID, st.Status, st.VideoURL)
			p.session.SetPhase(models.PhaseAssembly)
			p.finish(payload.TaskID, models.TaskResult{ResourceType: "video", ResourceURL: st.VideoURL, RenderID: job.RenderID}, "Render complete")
			return nil
		case models.RenderStatusFailed:
			p.session.UpdateRenderState(job.RenderID, st.Status, "")
			if st.Error != "" {
				return fmt.Errorf("render failed: %s", st.Error)
			}
			return fmt.Errorf("render failed")
		}
	}
}

func (p *Processor) setProgress(taskID, status string, pct int, message string) {
	p.tasks.Update(taskID, status, intp(pct), message, nil, "")
}

func (p *Processor) finish(taskID string, result models.TaskResult, message string) {
	p.tasks.Update(taskID, models.TaskStatusSuccess, intp(100), message, &result, "")
}

func intp(v int) *int { return &v }

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
