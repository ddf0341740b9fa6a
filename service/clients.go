package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"truecrime-studio/config"
	"truecrime-studio/models"
)

// Paths of the deployed proxy functions, relative to the services base URL.
const (
	pathResearch     = "/research-case"
	pathScript       = "/generate-script"
	pathStoryboard   = "/generate-storyboard"
	pathVoiceover    = "/generate-voiceover"
	pathRender       = "/render-video"
	pathRenderStatus = "/check-render-status"
)

type ScriptRequest struct {
	CaseName       string  `json:"caseName"`
	Summary        string  `json:"summary"`
	TargetDuration int     `json:"targetDuration"`
	FactCheckScore float64 `json:"factCheckingScore"`
}

type ScriptResult struct {
	Content           string `json:"content"`
	WordCount         int    `json:"wordCount"`
	EstimatedDuration int    `json:"estimatedDuration"`
	GeneratedAt       string `json:"generatedAt"`
}

type StoryboardRequest struct {
	Script      string `json:"script"`
	CaseName    string `json:"caseName"`
	VisualStyle string `json:"visualStyle"`
}

type VoiceoverRequest struct {
	Text       string  `json:"text"`
	VoiceStyle string  `json:"voiceStyle"`
	Speed      float64 `json:"speed"`
	Pitch      float64 `json:"pitch"`
}

type VoiceoverResult struct {
	AudioData   string  `json:"audioData"`
	Duration    float64 `json:"duration"`
	VoiceStyle  string  `json:"voiceStyle"`
	Speed       float64 `json:"speed"`
	Pitch       float64 `json:"pitch"`
	GeneratedAt string  `json:"generatedAt"`
}

type RenderRequest struct {
	Scenes   []models.VideoScene `json:"scenes"`
	AudioURL string              `json:"audioUrl,omitempty"`
	Settings struct {
		Resolution string `json:"resolution"`
		FPS        int    `json:"fps"`
	} `json:"settings"`
}

type RenderJobRef struct {
	RenderID string `json:"renderId"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

type RenderStatus struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	VideoURL string `json:"videoUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Services is the HTTP client for every upstream proxy. Calls go through the
// bounded-retry helper; research responses are memoised for an hour so
// re-running phase 1 on the same case does not burn upstream quota.
type Services struct {
	base          string
	client        *http.Client
	retry         RetryConfig
	researchCache *gocache.Cache
	log           *zap.Logger
}

func NewServices(cfg *config.Config, log *zap.Logger) *Services {
	retry := RetryConfig{
		MaxAttempts:  cfg.Services.Retry.MaxAttempts,
		InitialDelay: time.Duration(cfg.Services.Retry.InitialDelayMS) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Services.Retry.MaxDelayMS) * time.Millisecond,
		OnRetry: func(attempt int, err error) {
			log.Warn("upstream call retrying", zap.Int("attempt", attempt), zap.Error(err))
		},
	}
	return &Services{
		base:          cfg.Services.BaseURL,
		client:        &http.Client{Timeout: cfg.ServiceTimeout()},
		retry:         retry,
		researchCache: gocache.New(time.Hour, 10*time.Minute),
		log:           log,
	}
}

// Research looks up a case. Returns the structured research record.
func (s *Services) Research(ctx context.Context, caseName, timeframe string) (*models.ResearchData, error) {
	if caseName == "" {
		return nil, fmt.Errorf("case name is required")
	}
	cacheKey := caseName + "|" + timeframe
	if cached, ok := s.researchCache.Get(cacheKey); ok {
		rd := cached.(models.ResearchData)
		return &rd, nil
	}

	var out models.ResearchData
	req := map[string]string{"caseName": caseName, "timeframe": timeframe}
	if err := s.postJSON(ctx, pathResearch, req, &out); err != nil {
		return nil, err
	}
	s.researchCache.Set(cacheKey, out, gocache.DefaultExpiration)
	return &out, nil
}

// GenerateScript turns research summary fields into a narration script.
func (s *Services) GenerateScript(ctx context.Context, req ScriptRequest) (*ScriptResult, error) {
	var out struct {
		envelope
		Script *ScriptResult `json:"script"`
	}
	if err := s.postJSON(ctx, pathScript, req, &out); err != nil {
		return nil, err
	}
	if err := out.check(); err != nil {
		return nil, err
	}
	if out.Script == nil {
		return nil, fmt.Errorf("script service returned no script")
	}
	return out.Script, nil
}

// GenerateStoryboard breaks a script into scenes.
func (s *Services) GenerateStoryboard(ctx context.Context, req StoryboardRequest) (*models.StoryboardData, error) {
	var out struct {
		envelope
		Storyboard *models.StoryboardData `json:"storyboard"`
	}
	if err := s.postJSON(ctx, pathStoryboard, req, &out); err != nil {
		return nil, err
	}
	if err := out.check(); err != nil {
		return nil, err
	}
	if out.Storyboard == nil {
		return nil, fmt.Errorf("storyboard service returned no storyboard")
	}
	return out.Storyboard, nil
}

// GenerateVoiceover synthesizes the narration track. The returned AudioData
// is an inline base64 payload; the caller decides whether to offload it.
func (s *Services) GenerateVoiceover(ctx context.Context, req VoiceoverRequest) (*VoiceoverResult, error) {
	var out struct {
		envelope
		VoiceoverResult
	}
	if err := s.postJSON(ctx, pathVoiceover, req, &out); err != nil {
		return nil, err
	}
	if err := out.check(); err != nil {
		return nil, err
	}
	res := out.VoiceoverResult
	return &res, nil
}

// StartRender submits the timeline to the external render service.
func (s *Services) StartRender(ctx context.Context, req RenderRequest) (*RenderJobRef, error) {
	var out RenderJobRef
	if err := s.postJSON(ctx, pathRender, req, &out); err != nil {
		return nil, err
	}
	if out.RenderID == "" {
		return nil, fmt.Errorf("render service returned no render id")
	}
	return &out, nil
}

// CheckRenderStatus polls one render job.
func (s *Services) CheckRenderStatus(ctx context.Context, renderID string) (*RenderStatus, error) {
	var out RenderStatus
	req := map[string]string{"renderId": renderID}
	if err := s.postJSON(ctx, pathRenderStatus, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// envelope is the {success, error} wrapper some proxies put around their
// payload. A response that decodes but reports failure is permanent, not
// retryable.
type envelope struct {
	Success *bool  `json:"success"`
	Err     string `json:"error"`
}

func (e envelope) check() error {
	if e.Success != nil && !*e.Success {
		if e.Err != "" {
			return fmt.Errorf("upstream rejected request: %s", e.Err)
		}
		return fmt.Errorf("upstream rejected request")
	}
	return nil
}

func (s *Services) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	url := s.base + path

	return WithRetry(ctx, s.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		start := time.Now()
		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
		if err != nil {
			return err
		}
		s.log.Debug("upstream call",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("took", time.Since(start)))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &HTTPStatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
		}
		if err := json.Unmarshal(raw, out); err != nil {
			// Fails closed: an unparseable body is a permanent failure, the
			// caller treats the result as absent.
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
