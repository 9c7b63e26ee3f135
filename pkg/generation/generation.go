// Package generation holds the downstream generator collaborators. They sit
// outside the charge boundary: the gateway has already debited the account by
// the time a generator runs, and a generator failure does not refund it.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/sitirukayah12-del/sora2-demo/pkg/appconfig"
)

// Result is what a generator hands back on success.
type Result struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// UpstreamError reports a downstream generator failure, surfaced with
// status/detail passthrough.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream generation failed (%d): %s", e.Status, e.Detail)
}

// Generator produces one kind of media from a request payload.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts map[string]interface{}) (Result, error)
}

// Sample assets served in mock mode, matching the demo frontend.
const (
	mockVideoURL  = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"
	mockAvatarURL = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4"
	mockImageURL  = "https://picsum.photos/1024/1024"
	mockAudioURL  = "https://www.soundhelix.com/examples/mp3/SoundHelix-Song-1.mp3"

	mockLatency = 150 * time.Millisecond
)

// mockDelay simulates upstream latency without ignoring cancellation.
func mockDelay(ctx context.Context) error {
	select {
	case <-time.After(mockLatency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VideoGenerator mocks or proxies text-to-video generation.
type VideoGenerator struct {
	Config *appconfig.Store
}

func (g *VideoGenerator) Generate(ctx context.Context, prompt string, opts map[string]interface{}) (Result, error) {
	settings := g.Config.Snapshot()
	if settings.MockMode || settings.SoraAPIKey == "" {
		if err := mockDelay(ctx); err != nil {
			return Result{}, err
		}
		return Result{
			Status:   "success",
			VideoURL: mockVideoURL,
			Message:  "mock video generated; configure an API key to enable real calls",
		}, nil
	}
	// Real upstream integration is not wired in this deployment.
	return Result{}, &UpstreamError{Status: 502, Detail: "real video generation not configured"}
}

// ImageGenerator mocks text-to-image generation.
type ImageGenerator struct {
	Config *appconfig.Store
}

func (g *ImageGenerator) Generate(ctx context.Context, prompt string, opts map[string]interface{}) (Result, error) {
	settings := g.Config.Snapshot()
	if settings.MockMode || settings.VeoAPIKey == "" {
		if err := mockDelay(ctx); err != nil {
			return Result{}, err
		}
		return Result{
			Status:   "success",
			ImageURL: mockImageURL,
			Message:  "mock image generated",
		}, nil
	}
	return Result{}, &UpstreamError{Status: 502, Detail: "real image generation not configured"}
}

// MusicGenerator mocks text-to-music generation.
type MusicGenerator struct {
	Config *appconfig.Store
}

func (g *MusicGenerator) Generate(ctx context.Context, prompt string, opts map[string]interface{}) (Result, error) {
	settings := g.Config.Snapshot()
	if settings.MockMode || settings.SunoAPIKey == "" {
		if err := mockDelay(ctx); err != nil {
			return Result{}, err
		}
		return Result{
			Status:   "success",
			AudioURL: mockAudioURL,
			Message:  "mock music generated",
		}, nil
	}
	return Result{}, &UpstreamError{Status: 502, Detail: "real music generation not configured"}
}

// AvatarGenerator mocks talking-avatar generation.
type AvatarGenerator struct {
	Config *appconfig.Store
}

func (g *AvatarGenerator) Generate(ctx context.Context, prompt string, opts map[string]interface{}) (Result, error) {
	settings := g.Config.Snapshot()
	if settings.MockMode || settings.HeygemAPIKey == "" {
		if err := mockDelay(ctx); err != nil {
			return Result{}, err
		}
		return Result{
			Status:   "success",
			VideoURL: mockAvatarURL,
			Message:  "mock avatar video generated",
		}, nil
	}
	return Result{}, &UpstreamError{Status: 502, Detail: "real avatar generation not configured"}
}
