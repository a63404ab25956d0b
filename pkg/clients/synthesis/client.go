// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package synthesis_client

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rapidaai/voicestudio/pkg/commons"
	"github.com/rapidaai/voicestudio/pkg/configs"
)

// SynthesizeRequest asks the speech backend for one clip.
type SynthesizeRequest struct {
	// Text to speak.
	Text string `json:"text"`
	// Emotion tag, e.g. "neutral", "cheerful", "sad".
	Emotion string `json:"emotion"`
	// VoiceUrl is a dereferenceable URL of the reference voice sample.
	VoiceUrl string `json:"voiceUrl"`
}

// SynthesizeResult is the decoded backend response.
type SynthesizeResult struct {
	Audio           []byte
	ContentType     string
	DurationSeconds float64
}

// Client calls the external speech synthesis backend. The backend itself is
// out of scope here; this is just its wire contract.
type Client interface {
	Synthesize(ctx context.Context, request *SynthesizeRequest) (*SynthesizeResult, error)
}

type synthesizeWire struct {
	AudioBase64     string  `json:"audio"`
	ContentType     string  `json:"contentType"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type restyClient struct {
	http   *resty.Client
	logger commons.Logger
}

// NewClient builds a synthesis client over the configured host.
func NewClient(cfg configs.SynthesisConfig, logger commons.Logger) Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	http := resty.New().
		SetBaseURL(cfg.Host).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.ApiKey != "" {
		http.SetAuthToken(cfg.ApiKey)
	}
	return &restyClient{http: http, logger: logger}
}

func (c *restyClient) Synthesize(ctx context.Context, request *SynthesizeRequest) (*SynthesizeResult, error) {
	var wire synthesizeWire
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&wire).
		Post("/v1/synthesize")
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("synthesis backend returned status %d", resp.StatusCode())
	}

	audio, err := base64.StdEncoding.DecodeString(wire.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("synthesis backend returned malformed audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis backend returned no audio")
	}

	c.logger.Debugf("synthesized clip: bytes=%d, duration=%.1fs", len(audio), wire.DurationSeconds)
	return &SynthesizeResult{
		Audio:           audio,
		ContentType:     wire.ContentType,
		DurationSeconds: wire.DurationSeconds,
	}, nil
}
