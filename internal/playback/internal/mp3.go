// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_media

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gordonklaus/portaudio"
	mp3 "github.com/hajimehoshi/go-mp3"
	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

// go-mp3 always decodes to 16-bit stereo.
const (
	outputChannels  = 2
	bytesPerFrame   = 4 // 2 channels × 2 bytes
	framesPerBuffer = 1024
)

// Opener resolves signed URLs, public URLs and local paths into playable mp3
// resources.
type Opener struct {
	logger commons.Logger
	http   *resty.Client
}

func NewOpener(logger commons.Logger) *Opener {
	return &Opener{
		logger: logger,
		http:   resty.New().SetTimeout(30 * time.Second),
	}
}

func (o *Opener) OpenMedia(ctx context.Context, sourceURL string) (internal_type.MediaResource, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, fmt.Errorf("empty source url")
	}
	return &resource{
		logger:    o.logger,
		http:      o.http,
		ctx:       ctx,
		sourceURL: sourceURL,
	}, nil
}

// resource decodes one mp3 clip and plays it through the default output
// device. Position and duration are derived from the decoded PCM byte offset,
// so seeks are sample-accurate.
type resource struct {
	logger    commons.Logger
	http      *resty.Client
	ctx       context.Context
	sourceURL string
	events    internal_type.MediaEvents

	mu         sync.Mutex
	decoder    *mp3.Decoder
	sampleRate int
	totalBytes int64
	readBytes  int64
	playing    bool
	stopPlay   chan struct{}
	closed     bool
}

// Open starts fetching and decoding in the background; lifecycle events fire
// on the resource's goroutine as loading progresses.
func (r *resource) Open(events internal_type.MediaEvents) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events != nil {
		return fmt.Errorf("resource already opened")
	}
	r.events = events
	go r.load()
	return nil
}

func (r *resource) load() {
	r.events.OnLoadStart()

	data, err := r.fetch()
	if err != nil {
		r.events.OnError(err)
		return
	}
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		r.events.OnError(fmt.Errorf("decode %s: %w", r.sourceURL, err))
		return
	}

	r.mu.Lock()
	r.decoder = decoder
	r.sampleRate = decoder.SampleRate()
	r.totalBytes = decoder.Length()
	duration := r.durationLocked()
	r.mu.Unlock()

	r.events.OnMetadata(duration)
	r.events.OnCanPlay()
}

func (r *resource) fetch() ([]byte, error) {
	if strings.HasPrefix(r.sourceURL, "http://") || strings.HasPrefix(r.sourceURL, "https://") {
		resp, err := r.http.R().SetContext(r.ctx).Get(r.sourceURL)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", r.sourceURL, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("fetch %s: status %d", r.sourceURL, resp.StatusCode())
		}
		return resp.Body(), nil
	}
	data, err := os.ReadFile(r.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.sourceURL, err)
	}
	return data, nil
}

func (r *resource) Play() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("resource is closed")
	}
	if r.decoder == nil {
		return fmt.Errorf("resource is not buffered yet")
	}
	if r.playing {
		return nil
	}

	stop := make(chan struct{})
	r.stopPlay = stop
	r.playing = true
	go r.pump(stop)
	return nil
}

func (r *resource) pump(stop chan struct{}) {
	if err := portaudio.Initialize(); err != nil {
		r.playbackFailed(fmt.Errorf("output init: %w", err))
		return
	}
	defer portaudio.Terminate()

	buffer := make([]int16, framesPerBuffer*outputChannels)
	stream, err := portaudio.OpenDefaultStream(0, outputChannels, float64(r.sampleRate), framesPerBuffer, buffer)
	if err != nil {
		r.playbackFailed(fmt.Errorf("output open: %w", err))
		return
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		r.playbackFailed(fmt.Errorf("output start: %w", err))
		return
	}
	defer stream.Stop()

	chunk := make([]byte, framesPerBuffer*bytesPerFrame)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := r.readChunk(chunk)
		if n > 0 {
			for i := 0; i < len(buffer); i++ {
				if i*2+1 < n {
					buffer[i] = int16(binary.LittleEndian.Uint16(chunk[i*2 : i*2+2]))
				} else {
					buffer[i] = 0
				}
			}
			if werr := stream.Write(); werr != nil {
				r.logger.Warnf("media: output write: %v", werr)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			r.finished()
			return
		}
		if err != nil {
			r.playbackFailed(fmt.Errorf("decode stream: %w", err))
			return
		}
	}
}

// readChunk pulls the next PCM chunk under the lock so seeks cannot tear a
// read in half. Close can win the lock between the pump's stop check and this
// read, so a closed resource reads as end-of-stream instead of touching the
// released decoder.
func (r *resource) readChunk(chunk []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.decoder == nil {
		return 0, io.EOF
	}
	n, err := io.ReadFull(r.decoder, chunk)
	r.readBytes += int64(n)
	return n, err
}

// finished rewinds to the start and reports ended.
func (r *resource) finished() {
	r.mu.Lock()
	r.playing = false
	r.stopPlay = nil
	r.readBytes = 0
	if r.closed || r.decoder == nil {
		r.mu.Unlock()
		return
	}
	r.decoder.Seek(0, io.SeekStart)
	r.mu.Unlock()
	r.events.OnEnded()
}

func (r *resource) playbackFailed(err error) {
	r.mu.Lock()
	r.playing = false
	r.stopPlay = nil
	r.mu.Unlock()
	r.events.OnError(err)
}

func (r *resource) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseLocked()
}

func (r *resource) pauseLocked() {
	if r.stopPlay != nil {
		close(r.stopPlay)
		r.stopPlay = nil
	}
	r.playing = false
}

func (r *resource) Seek(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.decoder == nil || seconds < 0 {
		return
	}
	offset := int64(seconds*float64(r.sampleRate)) * bytesPerFrame
	if offset > r.totalBytes {
		offset = r.totalBytes
	}
	if _, err := r.decoder.Seek(offset, io.SeekStart); err != nil {
		r.logger.Warnf("media: seek failed: %v", err)
		return
	}
	r.readBytes = offset
}

func (r *resource) Position() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sampleRate == 0 {
		return 0
	}
	return float64(r.readBytes) / float64(bytesPerFrame*r.sampleRate)
}

func (r *resource) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.durationLocked()
}

func (r *resource) durationLocked() float64 {
	if r.sampleRate == 0 {
		return 0
	}
	return float64(r.totalBytes) / float64(bytesPerFrame*r.sampleRate)
}

func (r *resource) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pauseLocked()
	r.closed = true
	r.decoder = nil
	return nil
}
