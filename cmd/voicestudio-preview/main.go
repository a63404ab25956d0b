// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

// voicestudio-preview records a reference sample from the default microphone
// or plays an mp3 through the playback engine, straight from a terminal. It
// exists to exercise the capture and playback state machines against the real
// audio backends without standing up the full service.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	internal_capture "github.com/rapidaai/voicestudio/internal/capture"
	internal_playback "github.com/rapidaai/voicestudio/internal/playback"
	internal_type "github.com/rapidaai/voicestudio/internal/type"
	"github.com/rapidaai/voicestudio/pkg/commons"
)

func usage() {
	fmt.Println("usage:")
	fmt.Println("  voicestudio-preview record <out.wav>   record until Enter, save the clip")
	fmt.Println("  voicestudio-preview play <clip.mp3>    play a local file or URL")
}

func main() {
	if len(os.Args) != 3 {
		usage()
		os.Exit(2)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name("voicestudio-preview"),
		commons.Path(os.TempDir()),
		commons.Level("info"),
	)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	switch os.Args[1] {
	case "record":
		err = record(logger, os.Args[2])
	case "play":
		err = play(logger, os.Args[2])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func record(logger commons.Logger, outPath string) error {
	recorder := internal_capture.NewRecorder(
		logger,
		internal_capture.DefaultDevice(logger),
		internal_type.SystemClock(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := recorder.Start(ctx); err != nil {
		fmt.Println(internal_capture.DeviceErrorMessage(err))
		return err
	}
	fmt.Println("Recording... press Enter to stop.")

	// Live timer; the displayed seconds come from the cosmetic tick.
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fmt.Printf("\r%s  level %.2f ",
					internal_playback.FormatTime(float64(recorder.ElapsedSeconds())),
					recorder.InputLevel(),
				)
			}
		}
	}()

	enter := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()
	select {
	case <-enter:
	case <-ctx.Done():
	}
	close(done)
	fmt.Println()

	if err := recorder.Stop(); err != nil {
		return err
	}
	clip, duration, err := recorder.Handoff()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, clip, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	fmt.Printf("Saved %s (%.1fs, %d bytes)\n", outPath, duration, len(clip))
	return nil
}

func play(logger commons.Logger, source string) error {
	player := internal_playback.NewPlayer(
		logger,
		internal_playback.DefaultOpener(logger),
		internal_type.SystemClock(),
	)
	defer player.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := player.Load(ctx, source, nil); err != nil {
		return err
	}

	// Wait for the resource to buffer, then start.
	for player.Snapshot().State == internal_playback.StateIdle {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(50 * time.Millisecond)
	}
	if snap := player.Snapshot(); snap.State == internal_playback.StateFailed {
		return snap.Err
	}
	if err := player.Play(); err != nil {
		return err
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			player.Pause()
			fmt.Println()
			return nil
		case <-ticker.C:
			snap := player.Snapshot()
			switch snap.State {
			case internal_playback.StatePlaying:
				fmt.Printf("\r%s / %s ",
					internal_playback.FormatTime(snap.PositionSeconds),
					internal_playback.FormatTime(snap.DurationSeconds),
				)
			case internal_playback.StateFailed:
				fmt.Println()
				return snap.Err
			default:
				// Ended: position is back at zero, state back to ready.
				fmt.Printf("\rdone (%s)          \n", internal_playback.FormatTime(snap.DurationSeconds))
				return nil
			}
		}
	}
}
