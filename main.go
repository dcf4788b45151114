// ABOUTME: Entry point for the PromptDJ client
// ABOUTME: Parses CLI flags, loads configuration, and runs the control surface
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/promptdj/promptdj-go/internal/app"
	"github.com/promptdj/promptdj-go/internal/prompts"
	"github.com/promptdj/promptdj-go/internal/protocol"
	"github.com/promptdj/promptdj-go/internal/ui"
	"github.com/promptdj/promptdj-go/internal/version"
)

const defaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateMusic"

var (
	endpoint  = flag.String("endpoint", defaultEndpoint, "Generation backend WebSocket endpoint")
	modelName = flag.String("model", "models/lyria-realtime-exp", "Generation model")
	storePath = flag.String("store", "", "Prompt store path (default: user config dir)")
	bpm       = flag.Int("bpm", 0, "Initial tempo (0 leaves the backend default)")
	noMIDI    = flag.Bool("no-midi", false, "Disable MIDI input binding")
	logFile   = flag.String("log-file", "promptdj.log", "Log file path")
	noTUI     = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	// Secrets come from .env or the environment, never from flags
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded configuration from .env")
	}
	apiKey := os.Getenv("PROMPTDJ_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PROMPTDJ_API_KEY (or GEMINI_API_KEY) must be set")
		os.Exit(1)
	}

	store := *storePath
	if store == "" {
		store, err = prompts.DefaultPath()
		if err != nil {
			log.Fatalf("Failed to resolve prompt store path: %v", err)
		}
	}

	log.Printf("Starting %s %s", version.Product, version.Version)

	// TUI setup
	var tuiProg *tea.Program
	control := ui.NewControl()

	if useTUI {
		tuiProg, err = ui.Run(control)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			control.Quit <- struct{}{}
		}()
	}

	updateUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		} else if msg.Toast != "" {
			log.Printf("Notice: %s", msg.Toast)
		}
	}

	controller, err := app.New(app.Config{
		Endpoint:  *endpoint,
		APIKey:    apiKey,
		Model:     *modelName,
		StorePath: store,
		UseMIDI:   !*noMIDI,
		UpdateUI:  updateUI,
	})
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	if *bpm > 0 {
		controller.SetGenerationConfig(protocol.GenerationConfig{BPM: *bpm})
	}

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case ev := <-control.Events:
			if ev.Kind == ui.EventQuit {
				shutdown(controller, tuiProg)
				return
			}
			controller.HandleEvent(ev)

		case <-control.Quit:
			shutdown(controller, tuiProg)
			return

		case <-sigChan:
			log.Printf("Shutdown signal received")
			shutdown(controller, tuiProg)
			return
		}
	}
}

func shutdown(controller *app.Controller, tuiProg *tea.Program) {
	controller.Close()
	if tuiProg != nil {
		tuiProg.Quit()
	}
	log.Printf("Stopped")
}
