// Command canvasctl is a terminal client for the frame's control panels.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aouyang1/iotacanvas/api/client"
	"github.com/aouyang1/iotacanvas/config"
	"github.com/aouyang1/iotacanvas/logging"
	"github.com/aouyang1/iotacanvas/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	baseURL := flag.String("url", cfg.Client.BaseURL, "base url of the frame")
	logFile := flag.String("log", "", "write logs to this file")
	flag.Parse()

	// the terminal belongs to the ui, so logs only go to a file
	logCfg := cfg.Log
	logCfg.File = *logFile
	logger, closer := logging.New(logCfg, io.Discard)
	defer closer.Close()
	slog.SetDefault(logger)

	c := client.NewClient(*baseURL, cfg.Client.Timeout)
	m := tui.New(c, tui.SystemClipboard{}, cfg.Client.Timeout)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "canvasctl: %v\n", err)
		os.Exit(1)
	}
}
