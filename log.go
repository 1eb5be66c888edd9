package main

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog sends logging to a file when LECTERN_LOGFILE is set and
// silences it otherwise. It returns a closer for the log file.
func setupLog() (func() error, error) {
	if logFile := os.Getenv("LECTERN_LOGFILE"); logFile != "" {
		f, err := tea.LogToFileWith(logFile, "lectern", log.Default())
		if err != nil {
			return nil, err
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
		return f.Close, nil
	}
	log.SetOutput(io.Discard)
	return func() error { return nil }, nil
}
