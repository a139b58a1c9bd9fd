package main

import (
	"log/slog"

	"github.com/els0r/alertpcap/cmd/alertpcap/cmd"
	"github.com/els0r/telemetry/logging"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		logger, _, _ := logging.New(slog.LevelInfo, "logfmt")
		logger.With("error", err).Fatal("alertpcap terminated with an error")
	}
}
