package main

import (
	"context"
	"log/slog"

	"audiogate-backend/cmd/audiogate-cli/commands"
	"audiogate-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(true)
	err := telemetry.SetupFromEnv(context.Background(), "audiogate-cli")
	if err != nil {
		slog.Warn("failed to set up telemetry", "err", err)
	}
	commands.ExecuteContext(context.Background())
}
