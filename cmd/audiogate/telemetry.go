package main

import (
	"context"

	"audiogate-backend/lib/restyutil"
	"audiogate-backend/lib/scrapers/vkaudio"
	"audiogate-backend/lib/serviceutil"
	"audiogate-backend/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	err := telemetry.SetupFromEnv(ctx, "audiogate")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}
	vkaudio.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty_telemetry/vkaudio"),
	)
}
