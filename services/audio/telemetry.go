package audio

import "audiogate-backend/lib/telemetry"

var tracer = telemetry.Tracer("audiogate.services.audio")
