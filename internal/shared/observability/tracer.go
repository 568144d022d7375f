package observability

import "go.opentelemetry.io/otel"

// Tracer is the process-wide tracer; a no-op unless the host application
// installs a tracer provider.
var Tracer = otel.Tracer("blastradius")
