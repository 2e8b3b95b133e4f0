package enricher

import (
	"io"

	"github.com/cmdrvl/fingerprint/internal/logging"
)

var logger = &logging.Logger{PrefixText: "Enrich:", PrefixColor: logging.ColorError}

// SetLogger sets an optional destination for enrichment diagnostics.
func SetLogger(w io.Writer) { logger.SetWriter(w) }

func logf(path string, format string, args ...any) {
	logger.Logf(path, format, args...)
}
