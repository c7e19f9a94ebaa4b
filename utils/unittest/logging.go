package unittest

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print benchmark logs while testing")

// Logger returns a logger for tests, discarding everything unless the
// tests run with -vv
func Logger() zerolog.Logger {
	var writer io.Writer = io.Discard
	if *verbose {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMicro}
	}
	return zerolog.New(writer).Level(zerolog.DebugLevel).With().Timestamp().Logger()
}

// HookedLogger returns a logger that hands every emitted message to hook,
// for tests that assert on what got logged
func HookedLogger(hook func(level zerolog.Level, msg string)) zerolog.Logger {
	return Logger().Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, msg string) {
		hook(level, msg)
	}))
}
