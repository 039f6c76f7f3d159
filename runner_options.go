package migrator

import (
	"io"
	"log"
)

type RunnerOption func(*Runner)

// WithLogger replaces the Runner's logger entirely.
func WithLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

func WithLogWriter(w io.Writer) RunnerOption {
	return func(r *Runner) {
		r.logger.SetOutput(w)
	}
}

func WithLogFlags(flags int) RunnerOption {
	return func(r *Runner) {
		r.logger.SetFlags(flags)
	}
}

// WithSettingsLocator replaces the catalog probe used to find the settings
// table holding the version marker.
func WithSettingsLocator(locator SettingsLocator) RunnerOption {
	return func(r *Runner) {
		r.locator = locator
	}
}
