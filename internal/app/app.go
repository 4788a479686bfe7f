package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/latticego/internal/convert"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	options convert.Options
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and the translation
// options resolved from file and environment.
func NewApp(outW io.Writer, appConfig *Config) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	options, err := LoadOptions(appConfig.OptionsPath)
	if err != nil {
		// A failure to load options is a fatal startup error.
		panic(fmt.Errorf("failed to load translation options: %w", err))
	}
	logger.Debug("Translation options resolved.", "options", options)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		options: options,
	}
}

// Options returns the resolved translation options. This is primarily for
// testing.
func (a *App) Options() convert.Options {
	return a.options
}
