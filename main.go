package main

import (
	"os"
	"os/signal"
	"strings"

	"github.com/habedi/krakn/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main is the entry point of the application.
// It sets up logging based on the DEBUG_KRAKN environment variable,
// starts a goroutine to listen for interrupt signals, and executes the main command.
func main() {
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Error().Msg(msg) }, os.Exit)

	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging to stderr when DEBUG_KRAKN is set
// to anything other than an empty string, "0" or "false". Otherwise logging is disabled.
func configureLogLevelFromEnv() {
	debug := strings.TrimSpace(strings.ToLower(os.Getenv("DEBUG_KRAKN")))
	if debug == "" || debug == "0" || debug == "false" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// setupInterruptListener returns a channel that receives os.Interrupt.
func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt waits for a signal on stopChan, logs it and exits with code 1.
func handleInterrupt(stopChan chan os.Signal, logFn func(string), exitFn func(int)) {
	<-stopChan
	logFn("Interrupt signal received. Exiting...")
	exitFn(1)
}
