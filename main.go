// Demo server for the map widget: serves the embedded page, runs the
// session hub, and optionally drives it with a JavaScript delta script.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leafmap/api"
	"leafmap/assets"
	"leafmap/script"
)

func main() {
	// Parse command line flags
	var addr string
	var scriptPath string
	var assetsDir string
	var debug bool
	flag.StringVar(&addr, "addr", ":8080", "Listen address for the demo server")
	flag.StringVar(&addr, "a", ":8080", "Listen address for the demo server (shorthand)")
	flag.StringVar(&scriptPath, "script", "", "Delta script (.js) to run against connected sessions")
	flag.StringVar(&scriptPath, "s", "", "Delta script (.js) to run against connected sessions (shorthand)")
	flag.StringVar(&assetsDir, "assets", "assets", "Directory holding the wasm runtime artifacts")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	// Support a positional script argument so `leafmap deltas.js` works too
	if scriptPath == "" {
		if args := flag.Args(); len(args) > 0 {
			scriptPath = args[0]
		}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	hub := api.New()
	go hub.Run()

	if scriptPath != "" {
		go func() {
			if err := script.ExecuteFile(scriptPath, hub); err != nil {
				log.Error().Err(err).Str("script", scriptPath).Msg("delta script failed")
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", hub.Handler())
	mux.Handle("/", http.FileServerFS(assets.Files(assetsDir)))

	log.Info().Str("addr", addr).Msg("demo server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal().Err(err).Msg("demo server failed")
	}
}
