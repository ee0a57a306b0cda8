// Command ripples is the desktop front end: a scene editor bound to the
// ripple generator through Wails.
package main

import (
	"embed"
	"flag"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/ripples/pkg/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	level := flag.String("logging-level", "info", "logging level, one of: panic, fatal, error, warn, info, debug")
	flag.Parse()

	log, err := logging.New("ripples", *level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(1)
	}

	app := NewApp(log)
	err = wails.Run(&options.App{
		Title:  "Ripples",
		Width:  1024,
		Height: 768,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup: app.startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.WithError(err).Fatal("wails exited")
	}
}
