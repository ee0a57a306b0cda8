// Command rippled serves ripple solids over HTTP.
//
//	POST /api/stl      JSON scene in, binary STL out
//	POST /api/scene    scene source in, binary STL out
//	GET  /api/defaults the default scene as JSON
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/chazu/ripples/pkg/logging"
)

func main() {
	conf, err := readConfig(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(1)
	}

	log, err := logging.New("rippled", conf.LoggingLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	router := newRouter(&Context{
		Log:           log,
		MaxResolution: conf.MaxResolution,
		Timeout:       conf.Timeout,
		MaxBody:       conf.MaxBody,
	})

	log.Infof("Listening on %v", conf.Address)
	log.Fatal(http.ListenAndServe(conf.Address, router))
}
