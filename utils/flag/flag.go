/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
)

var (
	IsDevelopment bool
	ServiceName   string
	ListenAddr    string
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "name of the service, used in log fields")
	flag.StringVar(&ListenAddr, "addr", ":8080", "address the api server listens on")
}

// Parse parses the command line flags. It is called from main instead of an
// init function so that `go test` flags are registered first.
func Parse() {
	flag.Parse()
}
