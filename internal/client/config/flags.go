package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/bookmarkvault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-s string   base URL of the bookmark service (default from Config)
//	-k string   public API key
//	-b string   loopback address for the OAuth callback listener
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-k", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServiceURL, "s", cfg.ServiceURL, "base URL of the bookmark service")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "public API key for the service")
	fs.StringVar(&cfg.CallbackAddr, "b", cfg.CallbackAddr, "loopback address for the oauth callback listener")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
