package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/flagx"
	"github.com/dmitrijs2005/bookmarkvault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the login timeout either as a string
// like "3m" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	ServiceURL   string         `json:"service_url"`
	APIKey       string         `json:"api_key"`
	CallbackAddr string         `json:"callback_addr"`
	LoginTimeout timex.Duration `json:"login_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Panics on read or unmarshal errors (caller should recover if desired).
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServiceURL != "" {
		cfg.ServiceURL = jc.ServiceURL
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.CallbackAddr != "" {
		cfg.CallbackAddr = jc.CallbackAddr
	}
	if jc.LoginTimeout.Duration != 0 {
		cfg.LoginTimeout = time.Duration(jc.LoginTimeout.Duration)
	}
}
