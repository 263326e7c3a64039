// Copyright 2025, adstitch authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"

	"github.com/mogiioin/adstitch/pkg/logging"
)

// Stitching modes.
const (
	ModeSSAI = "ssai"
	ModeSGAI = "sgai"
)

// Ad provider selection values.
const (
	ProviderAuto   = "auto"
	ProviderStatic = "static"
	ProviderVAST   = "vast"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Dev-mode defaults for the values that production requires.
const (
	devPort      = 3000
	devBaseURL   = "http://localhost:3000"
	devOriginURL = "https://example.com"
)

type ServerConfig struct {
	LogFormat string `json:"logformat"`
	LogLevel  string `json:"loglevel"`
	Port      int    `json:"port"`
	// BaseURL is the public URL of this stitcher, used when rewriting
	// playlist and manifest URLs.
	BaseURL   string `json:"baseurl"`
	OriginURL string `json:"originurl"`
	// StitchingMode is ssai (segment replacement) or sgai (HLS
	// interstitial DateRange injection).
	StitchingMode string `json:"stitchingmode"`
	// AdProvider is auto, static, or vast. auto picks vast when a
	// VAST endpoint is configured, static otherwise.
	AdProvider   string  `json:"adprovider"`
	AdSourceURL  string  `json:"adsourceurl"`
	AdSegDurS    float64 `json:"adsegdur"`
	VastEndpoint string  `json:"vastendpoint"`
	SlateURL     string  `json:"slateurl"`
	SlateSegDurS float64 `json:"slatesegdur"`
	SessionStore string  `json:"sessionstore"`
	RedisURL     string  `json:"redisurl"`
	SessionTTLS  int     `json:"sessionttl"`
	TimeoutS     int     `json:"timeout"`
	// MaxRequests limits stitch requests per IP and minute. 0 disables.
	MaxRequests int    `json:"maxrequests"`
	CertPath    string `json:"certpath"`
	KeyPath     string `json:"keypath"`
	DevMode     bool   `json:"devmode"`
}

var DefaultConfig = ServerConfig{
	LogFormat:     logging.LogPretty,
	LogLevel:      "info",
	StitchingMode: ModeSSAI,
	AdProvider:    ProviderAuto,
	AdSourceURL:   "https://hls.src.tedm.io/content/ts_h264_480p_1s",
	AdSegDurS:     1.0,
	SlateSegDurS:  1.0,
	SessionStore:  StoreMemory,
	SessionTTLS:   600,
	TimeoutS:      30,
	MaxRequests:   0,
}

// LoadConfig loads defaults, config file, command line, and finally
// applies environment variables with prefix ADSTITCH_.
//
// In dev mode, port, baseurl, and originurl get local defaults;
// in production they are required.
func LoadConfig(args []string) (*ServerConfig, error) {
	// First set default values
	k := koanf.New(".")
	defaults := DefaultConfig
	k.Load(structs.Provider(defaults, "json"), nil)

	f := pflag.NewFlagSet("adstitch", pflag.ContinueOnError)
	f.Usage = func() {
		parts := strings.Split(args[0], "/")
		name := parts[len(parts)-1]
		fmt.Fprintf(os.Stderr, "Run as %s [options]:\n", name)
		f.PrintDefaults()
	}
	cfgFile := f.String("cfg", "", "path to a JSON config file")
	f.Int("port", k.Int("port"), "HTTP port")
	f.String("baseurl", k.String("baseurl"), "public base URL of this stitcher")
	f.String("originurl", k.String("originurl"), "default content origin URL")
	f.String("stitchingmode", k.String("stitchingmode"), "stitching mode [ssai, sgai]")
	f.String("adprovider", k.String("adprovider"), "ad provider [auto, static, vast]")
	f.String("adsourceurl", k.String("adsourceurl"), "static ad source URL")
	f.Float64("adsegdur", k.Float64("adsegdur"), "static ad segment duration (seconds)")
	f.String("vastendpoint", k.String("vastendpoint"), "VAST ad server endpoint URL")
	f.String("slateurl", k.String("slateurl"), "slate content URL for fallback filling")
	f.Float64("slatesegdur", k.Float64("slatesegdur"), "slate segment duration (seconds)")
	f.String("sessionstore", k.String("sessionstore"), "session store [memory, redis]")
	f.String("redisurl", k.String("redisurl"), "redis URL (e.g. redis://localhost:6379/0)")
	f.Int("sessionttl", k.Int("sessionttl"), "session idle TTL (seconds)")
	f.Int("timeout", k.Int("timeout"), "timeout for all requests (seconds)")
	f.Int("maxrequests", k.Int("maxrequests"), "max stitch requests per IP and minute (0 = no limit)")
	lf := strings.Join(logging.LogFormats, ", ")
	f.String("logformat", k.String("logformat"), fmt.Sprintf("log format [%s]", lf))
	ll := strings.Join(logging.LogLevels, ", ")
	f.String("loglevel", k.String("loglevel"), fmt.Sprintf("log level [%s]", ll))
	f.String("certpath", k.String("certpath"), "path to TLS certificate (enables HTTPS)")
	f.String("keypath", k.String("keypath"), "path to TLS key")
	f.Bool("devmode", k.Bool("devmode"), "dev mode with local defaults")
	if err := f.Parse(args[1:]); err != nil {
		return nil, fmt.Errorf("command line parse: %w", err)
	}

	// Load the config file provided on the command line.
	if *cfgFile != "" {
		cf := file.Provider(*cfgFile)
		if err := k.Load(cf, json.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Possibly override config file with command-line parameters
	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("parsing cli: %v", err)
	}

	// Overload with environment variables
	k.Load(env.Provider("ADSTITCH_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "ADSTITCH_")), "_", ".", -1)
	}), nil)

	var cfg ServerConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}

	if err := cfg.fillAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fillAndValidate applies dev-mode defaults and checks the production
// requirements and enum values.
func (c *ServerConfig) fillAndValidate() error {
	if c.DevMode {
		if c.Port == 0 {
			c.Port = devPort
		}
		if c.BaseURL == "" {
			c.BaseURL = devBaseURL
		}
		if c.OriginURL == "" {
			c.OriginURL = devOriginURL
		}
	} else {
		switch {
		case c.Port == 0:
			return newConfigError("port is required in production")
		case c.BaseURL == "":
			return newConfigError("baseurl is required in production")
		case c.OriginURL == "":
			return newConfigError("originurl is required in production")
		}
	}
	switch c.StitchingMode {
	case ModeSSAI, ModeSGAI:
	default:
		return newConfigError(fmt.Sprintf("stitchingmode %q not known", c.StitchingMode))
	}
	switch c.AdProvider {
	case ProviderAuto, ProviderStatic, ProviderVAST:
	default:
		return newConfigError(fmt.Sprintf("adprovider %q not known", c.AdProvider))
	}
	switch c.SessionStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisURL == "" {
			return newConfigError("sessionstore redis requires redisurl")
		}
	default:
		return newConfigError(fmt.Sprintf("sessionstore %q not known", c.SessionStore))
	}
	return nil
}
