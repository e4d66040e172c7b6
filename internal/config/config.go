// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the dev server's listening address (ip:port).
	Address string

	// BaseURL is the base URL of the backend API the client talks to.
	BaseURL string

	// StorageDir is the directory holding the client's durable storage file.
	StorageDir string

	// ImageDir is the directory the dev server writes uploaded avatars to.
	// Empty keeps uploads in memory only.
	ImageDir string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", "localhost:8001", "run dev server on ip:port")
	flag.StringVar(&options.BaseURL, "url", "http://localhost:8001/api/v1", "backend API base URL")
	flag.StringVar(&options.StorageDir, "storage", ".", "directory for local client storage")
	flag.StringVar(&options.ImageDir, "images", "", "directory for uploaded profile pictures")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		options.BaseURL = baseURL
	}
	if storageDir := os.Getenv("TIDYLIST_STORAGE"); storageDir != "" {
		options.StorageDir = storageDir
	}

	return options
}
