package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mailpilot/triage-tui/internal/api"
	"github.com/mailpilot/triage-tui/internal/config"
	"github.com/mailpilot/triage-tui/internal/tui"
	"github.com/mailpilot/triage-tui/internal/version"
)

func main() {
	configPathFlag := flag.String("config", "", "Path to JSON configuration file (default: ~/.config/triage/config.json)")
	serverFlag := flag.String("server", "", "Triage backend base URL (overrides config)")
	versionFlag := flag.Bool("version", false, "Show version information and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.GetVersionString())
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                 # Run with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --server http://localhost:8000  # Point at a specific backend\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --config custom.json            # Use custom configuration\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *versionFlag {
		fmt.Println(version.GetDetailedVersionString())
		return
	}

	configPath := *configPathFlag
	if configPath == "" {
		if env := os.Getenv("TRIAGE_CONFIG"); env != "" {
			configPath = env
		} else {
			configPath = config.DefaultConfigPath()
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not load configuration: %v", err)
		}
		cfg = config.DefaultConfig()
	}
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	}

	theme := config.DefaultTheme()
	if cfg.Theme != "" {
		if loaded, err := config.LoadTheme(cfg.Theme); err == nil {
			theme = loaded
		} else {
			log.Printf("Warning: could not load theme %q: %v", cfg.Theme, err)
		}
	}

	gateway := api.NewClient(cfg.ServerURL, cfg.GetRequestTimeout())

	app := tui.NewApp(cfg, theme, gateway)
	if err := app.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
