package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/Harshvardhan-source/slate/app/config"
	"github.com/Harshvardhan-source/slate/app/dataset"
	"github.com/Harshvardhan-source/slate/app/server"
	"github.com/Harshvardhan-source/slate/app/session"
	"github.com/spf13/pflag"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "server":
		runServer()
	case "render":
		runRender()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: slate <command> [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  server    Serve a dashboard over HTTP")
	fmt.Fprintln(os.Stderr, "  render    Compute a dashboard once and print it as JSON")
}

func loadDashboardConfig(dataDir string) *config.DashboardConfig {
	confPath := path.Join(dataDir, "config.json")
	confFile, err := os.Open(confPath)
	if err != nil {
		slog.Error("error while opening config.json", "err", err)
		os.Exit(1)
	}
	defer confFile.Close()

	var conf config.DashboardConfig
	confDec := json.NewDecoder(confFile)
	if err := confDec.Decode(&conf); err != nil {
		slog.Error("error while reading config.json", "err", err)
		os.Exit(1)
	}
	conf.DataDir = dataDir
	return &conf
}

// newSession builds and initializes the dashboard session for a config.
// Relative data sources resolve against the data directory.
func newSession(conf *config.DashboardConfig) *session.Session {
	source := conf.DataSource
	if source != "" && !path.IsAbs(source) && !isURL(source) {
		source = path.Join(conf.DataDir, source)
	}
	store := dataset.NewStore(source, dataset.NewFetcher())
	sess := session.New(conf, store)
	if err := sess.Initialize(context.Background()); err != nil {
		slog.Error("error while initializing dashboard", "err", err)
		os.Exit(1)
	}
	return sess
}

func isURL(s string) bool {
	return len(s) > 7 && (s[:7] == "http://" || (len(s) > 8 && s[:8] == "https://"))
}

func runServer() {
	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	var address, dataDir, certDir string
	var port, rateLimit, gzipLevel int
	var acme, behindLB bool
	flags.StringVarP(&address, "address", "a", "localhost", "Server address to bind")
	flags.IntVarP(&port, "port", "p", 8080, "Server port to bind")
	flags.StringVarP(&dataDir, "data-dir", "d", "",
		"data directory to read config.json and the CSV dataset")
	flags.StringVar(&certDir, "cert-dir", "", "TLS certificate directory")
	flags.BoolVar(&acme, "acme", false, "obtain TLS certificates via ACME")
	flags.BoolVar(&behindLB, "behind-load-balancer", false, "trust forwarded client IPs")
	flags.IntVar(&rateLimit, "rate-limit", 0, "per-client requests per second (0 disables)")
	flags.IntVar(&gzipLevel, "gzip-level", 5, "gzip compression level (0 disables)")

	flags.Parse(os.Args[2:])

	if dataDir == "" {
		slog.Error("--data-dir not provided, stopping")
		os.Exit(1)
	}

	conf := loadDashboardConfig(dataDir)
	sess := newSession(conf)

	fmt.Printf("Starting server on %s:%d\n", address, port)
	server.StartServer(server.NewDashboardController(sess), conf, config.ServerRuntimeConfig{
		Addr:               address,
		Port:               port,
		CertDir:            certDir,
		AcmeEnabled:        acme,
		BehindLoadBalancer: behindLB,
		RateLimit:          rateLimit,
		GzipLevel:          gzipLevel,
	})
}

// runRender computes the dashboard once and prints the document, useful
// for inspecting a config without standing up the server.
func runRender() {
	flags := pflag.NewFlagSet("render", pflag.ExitOnError)
	var dataDir string
	flags.StringVarP(&dataDir, "data-dir", "d", "",
		"data directory to read config.json and the CSV dataset")

	flags.Parse(os.Args[2:])

	if dataDir == "" {
		slog.Error("--data-dir not provided, stopping")
		os.Exit(1)
	}

	conf := loadDashboardConfig(dataDir)
	sess := newSession(conf)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sess.Dashboard()); err != nil {
		slog.Error("error while writing dashboard JSON", "err", err)
		os.Exit(1)
	}
}
