// Package main provides the entry point for WireGuard Manager, a terminal
// front end for managing WireGuard configurations. It reconciles the .conf
// files on disk, the live state of the interfaces, and per-peer runtime
// statistics into one consistent view.
//
// Features:
//   - Configuration discovery in the platform WireGuard directory
//   - Interface activation, deactivation, and restart via wg-quick
//   - Peer management persisted back to the .conf files
//   - Live peer status (endpoints, handshakes, transfer counters)
//   - Key generation with optional keyring storage
//   - A local journal of lifecycle events
//
// Usage:
//
//	wg-manager [options]
//
// Environment:
//
//	The application requires the wg and wg-quick tools to be installed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/yllada/wg-manager/cli"
	"github.com/yllada/wg-manager/common"
	"github.com/yllada/wg-manager/config"
	"github.com/yllada/wg-manager/history"
	"github.com/yllada/wg-manager/wireguard"
)

// Build-time variables injected via ldflags (-X main.appVersion=x.y.z)
var (
	appVersion = "dev"
	buildTime  = "unknown"
	commitSHA  = "unknown"
)

var (
	// General flags
	showVersion = flag.Bool("version", false, "Show version and exit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	showHelp    = flag.Bool("help", false, "Show help message")

	// Command flags
	listConfigs = flag.Bool("list", false, "List configurations and their state")
	showConfig  = flag.String("show", "", "Print a configuration's interface and peers")
	upConfig    = flag.String("up", "", "Activate a configuration")
	downConfig  = flag.String("down", "", "Deactivate a configuration")
	restartName = flag.String("restart", "", "Deactivate and reactivate a configuration")
	statusName  = flag.String("status", "", "Print peer runtime status")
	watchName   = flag.String("watch", "", "Print peer status continuously")
	addPeer     = flag.String("add-peer", "", "Add a peer to a configuration")
	updatePeer  = flag.String("update-peer", "", "Update a peer in a configuration")
	removePeer  = flag.String("remove-peer", "", "Remove a peer from a configuration")
	genKey      = flag.Bool("genkey", false, "Generate a key pair")
	pubKey      = flag.Bool("pubkey", false, "Derive a public key from a private key")
	showHistory = flag.Bool("history", false, "Print the event journal")

	// Peer and modifier flags
	peerKey     = flag.String("peer-key", "", "Peer public key")
	originalKey = flag.String("original-key", "", "Public key identifying the peer to update")
	allowedIPs  = flag.String("allowed-ips", "", "Comma-separated allowed IPs")
	endpoint    = flag.String("endpoint", "", "Remote endpoint (host:port)")
	keepalive   = flag.Int("keepalive", 0, "Persistent keepalive in seconds")
	peerName    = flag.String("peer-name", "", "Peer display name")
	stashLabel  = flag.String("stash", "", "Keyring label for the generated private key")
	assumeYes   = flag.Bool("yes", false, "Skip confirmation prompts")
	limit       = flag.Int("limit", 50, "Maximum history entries to print")
	historyFor  = flag.String("config", "", "Restrict history output to one configuration")
)

func main() {
	flag.Parse()

	if *showHelp {
		cli.PrintHelp()
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("WireGuard Manager v%s\n", appVersion)
		if buildTime != "unknown" {
			fmt.Printf("  Build:  %s\n", buildTime)
			fmt.Printf("  Commit: %s\n", commitSHA)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load configuration, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	logLevel := common.LevelInfo
	if *verbose {
		logLevel = common.LevelDebug
	}
	if err := common.InitLogger(common.LogConfig{
		Level:       logLevel,
		EnableFile:  cfg.FileLogging,
		MaxFileSize: 5 * 1024 * 1024, // 5MB
		MaxBackups:  5,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize file logging: %v\n", err)
	}
	defer common.CloseLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel)

	if !checkWireGuardInstalled() {
		common.LogError("WireGuard tools are not installed on the system")
		fmt.Fprintln(os.Stderr, "Error: wg and wg-quick are required but were not found in PATH.")
		os.Exit(1)
	}

	store := wireguard.NewFileStore(cfg.WireGuardDir)
	control := wireguard.NewWgQuickClient(cfg.EscalationCommand)
	status := wireguard.NewDumpStatusClient()

	engine := wireguard.NewEngine(store, control, status, wireguard.NewKeyGenerator())
	engine.SetRefreshInterval(cfg.RefreshInterval())
	defer engine.Close()

	var journal *history.Journal
	if cfg.History {
		journal, err = openJournal()
		if err != nil {
			common.LogWarn("History journal unavailable: %v", err)
		} else {
			engine.SetRecorder(journal)
			defer journal.Close()
		}
	}

	app := cli.New(engine, control, journal, cfg.RefreshInterval())
	if err := dispatch(ctx, app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dispatch runs the command selected by the flags. Without a command flag
// the help text is printed.
func dispatch(ctx context.Context, app *cli.CLI) error {
	spec := cli.PeerSpec{
		PublicKey:  *peerKey,
		AllowedIPs: *allowedIPs,
		Endpoint:   *endpoint,
		Keepalive:  *keepalive,
		Name:       *peerName,
	}

	switch {
	case *listConfigs:
		return app.ListConfigs(ctx)
	case *showConfig != "":
		return app.Show(ctx, *showConfig)
	case *upConfig != "":
		return app.Up(ctx, *upConfig)
	case *downConfig != "":
		return app.Down(ctx, *downConfig)
	case *restartName != "":
		return app.Restart(ctx, *restartName)
	case *statusName != "":
		return app.Status(ctx, *statusName)
	case *watchName != "":
		return app.Watch(ctx, *watchName)
	case *addPeer != "":
		return app.AddPeer(ctx, *addPeer, spec)
	case *updatePeer != "":
		return app.UpdatePeer(ctx, *updatePeer, *originalKey, spec)
	case *removePeer != "":
		return app.RemovePeer(ctx, *removePeer, *peerKey, *assumeYes)
	case *genKey:
		return app.GenKey(*stashLabel)
	case *pubKey:
		return app.PubKey(flag.Arg(0))
	case *showHistory:
		return app.History(*historyFor, *limit)
	default:
		cli.PrintHelp()
		return nil
	}
}

// openJournal opens the event journal in the user's data directory.
func openJournal() (*history.Journal, error) {
	dir, err := common.GetDataDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return history.Open(filepath.Join(dir, common.HistoryFileName))
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		common.LogInfo("Received signal %v, shutting down...", sig)
		cancel()
	}()
}

// checkWireGuardInstalled verifies that the wg tooling is available.
func checkWireGuardInstalled() bool {
	if _, err := exec.LookPath("wg"); err != nil {
		return false
	}
	if _, err := exec.LookPath("wg-quick"); err != nil {
		return false
	}
	return true
}
