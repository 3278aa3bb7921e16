// Package cli provides command-line interface functionality for WireGuard
// Manager. Every command operates through the sync engine so the terminal
// sees the same consistent snapshots as any other frontend.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yllada/wg-manager/common"
	"github.com/yllada/wg-manager/history"
	"github.com/yllada/wg-manager/keyring"
	"github.com/yllada/wg-manager/wireguard"
)

// CLI represents the command-line interface.
type CLI struct {
	engine  *wireguard.Engine
	control wireguard.ControlClient
	journal *history.Journal
	watch   time.Duration
}

// New creates a new CLI instance. journal may be nil when history is
// disabled.
func New(engine *wireguard.Engine, control wireguard.ControlClient, journal *history.Journal, watchInterval time.Duration) *CLI {
	return &CLI{
		engine:  engine,
		control: control,
		journal: journal,
		watch:   watchInterval,
	}
}

// selectConfig refreshes the known configuration set and selects name.
// The engine validates selection against its last-known set, so a fresh
// process must list before it can select.
func (c *CLI) selectConfig(ctx context.Context, name string) error {
	if _, err := c.engine.Configs(ctx); err != nil {
		return err
	}
	return c.engine.Select(ctx, name)
}

// ListConfigs lists all known configurations with their live state.
func (c *CLI) ListConfigs(ctx context.Context) error {
	names, err := c.engine.Configs(ctx)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("No WireGuard configurations found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE")
	fmt.Fprintln(w, "----\t-----")

	for _, name := range names {
		state := "down"
		up, err := c.control.IsUp(ctx, name)
		if err != nil {
			state = "unknown"
		} else if up {
			state = "up"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, state)
	}

	w.Flush()
	return nil
}

// Show prints a configuration's definition: the interface section and the
// peer list. Private keys are never printed.
func (c *CLI) Show(ctx context.Context, name string) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}

	snap := c.engine.Snapshot()
	cfg := snap.Config

	state := "down"
	if snap.Running {
		state = "up"
	}

	fmt.Printf("%s (%s)\n", cfg.Name, state)
	fmt.Printf("  Address:     %s\n", valueOrDash(cfg.Interface.Address))
	fmt.Printf("  ListenPort:  %d\n", cfg.Interface.ListenPort)
	if cfg.Interface.DNS != "" {
		fmt.Printf("  DNS:         %s\n", cfg.Interface.DNS)
	}

	if len(cfg.Peers) == 0 {
		fmt.Println("\nNo peers configured.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nPEER\tPUBLIC KEY\tALLOWED IPS\tENDPOINT")
	for _, peer := range cfg.Peers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			valueOrDash(peer.Name), shortKey(peer.PublicKey),
			peer.AllowedIPs, valueOrDash(peer.Endpoint))
	}
	w.Flush()
	return nil
}

// Up activates a configuration's interface.
func (c *CLI) Up(ctx context.Context, name string) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}
	if c.engine.Snapshot().Running {
		return fmt.Errorf("%s is already up", name)
	}

	fmt.Printf("Bringing up %s...\n", name)
	if err := c.engine.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("✓ %s is up\n", name)
	return nil
}

// Down deactivates a configuration's interface.
func (c *CLI) Down(ctx context.Context, name string) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}
	if !c.engine.Snapshot().Running {
		return fmt.Errorf("%s is not up", name)
	}

	fmt.Printf("Bringing down %s...\n", name)
	if err := c.engine.Stop(ctx); err != nil {
		return err
	}
	fmt.Printf("✓ %s is down\n", name)
	return nil
}

// Restart deactivates and reactivates a configuration's interface.
func (c *CLI) Restart(ctx context.Context, name string) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}

	fmt.Printf("Restarting %s...\n", name)
	if err := c.engine.Restart(ctx); err != nil {
		return err
	}
	fmt.Printf("✓ %s restarted\n", name)
	return nil
}

// Status prints the selected configuration's peers with their runtime
// records.
func (c *CLI) Status(ctx context.Context, name string) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}
	c.printStatus(c.engine.Snapshot())
	return nil
}

// Watch re-prints peer status on the refresh interval until the context is
// cancelled.
func (c *CLI) Watch(ctx context.Context, name string) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}

	ticker := time.NewTicker(c.watch)
	defer ticker.Stop()

	c.printStatus(c.engine.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Println()
			c.printStatus(c.engine.Snapshot())
		}
	}
}

func (c *CLI) printStatus(snap wireguard.Snapshot) {
	if !snap.Running {
		fmt.Printf("%s is down.\n", snap.Selected)
		return
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PEER\tENDPOINT\tHANDSHAKE\tRECEIVED\tSENT")
	fmt.Fprintln(w, "----\t--------\t---------\t--------\t----")

	for _, pws := range snap.Join() {
		label := pws.Peer.Name
		if label == "" {
			label = shortKey(pws.Peer.PublicKey)
		}

		if pws.Status == nil {
			fmt.Fprintf(w, "%s\t-\tNever\t-\t-\n", label)
			continue
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			label,
			valueOrDash(pws.Status.Endpoint),
			common.FormatHandshake(pws.Status.LatestHandshake, now),
			common.FormatBytes(pws.Status.TransferRx),
			common.FormatBytes(pws.Status.TransferTx))
	}
	w.Flush()
}

// PeerSpec carries the peer fields collected from command-line flags.
type PeerSpec struct {
	PublicKey  string
	AllowedIPs string
	Endpoint   string
	Keepalive  int
	Name       string
}

func (s PeerSpec) peer() wireguard.Peer {
	return wireguard.Peer{
		PublicKey:           s.PublicKey,
		AllowedIPs:          s.AllowedIPs,
		Endpoint:            s.Endpoint,
		PersistentKeepalive: s.Keepalive,
		Name:                s.Name,
	}
}

// AddPeer appends a peer to the named configuration.
func (c *CLI) AddPeer(ctx context.Context, name string, spec PeerSpec) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}
	if err := c.engine.AddPeer(spec.peer()); err != nil {
		return err
	}
	fmt.Printf("✓ Peer added to %s\n", name)
	return nil
}

// UpdatePeer replaces the peer identified by originalKey.
func (c *CLI) UpdatePeer(ctx context.Context, name, originalKey string, spec PeerSpec) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}
	if err := c.engine.UpdatePeer(originalKey, spec.peer()); err != nil {
		return err
	}
	fmt.Printf("✓ Peer updated in %s\n", name)
	return nil
}

// RemovePeer deletes a peer after confirmation. assumeYes skips the prompt
// for scripted use.
func (c *CLI) RemovePeer(ctx context.Context, name, publicKey string, assumeYes bool) error {
	if err := c.selectConfig(ctx, name); err != nil {
		return err
	}

	if !assumeYes {
		fmt.Printf("Remove peer %s from %s? [y/N]: ", shortKey(publicKey), name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := c.engine.DeletePeer(publicKey); err != nil {
		return err
	}
	fmt.Printf("✓ Peer removed from %s\n", name)
	return nil
}

// GenKey generates a key pair and prints it. With a stash label the private
// key goes to the keyring instead of stdout.
func (c *CLI) GenKey(stashLabel string) error {
	privateKey, publicKey, err := c.engine.GenerateKeyPair()
	if err != nil {
		return err
	}

	if stashLabel != "" {
		if err := keyring.Store(stashLabel, privateKey); err != nil {
			return fmt.Errorf("failed to stash private key: %w", err)
		}
		fmt.Printf("Private key stored under label %q\n", stashLabel)
		fmt.Printf("Public key:  %s\n", publicKey)
		return nil
	}

	fmt.Printf("Private key: %s\n", privateKey)
	fmt.Printf("Public key:  %s\n", publicKey)
	return nil
}

// PubKey derives and prints the public key of a private key. The private
// key is read from stdin when not given as an argument, matching the wg
// tool's habit of keeping secrets out of shell history.
func (c *CLI) PubKey(privateKey string) error {
	if privateKey == "" {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read private key from stdin: %w", err)
		}
		privateKey = strings.TrimSpace(line)
	}

	publicKey, err := c.engine.DerivePublicKey(privateKey)
	if err != nil {
		return err
	}
	fmt.Println(publicKey)
	return nil
}

// History prints the event journal, newest first.
func (c *CLI) History(configName string, limit int) error {
	if c.journal == nil {
		return fmt.Errorf("history is disabled in the configuration")
	}

	events, err := c.journal.List(configName, limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No recorded events.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCONFIG\tACTION\tDETAIL")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			ev.Time.Format("2006-01-02 15:04:05"), ev.Config, ev.Action, valueOrDash(ev.Detail))
	}
	w.Flush()
	return nil
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// shortKey truncates a public key for display.
func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12] + "…"
	}
	return key
}

// PrintHelp prints CLI usage help.
func PrintHelp() {
	fmt.Println(`WireGuard Manager - Command Line Interface

Usage:
  wg-manager [OPTIONS]

Options:
  --version             Show version and exit
  --verbose             Enable verbose logging
  --list                List configurations and their state
  --show NAME           Print a configuration's interface and peers
  --up NAME             Activate a configuration
  --down NAME           Deactivate a configuration
  --restart NAME        Deactivate and reactivate a configuration
  --status NAME         Print peer runtime status
  --watch NAME          Print peer status continuously
  --add-peer NAME       Add a peer (with --peer-key, --allowed-ips, ...)
  --update-peer NAME    Update a peer (requires --original-key)
  --remove-peer NAME    Remove a peer (requires --peer-key; prompts unless --yes)
  --genkey              Generate a key pair (--stash LABEL keeps the private key)
  --pubkey [KEY]        Derive a public key (reads stdin without KEY)
  --history [NAME]      Print the event journal (--limit N)
  --help                Show this help message

Peer flags:
  --peer-key KEY        Peer public key
  --original-key KEY    Public key identifying the peer to update
  --allowed-ips CIDRS   Comma-separated allowed IPs
  --endpoint HOST:PORT  Optional remote endpoint
  --keepalive SECONDS   Optional persistent keepalive
  --peer-name NAME      Optional display name
  --yes                 Skip confirmation prompts
  --limit N             Maximum history entries to print

Examples:
  wg-manager --list
  wg-manager --up wg0
  wg-manager --status wg0
  wg-manager --add-peer wg0 --peer-key KEY --allowed-ips 10.0.0.4/32
  wg-manager --genkey --stash laptop`)
}
