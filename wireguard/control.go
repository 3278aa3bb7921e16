// Package wireguard provides WireGuard configuration management functionality.
// This file contains the exec-based control and status clients. The host's
// wg and wg-quick tools are the actual control plane; these clients only
// invoke them and translate their output.
package wireguard

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/yllada/wg-manager/common"
)

// WgQuickClient activates and deactivates interfaces through wg-quick and
// queries liveness through wg show. It implements ControlClient.
type WgQuickClient struct {
	// Escalate is the privilege escalation command prepended to wg-quick
	// invocations ("sudo" by default).
	Escalate string
	// Timeout bounds each invocation.
	Timeout time.Duration
}

// NewWgQuickClient creates a control client with the given escalation
// command ("" means sudo).
func NewWgQuickClient(escalate string) *WgQuickClient {
	if escalate == "" {
		escalate = "sudo"
	}
	return &WgQuickClient{Escalate: escalate, Timeout: common.CommandTimeout}
}

func (c *WgQuickClient) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %s %s", common.ErrTimeout, name, strings.Join(args, " "))
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrCommandFailed, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%w: %v", common.ErrCommandFailed, err)
	}
	return output, nil
}

// IsUp reports whether the named interface is active. wg show exits
// non-zero for interfaces that are not up, which is a negative answer,
// not an error.
func (c *WgQuickClient) IsUp(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wg", "show", name)
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return false, fmt.Errorf("%w: wg show %s", common.ErrTimeout, name)
		}
		if _, ok := err.(*exec.ExitError); ok {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", common.ErrCommandFailed, err)
	}
	return true, nil
}

// Up activates the named interface.
func (c *WgQuickClient) Up(ctx context.Context, name string) error {
	common.LogInfo("Bringing up interface %s", name)
	_, err := c.run(ctx, c.Escalate, "wg-quick", "up", name)
	return err
}

// Down deactivates the named interface.
func (c *WgQuickClient) Down(ctx context.Context, name string) error {
	common.LogInfo("Bringing down interface %s", name)
	_, err := c.run(ctx, c.Escalate, "wg-quick", "down", name)
	return err
}

// DumpStatusClient fetches per-peer runtime records through wg show dump.
// It implements StatusClient.
type DumpStatusClient struct {
	Timeout time.Duration
}

// NewDumpStatusClient creates a status client.
func NewDumpStatusClient() *DumpStatusClient {
	return &DumpStatusClient{Timeout: common.CommandTimeout}
}

// PeerStatus runs wg show <name> dump and parses its output.
func (c *DumpStatusClient) PeerStatus(ctx context.Context, name string) ([]PeerStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wg", "show", name, "dump")
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: wg show %s dump", common.ErrTimeout, name)
		}
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", common.ErrCommandFailed, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%w: %v", common.ErrCommandFailed, err)
	}

	return parseDump(string(output)), nil
}

// parseDump translates wg show dump output into PeerStatus records.
// The first line describes the interface itself and is skipped. Peer lines
// are tab-separated: public key, preshared key, endpoint, allowed IPs,
// latest handshake (epoch seconds, "0" for never), rx bytes, tx bytes,
// keepalive. Sentinels are translated to absence here, at the boundary.
func parseDump(output string) []PeerStatus {
	var statuses []PeerStatus

	for i, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			continue
		}

		status := PeerStatus{PublicKey: fields[0]}

		if endpoint := fields[2]; endpoint != "" && endpoint != "(none)" {
			status.Endpoint = endpoint
		}
		if epoch, err := strconv.ParseInt(fields[4], 10, 64); err == nil && epoch > 0 {
			status.LatestHandshake = time.Unix(epoch, 0)
		}
		if rx, err := strconv.ParseUint(fields[5], 10, 64); err == nil {
			status.TransferRx = rx
		}
		if len(fields) > 6 {
			if tx, err := strconv.ParseUint(fields[6], 10, 64); err == nil {
				status.TransferTx = tx
			}
		}

		statuses = append(statuses, status)
	}

	return statuses
}
