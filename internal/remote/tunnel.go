// ABOUTME: SSH tunnel setup and Postgres connector wiring for the remote database
// ABOUTME: Dials the database through an ssh.Client using a custom pq dialer

package remote

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/ssh"
)

// Config describes the remote database and the tunnel in front of it.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	SSH         SSHConfig
	IdleTimeout time.Duration
}

// SSHConfig holds the tunnel endpoint. When Enabled is false the database
// is dialed directly (e.g. inside a compose network).
type SSHConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
}

// sshDialer adapts an ssh.Client to the pq.Dialer interface so the Postgres
// connection rides inside the tunnel.
type sshDialer struct {
	client *ssh.Client
}

func (d sshDialer) Dial(network, address string) (net.Conn, error) {
	return d.client.Dial(network, address)
}

func (d sshDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	// ssh.Client carries its own transport-level timeouts; the per-dial
	// timeout pq requests cannot be applied to a channel open
	return d.client.Dial(network, address)
}

// establishTunneled opens the tunnel (when enabled) and the database
// connection through it, verifying the database answers before returning.
// On any failure everything opened so far is closed; the caller sees a
// fully absent state.
func establishTunneled(ctx context.Context, cfg Config) (*handle, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable connect_timeout=10",
		cfg.Host, cfg.Port, cfg.Database, cfg.User, cfg.Password)

	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("building connector: %w", err)
	}

	h := &handle{}

	if cfg.SSH.Enabled {
		sshCfg := &ssh.ClientConfig{
			User: cfg.SSH.User,
			Auth: []ssh.AuthMethod{ssh.Password(cfg.SSH.Password)},
			// The tunnel host lives on a private operator network; host
			// keys rotate with the VM image and are not pinned
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         10 * time.Second,
		}

		addr := net.JoinHostPort(cfg.SSH.Host, fmt.Sprintf("%d", cfg.SSH.Port))
		client, err := ssh.Dial("tcp", addr, sshCfg)
		if err != nil {
			return nil, fmt.Errorf("dialing ssh tunnel %s: %w", addr, err)
		}
		h.tunnel = client
		connector.Dialer(sshDialer{client: client})
	}

	h.db = sql.OpenDB(connector)

	if err := h.db.PingContext(ctx); err != nil {
		h.close()
		return nil, fmt.Errorf("pinging remote database: %w", err)
	}
	return h, nil
}
