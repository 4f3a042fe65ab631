package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"shelfwatch/internal/client"
	"shelfwatch/internal/config"
)

const defaultServerURL = "http://127.0.0.1:7787"

type commandContext struct {
	serverFlag *string
	configFlag *string

	clientOnce sync.Once
	client     *client.Client
	clientErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

// serverURL resolves the daemon address: --server flag, then the
// SHELFWATCH_SERVER environment variable, then the default bind.
func (c *commandContext) serverURL() string {
	if c.serverFlag != nil {
		if value := strings.TrimSpace(*c.serverFlag); value != "" {
			return value
		}
	}
	if value := strings.TrimSpace(os.Getenv("SHELFWATCH_SERVER")); value != "" {
		return value
	}
	return defaultServerURL
}

// sessionPath returns the file that persists the refresh cookie between
// CLI invocations.
func (c *commandContext) sessionPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv("SHELFWATCH_SESSION_FILE")); value != "" {
		return config.ExpandPath(value)
	}
	return config.ExpandPath("~/.local/share/shelfwatch/session.json")
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// apiClient builds (once) the daemon client with the persisted session.
func (c *commandContext) apiClient() (*client.Client, error) {
	c.clientOnce.Do(func() {
		sessionFile, err := c.sessionPath()
		if err != nil {
			c.clientErr = fmt.Errorf("resolve session file: %w", err)
			return
		}
		if err := os.MkdirAll(filepath.Dir(sessionFile), 0o755); err != nil {
			c.clientErr = fmt.Errorf("create session directory: %w", err)
			return
		}
		c.client, c.clientErr = client.New(c.serverURL(), client.WithCookiePath(sessionFile))
	})
	return c.client, c.clientErr
}

func (c *commandContext) withClient(fn func(context.Context, *client.Client) error) error {
	api, err := c.apiClient()
	if err != nil {
		return err
	}
	if err := fn(context.Background(), api); err != nil {
		return wrapDaemonError(err, c.serverURL())
	}
	return nil
}

func wrapDaemonError(err error, server string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; verify shelfwatchd is running", server)
	}
	return err
}
