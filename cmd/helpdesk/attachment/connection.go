// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package attachment

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/helpdesk/lib/service"
)

// socketEnvVar names the environment variable consulted for the
// service socket path when --socket is not given.
const socketEnvVar = "HELPDESK_ATTACHMENT_SOCKET"

// defaultSocketPath is where the attachment service listens when
// nothing overrides it. Matches the service's configuration default.
const defaultSocketPath = "/run/helpdesk/attachment.sock"

// serviceConnection carries the --socket flag shared by every
// attachment subcommand and resolves the effective socket path.
type serviceConnection struct {
	socketPath string
}

// addFlags registers the shared connection flag on flagSet.
func (c *serviceConnection) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.socketPath, "socket", "",
		"attachment service socket (default $"+socketEnvVar+", then "+defaultSocketPath+")")
}

// connect returns a client for the resolved socket path.
func (c *serviceConnection) connect() *service.ServiceClient {
	return service.NewServiceClient(c.resolveSocketPath())
}

// resolveSocketPath applies the flag > environment > default
// precedence.
func (c *serviceConnection) resolveSocketPath() string {
	if c.socketPath != "" {
		return c.socketPath
	}
	if fromEnv := os.Getenv(socketEnvVar); fromEnv != "" {
		return fromEnv
	}
	return defaultSocketPath
}

// callContext bounds one service call. Sized for a cache-miss store,
// which can include a full upstream download.
func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

// parseAttachmentID converts a positional argument into an attachment
// id. Upstream ids are positive integers.
func parseAttachmentID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid attachment id %q (expected a positive integer)", arg)
	}
	return id, nil
}
