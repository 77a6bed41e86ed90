/*
 * This file is part of Go Schedbench.
 *
 * Go Schedbench is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go Schedbench is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go Schedbench. If not, see <https://www.gnu.org/licenses/>.
 */

package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/schedbench/goschedbench/config"
	"github.com/schedbench/goschedbench/launcher"
)

// startServer starts the server with policy and waits until it can take
// clients. When the configuration names the server's address the address is
// polled; otherwise the server gets the startup grace period.
func (r *Runner) startServer(ctx context.Context, policy string) (*launcher.Server, error) {
	server, err := r.env.Launcher.StartServer(ctx, policy)
	if err != nil {
		return nil, err
	}

	address := ""
	if configuration, err := config.Load(r.configPath()); err == nil {
		address, _ = configuration.Address()
	}
	if address != "" {
		r.debugging.Logger().Debugf("Waiting for the server to accept connections on %s.", address)
		if err := launcher.WaitReady(ctx, address, r.env.StartupTimeout); err != nil {
			r.stopServer(server)
			return nil, err
		}
		return server, nil
	}

	select {
	case <-time.After(r.env.StartupGrace):
	case <-server.Exited():
		return nil, fmt.Errorf("server exited during startup with policy %q", policy)
	case <-ctx.Done():
		r.stopServer(server)
		return nil, ctx.Err()
	}
	return server, nil
}

func (r *Runner) stopServer(server *launcher.Server) {
	if server == nil {
		return
	}
	if err := server.Terminate(r.env.ShutdownGrace); err != nil {
		r.debugging.Logger().Errorf("Could not stop the server: %v", err)
	}
}
