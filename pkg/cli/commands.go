// Copyright (C) 2025  nagare authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	nats "github.com/nats-io/nats.go"

	"github.com/nagare-net/nagare/pkg/appconf"
	"github.com/nagare-net/nagare/pkg/controlplane"
	"github.com/nagare-net/nagare/pkg/databus"
	"github.com/nagare-net/nagare/pkg/log"
	"github.com/nagare-net/nagare/pkg/metrics"
	"github.com/nagare-net/nagare/pkg/version"
)

// RegisterCommands registers all the CLI commands.
func RegisterCommands() {
	RegisterCallback(
		[]string{"", "help"},
		func(s []string) error {
			return unexpectedArgsError(s, 2)
		},
		helpFunc,
	)
	RegisterCallback(
		[]string{"", "version"},
		func(s []string) error {
			return unexpectedArgsError(s, 2)
		},
		versionFunc,
	)
	RegisterCallback(
		[]string{"", "run"},
		validateRunArgs,
		runFunc,
	)
}

var helpFunc = func(s []string) error {
	helpFormatter{
		appName: binaryName,
		entries: []helpCmdEntry{
			{
				cmd:  "help",
				help: []string{"Print the help message."},
			},
			{
				cmd: "run [--config <FILE>]",
				help: []string{
					"Run the congestion control plane in the foreground.",
					"If --config is not set, the " + appconf.ConfigFileEnvVar + " environment variable is used.",
				},
			},
			{
				cmd:  "version",
				help: []string{"Print the version of " + binaryName + "."},
			},
		},
	}.print()
	return nil
}

var versionFunc = func(s []string) error {
	log.Infof(version.AppVersion)
	return nil
}

func validateRunArgs(s []string) error {
	if len(s) == 2 {
		return nil
	}
	if len(s) == 4 && s[2] == "--config" {
		return nil
	}
	return fmt.Errorf("usage: %s run [--config <FILE>]", binaryName)
}

var runFunc = func(s []string) error {
	configPath := ""
	if len(s) == 4 {
		configPath = s[3]
	}
	conf, err := appconf.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log.SetFormatter(&log.DaemonFormatter{})
	if conf.LoggingLevel != "" {
		log.SetLevel(conf.LoggingLevel)
	}
	ccConfig, err := conf.CongestionConfig()
	if err != nil {
		return err
	}

	manager, err := controlplane.NewManager(ccConfig)
	if err != nil {
		return err
	}
	natsConn, err := nats.Connect(conf.NatsURL, nats.NoEcho())
	if err != nil {
		return fmt.Errorf("failed to connect to NATS server at %s: %w", conf.NatsURL, err)
	}
	defer natsConn.Close()
	bus, err := databus.NewBus(databus.Config{
		Conn:          natsConn,
		Manager:       manager,
		SubjectPrefix: conf.SubjectPrefix,
		AutoRegister:  conf.AutoRegisterFlows,
	})
	if err != nil {
		return fmt.Errorf("failed to create data bus: %w", err)
	}
	manager.SetSink(bus)

	if conf.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			log.Infof("serving metrics on http://%s/metrics", conf.MetricsAddr)
			if err := http.ListenAndServe(conf.MetricsAddr, mux); err != nil {
				log.Warnf("metrics server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log.Infof("%s version %s is running", binaryName, version.AppVersion)
	return bus.Run(ctx)
}
