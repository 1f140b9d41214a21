package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roostdev/roost/pkg/certs"
	"github.com/roostdev/roost/pkg/config"
	"github.com/roostdev/roost/pkg/daemon"
	"github.com/roostdev/roost/pkg/log"
	"github.com/roostdev/roost/pkg/proxy"
	"github.com/roostdev/roost/pkg/routes"
	"github.com/roostdev/roost/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reverse proxy in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		port, _ := cmd.Flags().GetInt("port")
		return runProxy(cmd.Context(), s, port)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Override the configured listen ports with this single port")
	serveCmd.AddCommand(configCmd, daemonCmd)
}

// runProxy builds the route table and cert engine from s and blocks serving
// until ctx is canceled or a SIGHUP triggers a config reload. When port is
// non-zero it replaces the merged config's ports with {port}.
func runProxy(ctx context.Context, s *store.Store, port int) error {
	engine := certs.New(s)
	if err := engine.WatchFiles(); err != nil {
		log.Error("cert file watcher: " + err.Error())
	}
	defer engine.Close()

	table := routes.New()
	merger := config.New(s.Home())
	rt, err := merger.Merge(1)
	if err != nil {
		return err
	}
	if port != 0 {
		rt.Ports = []int{port}
	}
	table.Store(rt)

	p := proxy.New(table, engine)

	stop := make(chan struct{})
	engine.StartRenewalTicker(stop)
	defer close(stop)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		generation := rt.Generation
		for {
			select {
			case <-reload:
				generation++
				next, err := merger.Merge(generation)
				if err != nil {
					log.Error("reload: merge config: " + err.Error())
					continue
				}
				if port != 0 {
					next.Ports = []int{port}
				}
				table.Store(next)
				if err := p.Reload(); err != nil {
					log.Error("reload: rebind listeners: " + err.Error())
				}
				if _, err := engine.RenewalScan(); err != nil {
					log.Error("reload: renewal scan: " + err.Error())
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Printf("serving on ports %v\n", table.Load().Ports)
	return p.Start(ctx)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage .roostrc domain mappings and ports",
}

func init() {
	configAddCmd.Flags().Bool("global", false, "Write to the global .roostrc instead of the project one")
	configRemoveCmd.Flags().Bool("global", false, "Remove from the global .roostrc instead of the project one")
	configListCmd.Flags().Bool("global", false, "List the global .roostrc instead of the project one")
	configCmd.AddCommand(configAddCmd, configRemoveCmd, configListCmd, configPortsCmd)

	configPortsAddCmd.Flags().Bool("global", false, "Write to the global .roostrc instead of the project one")
	configPortsRemoveCmd.Flags().Bool("global", false, "Remove from the global .roostrc instead of the project one")
	configPortsSetCmd.Flags().Bool("global", false, "Write to the global .roostrc instead of the project one")
	configPortsListCmd.Flags().Bool("global", false, "List the global .roostrc instead of the project one")
	configPortsCmd.AddCommand(configPortsAddCmd, configPortsRemoveCmd, configPortsSetCmd, configPortsListCmd)
}

// rcPath returns the project or global .roostrc path per the --global flag.
func rcPath(cmd *cobra.Command) (string, error) {
	global, _ := cmd.Flags().GetBool("global")
	if !global {
		return config.ProjectPath(), nil
	}
	s, err := openStore()
	if err != nil {
		return "", err
	}
	return config.GlobalPath(s.Home()), nil
}

var configAddCmd = &cobra.Command{
	Use:   "add <domain> <port>",
	Short: "Add or replace a domain→backend-port mapping",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := rcPath(cmd)
		if err != nil {
			return err
		}
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", args[1], err)
		}
		if err := config.AddMapping(path, args[0], port); err != nil {
			return err
		}
		printOK("%s -> :%d in %s", args[0], port, path)
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <domain>",
	Short: "Remove a domain→backend-port mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := rcPath(cmd)
		if err != nil {
			return err
		}
		if err := config.RemoveMapping(path, args[0]); err != nil {
			return err
		}
		printOK("removed %s from %s", args[0], path)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domain→backend-port mappings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := rcPath(cmd)
		if err != nil {
			return err
		}
		rc, err := config.Load(path)
		if err != nil {
			return err
		}
		if len(rc.Serve.Mappings) == 0 {
			fmt.Println("no mappings configured")
			return nil
		}
		for _, m := range rc.Serve.Mappings {
			fmt.Printf("%s\t:%d\n", m.Domain, m.Port)
		}
		return nil
	},
}

var configPortsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Manage the set of ports the proxy listens on",
}

var configPortsAddCmd = &cobra.Command{
	Use:   "add <port>",
	Short: "Add a listen port",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutatePorts(cmd, args[0], func(ports []int, port int) []int {
			for _, p := range ports {
				if p == port {
					return ports
				}
			}
			return append(ports, port)
		})
	},
}

var configPortsRemoveCmd = &cobra.Command{
	Use:   "remove <port>",
	Short: "Remove a listen port",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutatePorts(cmd, args[0], func(ports []int, port int) []int {
			filtered := ports[:0]
			for _, p := range ports {
				if p != port {
					filtered = append(filtered, p)
				}
			}
			return filtered
		})
	},
}

var configPortsSetCmd = &cobra.Command{
	Use:   "set <port> [port...]",
	Short: "Replace the listen port set",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := rcPath(cmd)
		if err != nil {
			return err
		}
		ports := make([]int, 0, len(args))
		for _, a := range args {
			p, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("invalid port %q: %w", a, err)
			}
			ports = append(ports, p)
		}
		if err := config.SetPorts(path, ports); err != nil {
			return err
		}
		printOK("ports set to %v in %s", ports, path)
		return nil
	},
}

var configPortsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured listen ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := rcPath(cmd)
		if err != nil {
			return err
		}
		rc, err := config.Load(path)
		if err != nil {
			return err
		}
		fmt.Println(rc.Serve.Ports)
		return nil
	},
}

func mutatePorts(cmd *cobra.Command, arg string, mutate func([]int, int) []int) error {
	path, err := rcPath(cmd)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", arg, err)
	}
	rc, err := config.Load(path)
	if err != nil {
		return err
	}
	ports := mutate(rc.Serve.Ports, port)
	if err := config.SetPorts(path, ports); err != nil {
		return err
	}
	printOK("ports now %v in %s", ports, path)
	return nil
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the background roost daemon",
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonStatusCmd, daemonReloadCmd)
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the roost daemon in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := daemon.New(s).Start(); err != nil {
			return err
		}
		printOK("daemon started")
		return nil
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the roost daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := daemon.New(s).Stop(); err != nil {
			return err
		}
		printOK("daemon stopped")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		state, alive, err := daemon.New(s).Status()
		if err != nil {
			return err
		}
		if !alive {
			printFail("daemon not running")
			return nil
		}
		printOK("daemon running, pid %d, ports %v", state.PID, state.ListenPorts)
		return nil
	},
}

var daemonReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Signal the running daemon to reload its configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		if err := daemon.New(s).Reload(); err != nil {
			return err
		}
		printOK("reload signal sent")
		return nil
	},
}
