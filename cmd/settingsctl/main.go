// settingsctl is the control CLI for settingsd.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"textinput/internal/config"
	"textinput/internal/ipc"
	"textinput/internal/logging"
	"textinput/internal/settings"
	"textinput/internal/sysprop"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath = flag.String("config", "", "path to config file")
	socketPath = flag.String("socket", "", "daemon socket (overrides config)")
	user       = flag.Int("user", settings.UserCurrent, "user ID (-2 for the calling user)")
	jsonOutput = flag.Bool("json", false, "print results as JSON")
	timeout    = flag.Duration("timeout", 0, "request timeout (default from config)")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if cmd == "help" {
		usage()
		return
	}
	if cmd == "version" {
		fmt.Println("settingsctl", Version)
		return
	}

	ctl, err := newCtl()
	if err != nil {
		fatal(err)
	}
	defer ctl.Close()

	switch cmd {
	case "get":
		need(args, 2, "get <table> <name>")
		err = ctl.get(args[0], args[1])
	case "put":
		need(args, 3, "put <table> <name> <value>")
		err = ctl.put(args[0], args[1], args[2])
	case "delete":
		need(args, 2, "delete <table> <name>")
		err = ctl.delete(args[0], args[1])
	case "list":
		need(args, 1, "list <table>")
		err = ctl.list(args[0])
	case "watch":
		err = ctl.watch(args)
	case "status":
		err = ctl.status()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `settingsctl - Control utility for settingsd

Usage: settingsctl [options] <command> [args]

Commands:
  get <table> <name>           Print a setting
  put <table> <name> <value>   Store a setting
  delete <table> <name>        Remove a setting
  list <table>                 List a table
  watch [table [name...]]      Stream changes until interrupted
  status                       Show daemon status
  version                      Print version

Tables: system, secure, global

Options:
  -config <path>   Path to config file
  -socket <path>   Daemon socket (overrides config)
  -user <id>       User ID (default: the calling user)
  -json            Print results as JSON
  -timeout <dur>   Request timeout`)
}

func need(args []string, n int, form string) {
	if len(args) != n {
		fmt.Fprintf(os.Stderr, "Usage: settingsctl %s\n", form)
		os.Exit(2)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, ipc.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "  Tip: start the daemon with: settingsd")
	}
	os.Exit(1)
}

type ctl struct {
	client  *ipc.IPCClient
	tables  *settings.Resolver
	timeout time.Duration
}

func newCtl() (*ctl, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	socket := cfg.IPC.SocketPath
	if *socketPath != "" {
		socket = *socketPath
	}
	reqTimeout := cfg.IPC.RequestTimeout()
	if *timeout > 0 {
		reqTimeout = *timeout
	}
	return newCtlFor(socket, reqTimeout), nil
}

func newCtlFor(socket string, reqTimeout time.Duration) *ctl {
	ccfg := ipc.DefaultClientConfig(config.PlatformRuntimeDir())
	ccfg.SocketPath = socket
	ccfg.ClientName = "settingsctl"
	ccfg.ClientVersion = Version
	ccfg.RequestTimeout = reqTimeout
	ccfg.Logger = logging.Discard()

	client := ipc.NewClient(ccfg)
	return &ctl{
		client: client,
		// Only used for key relocation lookups; nothing is cached.
		tables:  settings.NewResolver(client, sysprop.NewMemStore(), settings.ResolverOptions{Logger: logging.Discard()}),
		timeout: reqTimeout,
	}
}

func (c *ctl) Close() error {
	return c.client.Close()
}

func (c *ctl) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// resolve returns the table a key actually lives in.
func (c *ctl) resolve(table, name string) (string, error) {
	t, ok := c.tables.Table(table)
	if !ok {
		return "", fmt.Errorf("unknown table %q (valid: system, secure, global)", table)
	}
	if dest, moved := t.MovedTo(name); moved {
		fmt.Fprintf(os.Stderr, "note: %s has moved from %s to %s\n", name, table, dest)
		return dest, nil
	}
	return table, nil
}

func (c *ctl) get(table, name string) error {
	table, err := c.resolve(table, name)
	if err != nil {
		return err
	}
	ctx, cancel := c.requestContext()
	defer cancel()

	res, err := c.client.Call(ctx, settings.CallRequest{Method: settings.GetMethod(table), Name: name, User: *user})
	if errors.Is(err, settings.ErrUnsupported) {
		res.Value, res.Found, err = c.client.Query(ctx, table, name, *user)
	}
	if err != nil {
		return err
	}

	if *jsonOutput {
		return printJSON(map[string]any{"table": table, "name": name, "value": res.Value, "found": res.Found})
	}
	if !res.Found {
		return fmt.Errorf("%s/%s is not set", table, name)
	}
	fmt.Println(res.Value)
	return nil
}

func (c *ctl) put(table, name, value string) error {
	t, ok := c.tables.Table(table)
	if !ok {
		return fmt.Errorf("unknown table %q (valid: system, secure, global)", table)
	}
	if dest, moved := t.MovedTo(name); moved {
		return fmt.Errorf("%s has moved to the %s table and is read-only in %s", name, dest, table)
	}

	ctx, cancel := c.requestContext()
	defer cancel()

	_, err := c.client.Call(ctx, settings.CallRequest{Method: settings.PutMethod(table), Name: name, Value: value, User: *user})
	if errors.Is(err, settings.ErrUnsupported) {
		err = c.client.Insert(ctx, table, name, value, *user)
	}
	return err
}

func (c *ctl) delete(table, name string) error {
	ctx, cancel := c.requestContext()
	defer cancel()

	deleted, err := c.client.Delete(ctx, table, name, *user)
	if err != nil {
		return err
	}
	if *jsonOutput {
		return printJSON(map[string]any{"table": table, "name": name, "deleted": deleted})
	}
	if !deleted {
		fmt.Fprintf(os.Stderr, "%s/%s was not set\n", table, name)
	}
	return nil
}

func (c *ctl) list(table string) error {
	ctx, cancel := c.requestContext()
	defer cancel()

	resp, err := c.client.List(ctx, table, *user)
	if err != nil {
		return err
	}
	if *jsonOutput {
		return printJSON(resp)
	}

	width := 0
	for _, s := range resp.Settings {
		width = max(width, len(s.Name))
	}
	for _, s := range resp.Settings {
		fmt.Printf("%-*s  %s\n", width, s.Name, s.Value)
	}
	return nil
}

func (c *ctl) watch(args []string) error {
	var tables, names []string
	if len(args) > 0 {
		tables = args[:1]
		names = args[1:]
	}

	ctx, cancel := c.requestContext()
	id, err := c.client.Subscribe(ctx, tables, names)
	cancel()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Watching (subscription %s), press Ctrl+C to stop\n", id)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			return nil
		case ev, ok := <-c.client.Events():
			if !ok {
				return nil
			}
			if ev.Type == ipc.EventDaemonShutdown {
				fmt.Fprintln(os.Stderr, "daemon shut down")
				return nil
			}
			if ev.Change == nil {
				continue
			}
			if *jsonOutput {
				if err := printJSON(ev); err != nil {
					return err
				}
				continue
			}
			ch := ev.Change
			ts := ev.Timestamp.Format("15:04:05")
			if ch.Deleted {
				fmt.Printf("[%s] %s/%s deleted (user %d, version %d)\n", ts, ch.Table, ch.Name, ch.User, ch.Version)
			} else {
				fmt.Printf("[%s] %s/%s = %s (user %d, version %d)\n", ts, ch.Table, ch.Name, ch.Value, ch.User, ch.Version)
			}
		}
	}
}

func (c *ctl) status() error {
	ctx, cancel := c.requestContext()
	defer cancel()

	st, err := c.client.Status(ctx)
	if err != nil {
		return err
	}
	if *jsonOutput {
		return printJSON(st)
	}

	integrity := "VERIFIED"
	if !st.DatabaseStatus.IntegrityOK {
		integrity = "FAILED"
	}

	fmt.Println("DAEMON STATUS")
	fmt.Printf("  Version        %s\n", st.Version)
	fmt.Printf("  Uptime         %s\n", st.Uptime.Round(time.Second))
	fmt.Printf("  Started        %s\n", st.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Clients        %d\n", st.Clients)
	fmt.Printf("  Subscribers    %d\n", st.Subscribers)
	fmt.Printf("  Permission     %s (user %d)\n", c.client.Permission(), c.client.User())
	fmt.Println()
	fmt.Println("DATABASE")
	fmt.Printf("  Schema         %d\n", st.DatabaseStatus.SchemaVersion)
	fmt.Printf("  Integrity      %s\n", integrity)
	for _, table := range settings.Tables {
		fmt.Printf("  %-14s %d\n", table, st.DatabaseStatus.Settings[table])
	}
	if len(st.DatabaseStatus.Users) > 0 {
		fmt.Printf("  Users          %v\n", st.DatabaseStatus.Users)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
