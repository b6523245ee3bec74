package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greenhouse-wm/greenhouse/internal/config"
	"github.com/greenhouse-wm/greenhouse/internal/control"
	"github.com/greenhouse-wm/greenhouse/internal/platform"
	"github.com/greenhouse-wm/greenhouse/internal/position"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: greenhouse daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: greenhouse daemon")
			os.Exit(2)
		}
		runDaemon()
	case "list":
		os.Exit(runList(os.Args[2:]))
	case "topology":
		os.Exit(runTopology(os.Args[2:]))
	case "save":
		os.Exit(runSave(os.Args[2:]))
	case "restore":
		os.Exit(runRestore(os.Args[2:]))
	case "positions":
		os.Exit(runPositions(os.Args[2:]))
	case "remove":
		os.Exit(runRemove(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: greenhouse <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the greenhouse daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  list                List visible windows")
	fmt.Fprintln(w, "  topology            Show monitor topology")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  save                Save window positions (all, or by id/process)")
	fmt.Fprintln(w, "  restore             Restore saved positions (all, or one by process)")
	fmt.Fprintln(w, "  positions           List saved positions")
	fmt.Fprintln(w, "  remove              Delete a saved position")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config path         Print configuration file path")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'greenhouse <command> --help' for command-specific options.")
}

// connect builds a controller for one-shot commands: daemon when running,
// direct display connection otherwise.
func connect() (control.Controller, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return control.Connect(cfg, slog.New(slog.DiscardHandler))
}

func runList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: greenhouse list")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List visible windows with their id, process, class, title, and geometry.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "list takes no arguments")
		fs.Usage()
		return 2
	}

	ctrl, cleanup, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	windows, err := ctrl.ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, w := range windows {
		fmt.Printf("%-10d %-20s %-20s %4dx%-4d +%d+%d  %s  %s\n",
			w.ID, w.Process, w.Class,
			w.Bounds.Width, w.Bounds.Height, w.Bounds.X, w.Bounds.Y,
			w.MonitorID, w.Title)
	}
	return 0
}

func runTopology(args []string) int {
	fs := flag.NewFlagSet("topology", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: greenhouse topology")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show connected monitors with bounds and DPI scale.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctrl, cleanup, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	monitors, err := ctrl.Topology()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, m := range monitors {
		fmt.Printf("%-12s %4dx%-4d +%d+%d  scale %.2f\n",
			m.ID, m.Bounds.Width, m.Bounds.Height, m.Bounds.X, m.Bounds.Y, m.DPIScale)
	}
	return 0
}

func runSave(args []string) int {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: greenhouse save [window...]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Save window positions. With no arguments every visible window is saved.")
		fmt.Fprintln(os.Stderr, "A window argument is either a numeric window id (see 'greenhouse list')")
		fmt.Fprintln(os.Stderr, "or a process name, which selects all of that process's windows.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctrl, cleanup, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	var records []position.Record
	if fs.NArg() == 0 {
		records, err = ctrl.Save(nil, true)
	} else {
		ids, resolveErr := resolveWindowArgs(ctrl, fs.Args())
		if resolveErr != nil {
			fmt.Fprintln(os.Stderr, resolveErr)
			return 1
		}
		records, err = ctrl.Save(ids, false)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	for _, rec := range records {
		fmt.Printf("saved %s  %dx%d +%d+%d on %s\n",
			rec.Identity.String(),
			rec.Geometry.Rect.Width, rec.Geometry.Rect.Height,
			rec.Geometry.Rect.X, rec.Geometry.Rect.Y,
			rec.Geometry.MonitorID)
	}
	return 0
}

// resolveWindowArgs maps CLI window arguments (numeric id or process name)
// onto window IDs from a fresh enumeration.
func resolveWindowArgs(ctrl control.Controller, args []string) ([]platform.WindowID, error) {
	windows, err := ctrl.ListWindows()
	if err != nil {
		return nil, err
	}

	var ids []platform.WindowID
	for _, arg := range args {
		if n, err := strconv.ParseUint(arg, 10, 32); err == nil {
			ids = append(ids, platform.WindowID(n))
			continue
		}

		found := false
		for _, w := range windows {
			if w.Process == arg {
				ids = append(ids, w.ID)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("no visible window matches %q", arg)
		}
	}
	return ids, nil
}

func runRestore(args []string) int {
	fs := flag.NewFlagSet("restore", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	class := fs.String("class", "", "Window class of the saved position")
	title := fs.String("title", "", "Title hint of the saved position")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: greenhouse restore [--class CLASS] [--title TITLE] [process]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Restore saved positions. With no arguments every saved position is")
		fmt.Fprintln(os.Stderr, "restored; with a process name only that saved position is.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctrl, cleanup, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	if fs.NArg() == 0 {
		outcomes, err := ctrl.RestoreAll(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		failed := 0
		for _, o := range outcomes {
			printOutcome(o)
			if o.Kind != position.OutcomeRestored {
				failed++
			}
		}
		if failed > 0 {
			return 1
		}
		return 0
	}

	id, err := resolveSavedIdentity(ctrl, fs.Arg(0), *class, *title)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	outcome, err := ctrl.RestoreOne(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printOutcome(outcome)
	if outcome.Kind != position.OutcomeRestored {
		return 1
	}
	return 0
}

func printOutcome(o position.Outcome) {
	switch o.Kind {
	case position.OutcomeRestored:
		fmt.Printf("restored %s  %dx%d +%d+%d\n",
			o.Identity.String(),
			o.Target.Width, o.Target.Height, o.Target.X, o.Target.Y)
	default:
		line := fmt.Sprintf("%s %s", string(o.Kind), o.Identity.String())
		if o.Detail != "" {
			line += ": " + o.Detail
		}
		fmt.Println(line)
	}
}

func runPositions(args []string) int {
	fs := flag.NewFlagSet("positions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: greenhouse positions")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List saved positions in save order.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	ctrl, cleanup, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	records, err := ctrl.Records()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(records) == 0 {
		fmt.Println("no saved positions")
		return 0
	}
	for _, rec := range records {
		fmt.Printf("%-40s %4dx%-4d +%d+%d  %s (scale %.2f)  %s\n",
			rec.Identity.String(),
			rec.Geometry.Rect.Width, rec.Geometry.Rect.Height,
			rec.Geometry.Rect.X, rec.Geometry.Rect.Y,
			rec.Geometry.MonitorID, rec.Geometry.DPIScale,
			rec.SavedAt.Format("2006-01-02 15:04"))
	}
	return 0
}

func runRemove(args []string) int {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	class := fs.String("class", "", "Window class of the saved position")
	title := fs.String("title", "", "Title hint of the saved position")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: greenhouse remove [--class CLASS] [--title TITLE] <process>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Delete a saved position. The process name must be unambiguous among")
		fmt.Fprintln(os.Stderr, "saved positions; add --class or --title when it is not.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "remove requires exactly one <process>")
		fs.Usage()
		return 2
	}

	ctrl, cleanup, err := connect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cleanup()

	id, err := resolveSavedIdentity(ctrl, fs.Arg(0), *class, *title)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	removed, err := ctrl.Remove(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "no saved position for %s\n", id.String())
		return 1
	}
	fmt.Printf("removed %s\n", id.String())
	return 0
}

// resolveSavedIdentity finds the saved identity a process name (plus optional
// class/title filters) points at, requiring the result to be unambiguous.
func resolveSavedIdentity(ctrl control.Controller, process, class, title string) (position.Identity, error) {
	records, err := ctrl.Records()
	if err != nil {
		return position.Identity{}, err
	}

	var matches []position.Identity
	for _, rec := range records {
		id := rec.Identity
		if id.Process != process {
			continue
		}
		if class != "" && id.Class != class {
			continue
		}
		if title != "" && id.TitleHint != title {
			continue
		}
		matches = append(matches, id)
	}

	switch len(matches) {
	case 0:
		return position.Identity{}, fmt.Errorf("no saved position for process %q", process)
	case 1:
		return matches[0], nil
	default:
		var hints []string
		for _, m := range matches {
			hints = append(hints, m.String())
		}
		return position.Identity{}, fmt.Errorf("%d saved positions match %q (%s); add --class or --title",
			len(matches), process, strings.Join(hints, ", "))
	}
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  greenhouse config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  greenhouse config print [--path PATH]")
		fmt.Fprintln(os.Stderr, "  greenhouse config path")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/greenhouse/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/greenhouse/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		if *path == "" {
			cfg, err = config.Load()
		} else {
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	case "path":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
