// Package console provides the interactive command line for a running
// simulator.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/psusim/psusim/internal/history"
	"github.com/psusim/psusim/internal/supply"
)

// Simulator is the part of supply.Simulator the console drives.
type Simulator interface {
	Initialized() bool
	Devices() []*supply.Device
	LookupByName(name string) (*supply.Device, error)
	Device(kind supply.Kind) (*supply.Device, error)
	Write(kind supply.Kind, p supply.Property, v int64) error
	ApplyParam(key, value string) error
	Param(key string) (string, error)
}

// HistoryReader returns journalled change events for a supply.
type HistoryReader interface {
	History(ctx context.Context, supply string, limit int) ([]history.Entry, error)
}

// Console handles interactive mode for psusim.
type Console struct {
	sim     Simulator
	history HistoryReader
}

// New creates a console. journal may be nil when the database is disabled.
func New(sim Simulator, journal HistoryReader) *Console {
	return &Console{sim: sim, history: journal}
}

// Run starts the interactive command loop. It returns when the user exits
// or ctx is cancelled; cancel is called on exit so the caller can shut down.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "psusim> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	c.printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return nil
		}

		if !c.Exec(ctx, out, line) {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return nil
		}
	}
}

// Exec runs one command line, writing its output to out. It returns false
// when the command asks to leave the console.
func (c *Console) Exec(ctx context.Context, out io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp(out)
	case "list", "ls":
		c.cmdList(out)
	case "show", "s":
		c.cmdShow(out, args)
	case "get", "g":
		c.cmdGet(out, args)
	case "set":
		c.cmdSet(out, args)
	case "param", "p":
		c.cmdParam(out, line, args)
	case "history", "h":
		c.cmdHistory(ctx, out, args)
	case "status":
		c.cmdStatus(out)
	case "quit", "exit", "q":
		return false
	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) printHelp(out io.Writer) {
	fmt.Fprint(out, `
psusim Commands:
  Supplies:
    list                         - List supplies
    show <supply>                - Show every property of a supply
    get <supply> <property>      - Read a property
    set <supply> <property> <n>  - Write an integer property
    history <supply> [limit]     - Show journalled change events

  A supply is its current name or its kind (ac, battery).

  Configuration:
    param                        - List configuration parameters
    param <key>                  - Show one parameter
    param <key> <value...>       - Update a parameter

  Other:
    status                       - Show simulator status
    help                         - Show this help
    quit                         - Exit

`)
}

func (c *Console) cmdList(out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tPROPERTIES\tWRITABLE\tSUPPLIED TO")
	for _, d := range c.sim.Devices() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			d.Name(), d.Kind().Type(), len(d.Properties()), len(d.Writable()),
			strings.Join(d.SuppliedTo(), ","))
	}
	tw.Flush()
}

func (c *Console) cmdShow(out io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(out, "Usage: show <supply>")
		return
	}
	d, err := c.findSupply(args[0])
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range d.Snapshot() {
		fmt.Fprintf(tw, "%s\t%s\n", r.Property, render(r.Property, r.Value))
	}
	tw.Flush()
}

func (c *Console) cmdGet(out io.Writer, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(out, "Usage: get <supply> <property>")
		return
	}
	d, p, err := c.resolve(args[0], args[1])
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	v, err := d.Get(p)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "%s.%s = %s\n", d.Name(), p, render(p, v))
}

func (c *Console) cmdSet(out io.Writer, args []string) {
	if len(args) != 3 {
		fmt.Fprintln(out, "Usage: set <supply> <property> <integer>")
		return
	}
	d, p, err := c.resolve(args[0], args[1])
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	n, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		fmt.Fprintf(out, "Error: %q is not an integer\n", args[2])
		return
	}
	if err := c.sim.Write(d.Kind(), p, n); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	v, _ := d.Get(p)
	fmt.Fprintf(out, "%s.%s = %s\n", d.Name(), p, render(p, v))
}

func (c *Console) cmdParam(out io.Writer, line string, args []string) {
	switch len(args) {
	case 0:
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, p := range supply.Params() {
			v, _ := c.sim.Param(string(p))
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p, v, p.Description())
		}
		tw.Flush()
	case 1:
		v, err := c.sim.Param(args[0])
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "%s = %s\n", args[0], v)
	default:
		value := paramValue(line, args[0])
		if err := c.sim.ApplyParam(args[0], value); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		v, _ := c.sim.Param(args[0])
		fmt.Fprintf(out, "%s = %s\n", args[0], v)
	}
}

func (c *Console) cmdHistory(ctx context.Context, out io.Writer, args []string) {
	if c.history == nil {
		fmt.Fprintln(out, "History is disabled (database.enabled is false)")
		return
	}
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(out, "Usage: history <supply> [limit]")
		return
	}
	limit := 10
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			fmt.Fprintf(out, "Error: invalid limit %q\n", args[1])
			return
		}
		limit = n
	}

	d, err := c.findSupply(args[0])
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	entries, err := c.history.History(ctx, d.Name(), limit)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No events recorded")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %s  %d properties\n", e.CreatedAt.Format("2006-01-02 15:04:05.000"), e.ID, len(e.Properties))
	}
}

func (c *Console) cmdStatus(out io.Writer) {
	state := "down"
	if c.sim.Initialized() {
		state = "up"
	}
	fmt.Fprintf(out, "Simulator: %s\n", state)
	for _, d := range c.sim.Devices() {
		fmt.Fprintf(out, "  %-12s %s\n", d.Name(), d.Kind().Type())
	}
}

// findSupply finds a device by name, falling back to its kind so "battery"
// keeps working after a rename.
func (c *Console) findSupply(arg string) (*supply.Device, error) {
	d, err := c.sim.LookupByName(arg)
	if err == nil {
		return d, nil
	}
	kind, kerr := supply.ParseKind(arg)
	if kerr != nil {
		return nil, err
	}
	return c.sim.Device(kind)
}

func (c *Console) resolve(name, prop string) (*supply.Device, supply.Property, error) {
	d, err := c.findSupply(name)
	if err != nil {
		return nil, "", err
	}
	p, err := supply.ParseProperty(prop)
	if err != nil {
		return nil, "", err
	}
	return d, p, nil
}

// paramValue returns everything after the key on the command line, so
// values may contain spaces.
func paramValue(line, key string) string {
	rest := strings.TrimSpace(line)
	_, rest, _ = strings.Cut(rest, " ")
	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, key)
	return strings.TrimSpace(rest)
}

func render(p supply.Property, v supply.Value) string {
	if v.IsString() {
		return v.Str()
	}
	label := supply.Describe(p, v.Int())
	if label == v.String() {
		return label
	}
	return fmt.Sprintf("%d (%s)", v.Int(), label)
}

func completer() *readline.PrefixCompleter {
	params := make([]readline.PrefixCompleterInterface, 0, len(supply.Params()))
	for _, p := range supply.Params() {
		params = append(params, readline.PcItem(string(p)))
	}
	kinds := func() []readline.PrefixCompleterInterface {
		items := make([]readline.PrefixCompleterInterface, 0, len(supply.Kinds()))
		for _, k := range supply.Kinds() {
			items = append(items, readline.PcItem(string(k)))
		}
		return items
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("list"),
		readline.PcItem("show", kinds()...),
		readline.PcItem("get", kinds()...),
		readline.PcItem("set", kinds()...),
		readline.PcItem("param", params...),
		readline.PcItem("history", kinds()...),
		readline.PcItem("status"),
		readline.PcItem("quit"),
	)
}
