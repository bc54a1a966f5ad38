package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smazurov/ledd/internal/api/models"
)

var errUsage = errors.New("usage")

// briefFlash is how long -s lights an LED.
const briefFlash = 50 * time.Millisecond

const ledUsage = `usage:  ledd led [-h]
        ledd led [-l|-L]
        ledd led [-k|-K] <lock ID> <LED name> ...
        ledd led [-i <lock ID>] ((-s|-o|-O|-f|-F|-q) <LED name>) ...

  -h  help       what you see below
  -k  acquire    acquire exclusive access to the LEDs, locked by <lock ID>
  -K  release    release access to the LEDs, held by <lock ID>
  -i  lock ID    run the following commands with <lock ID> access
  -s  set        turn LED on briefly
  -o  on         turn LED on
  -O  off        turn LED off
  -f  flash      make LED flash
  -F  flash      make LED flash fast
  -q  query      print LED state
  -l  list       list LEDs
  -L  states     list LED states
  -n  alton      set LED to alternate mode
  -N  altoff     set LED to normal mode
  -a  altbit     alternate priority applies to the following commands
  -A  ~altbit    alternate priority does not apply to the following commands
      --priority priority for the following commands
      --time     flash the following -f/-F for this long, or light -s for this long

Commands run in the order given; the first failing set or query stops the run.
`

// ledActionFlags are handled in command line order rather than stored.
var ledActionFlags = map[string]bool{
	"alternate-on":  true,
	"alternate-off": true,
	"alt":           true,
	"no-alt":        true,
	"lock":          true,
	"unlock":        true,
	"lock-id":       true,
	"brief":         true,
	"on":            true,
	"off":           true,
	"flash":         true,
	"fast-flash":    true,
	"query":         true,
	"list":          true,
	"states":        true,
	"priority":      true,
	"time":          true,
	"help":          true,
}

// ledModifiers change later commands without doing anything themselves.
var ledModifiers = map[string]bool{
	"alt":      true,
	"no-alt":   true,
	"lock-id":  true,
	"priority": true,
	"time":     true,
}

type ledAction struct {
	name  string
	value string
}

// CreateLEDCmd creates the led command, a client for the daemon's LED API.
func CreateLEDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "led [flags] [LED name ...]",
		Short: "Set, query and lock LEDs",
		Long:  ledUsage,
		// Flags are commands that run in order, so they are parsed here.
		DisableFlagParsing: true,
		Run: func(cmd *cobra.Command, args []string) {
			if code := runLED(cmd.Context(), args, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != 0 {
				os.Exit(code)
			}
		},
	}
}

func newLEDFlagSet(conn *ClientOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("led", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	conn.addFlags(fs)

	fs.StringP("alternate-on", "n", "", "Set LED to alternate mode")
	fs.StringP("alternate-off", "N", "", "Set LED to normal mode")
	fs.BoolP("alt", "a", false, "Alternate priority applies to the following commands")
	fs.BoolP("no-alt", "A", false, "Alternate priority does not apply to the following commands")
	fs.StringP("lock", "k", "", "Acquire the LEDs with this lock ID")
	fs.StringP("unlock", "K", "", "Release the LEDs held by this lock ID")
	fs.StringP("lock-id", "i", "", "Run the following commands with this lock ID")
	fs.StringP("brief", "s", "", "Turn LED on briefly")
	fs.StringP("on", "o", "", "Turn LED on")
	fs.StringP("off", "O", "", "Turn LED off")
	fs.StringP("flash", "f", "", "Make LED flash")
	fs.StringP("fast-flash", "F", "", "Make LED flash fast")
	fs.StringP("query", "q", "", "Print LED state")
	fs.BoolP("list", "l", false, "List LEDs")
	fs.BoolP("states", "L", false, "List LED states")
	fs.String("priority", "", "Priority for the following commands")
	fs.String("time", "", "Flash time for the following commands")
	fs.BoolP("help", "h", false, "Show help")
	return fs
}

// ledRun carries the settings that earlier flags apply to later ones.
type ledRun struct {
	client    *Client
	stdout    io.Writer
	stderr    io.Writer
	priority  string
	lockID    string
	flashTime time.Duration
}

func runLED(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx = ctxOrBackground(ctx)

	var conn ClientOptions
	fs := newLEDFlagSet(&conn)
	var actions []ledAction
	err := fs.ParseAll(args, func(flag *pflag.Flag, value string) error {
		if ledActionFlags[flag.Name] {
			actions = append(actions, ledAction{name: flag.Name, value: value})
			return nil
		}
		return fs.Set(flag.Name, value)
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n%s", err, ledUsage)
		return 1
	}

	run := &ledRun{
		client:   NewClient(conn),
		stdout:   stdout,
		stderr:   stderr,
		priority: "normal",
	}

	worked := false
	for _, a := range actions {
		done, ok, err := run.apply(ctx, a, fs.Args())
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, ledUsage)
			return 1
		}
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if done {
			if ok {
				return 0
			}
			return 1
		}
		if !ok {
			return 1
		}
		worked = worked || !ledModifiers[a.name]
	}

	if !worked || fs.NArg() != 0 {
		fmt.Fprint(stderr, ledUsage)
		return 1
	}
	return 0
}

// apply runs one flag. done ends the run with ok as its result.
func (r *ledRun) apply(ctx context.Context, a ledAction, rest []string) (done, ok bool, err error) {
	switch a.name {
	case "help":
		fmt.Fprint(r.stdout, ledUsage)
		return true, true, nil
	case "alt":
		r.priority = "alternate"
	case "no-alt":
		r.priority = "normal"
	case "priority":
		r.priority = a.value
	case "time":
		d, err := parseFlashTime(a.value)
		if err != nil {
			return false, false, err
		}
		r.flashTime = d
	case "lock-id":
		if r.lockID != "" {
			return false, false, fmt.Errorf("lock ID has already been specified (%s)", r.lockID)
		}
		r.lockID = a.value
		r.priority = "locked"
	case "alternate-on", "alternate-off":
		// Alternate mode changes don't fail the run.
		r.activation(ctx, a.name == "alternate-on", "alternate", "", a.value)
	case "lock", "unlock":
		if len(rest) == 0 {
			action := "activate"
			if a.name == "unlock" {
				action = "deactivate"
			}
			fmt.Fprintf(r.stderr, "specify a LED to %s\n", action)
			return true, false, nil
		}
		ok = true
		for _, name := range rest {
			if !r.activation(ctx, a.name == "lock", "locked", a.value, name) {
				ok = false
			}
		}
		return true, ok, nil
	case "list":
		entries, err := r.client.List(ctx)
		if err != nil {
			return false, false, err
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		printLine(r.stdout, names)
		return true, true, nil
	case "states":
		states, err := r.client.States(ctx)
		if err != nil {
			return false, false, err
		}
		printLine(r.stdout, states)
		return true, true, nil
	case "query":
		return false, r.query(ctx, a.value), nil
	default:
		req, ok := r.setRequest(a)
		if !ok {
			return false, false, errUsage
		}
		return false, r.set(ctx, req), nil
	}
	return false, true, nil
}

func (r *ledRun) setRequest(a ledAction) (models.LEDSetData, bool) {
	req := models.LEDSetData{
		Name:     a.value,
		Priority: r.priority,
		LockID:   r.lockID,
	}
	switch a.name {
	case "brief":
		// Off with a one-shot: the LED lights for one interval, then goes out.
		req.State = "off"
		req.FlashType = "one_shot"
		req.FlashTimeMs = int(briefFlash.Milliseconds())
		if r.flashTime > 0 {
			req.FlashTimeMs = int(r.flashTime.Milliseconds())
		}
	case "on":
		req.State = "on"
	case "off":
		req.State = "off"
	case "flash", "fast-flash":
		req.State = "flash"
		flashType := "flash_type_slow"
		if a.name == "fast-flash" {
			req.State = "fast-flash"
			flashType = "flash_type_fast"
		}
		if r.flashTime > 0 {
			req.State = "off"
			req.FlashType = flashType
			req.FlashTimeMs = int(r.flashTime.Milliseconds())
		}
	default:
		return req, false
	}
	return req, true
}

func (r *ledRun) set(ctx context.Context, req models.LEDSetData) bool {
	results, err := r.client.Set(ctx, req)
	if err != nil {
		fmt.Fprintf(r.stdout, "Error: %v\n", err)
		return false
	}
	ok := true
	for _, res := range results {
		if !res.Success {
			printRecordError(r.stdout, res.Error, res.LockID, "Locked with ID")
			ok = false
		}
	}
	return ok
}

func (r *ledRun) query(ctx context.Context, name string) bool {
	results, err := r.client.Get(ctx, name)
	if err != nil {
		fmt.Fprintf(r.stdout, "Error: %v\n", err)
		return false
	}
	ok := true
	for _, res := range results {
		if !res.Success {
			printRecordError(r.stdout, res.Error, res.LockID, "Locked with ID")
			ok = false
			continue
		}
		fmt.Fprintf(r.stdout, "%s %s\n", res.Name, res.State)
	}
	return ok
}

func (r *ledRun) activation(ctx context.Context, activate bool, priority, lockID, name string) bool {
	var (
		results []models.LEDResultRecord
		err     error
	)
	action := "activate"
	if activate {
		results, err = r.client.Activate(ctx, name, priority, lockID)
	} else {
		action = "deactivate"
		results, err = r.client.Deactivate(ctx, name, priority, lockID)
	}

	ok := err == nil && len(results) > 0
	if err != nil {
		fmt.Fprintf(r.stdout, "Error: %v\n", err)
	}
	for _, res := range results {
		if !res.Success {
			printRecordError(r.stdout, res.Error, res.LockID, "LED is locked with ID")
			ok = false
		}
	}
	if !ok {
		fmt.Fprintf(r.stderr, "failed to %s led: %s\n", action, name)
	}
	return ok
}

func printRecordError(w io.Writer, msg, lockID, lockLabel string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(w, "Error: %s", msg)
	if lockID != "" {
		fmt.Fprintf(w, ". %s: %s", lockLabel, lockID)
	}
	fmt.Fprintln(w)
}

func printLine(w io.Writer, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Join(items, " "))
}

// parseFlashTime accepts a Go duration or a bare number of milliseconds.
func parseFlashTime(value string) (time.Duration, error) {
	if d, err := time.ParseDuration(value); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("invalid time %q", value)
		}
		return d, nil
	}
	ms, err := strconv.Atoi(value)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
