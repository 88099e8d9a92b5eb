// Package command maps named bridge commands to explicit session handlers.
//
// It replaces reflective name-to-method dispatch with a closed command set
// resolved at construction time. An unknown command and a command that ran
// but failed are different outcomes, and neither is ever folded into
// success: batch drivers decide for themselves how to treat each.
package command

import (
	"fmt"
	"io"

	"github.com/femsolve/fcsbridge/internal/palette"
	"github.com/femsolve/fcsbridge/internal/protocol"
	"github.com/femsolve/fcsbridge/internal/viewer"
)

// Command names one bridge operation. The set is closed; anything else
// dispatches to NotFound.
type Command string

const (
	Probe            Command = "probe"
	UpdateViewer     Command = Command(protocol.OpUpdateViewer)
	Show             Command = Command(protocol.OpShow)
	Hide             Command = Command(protocol.OpHide)
	ShowOnly         Command = Command(protocol.OpShowOnly)
	HideOnly         Command = Command(protocol.OpHideOnly)
	ShowAll          Command = Command(protocol.OpShowAll)
	HideAll          Command = Command(protocol.OpHideAll)
	FitAll           Command = Command(protocol.OpFitAll)
	SetTransparency  Command = Command(protocol.OpSetTransparency)
	SetObjectColour  Command = Command(protocol.OpSetObjectColour)
	AddToDocument    Command = Command(protocol.OpAddToDocument)
	CommitToDocument Command = Command(protocol.OpCommitToDocument)
	FindObjectByName Command = Command(protocol.OpFindObjectByName)
)

// Args carries a command's named arguments.
type Args map[string]any

// Outcome classifies a dispatch attempt.
type Outcome int

const (
	// Dispatched means the command was found and ran successfully.
	Dispatched Outcome = iota

	// NotFound means no such command exists.
	NotFound

	// Failed means the command ran and reported an error.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Dispatched:
		return "dispatched"
	case NotFound:
		return "not found"
	default:
		return "failed"
	}
}

// Result is the outcome of one dispatch, with the handler's error when the
// outcome is Failed.
type Result struct {
	Outcome Outcome
	Err     error
}

// Handler executes one command against a session.
type Handler func(s *viewer.Session, args Args) error

// Dispatcher resolves commands against a fixed handler table.
type Dispatcher struct {
	session  *viewer.Session
	handlers map[Command]Handler
	out      io.Writer
}

// NewDispatcher builds a dispatcher for the session with the full built-in
// command table. Command output (currently only find results) goes to out;
// pass nil to discard it.
func NewDispatcher(s *viewer.Session, out io.Writer) *Dispatcher {
	if out == nil {
		out = io.Discard
	}
	d := &Dispatcher{
		session: s,
		out:     out,
	}
	d.handlers = map[Command]Handler{
		Probe:            runProbe,
		UpdateViewer:     runUpdateViewer,
		Show:             runShow,
		Hide:             runHide,
		ShowOnly:         runShowOnly,
		HideOnly:         runHideOnly,
		ShowAll:          runShowAll,
		HideAll:          runHideAll,
		FitAll:           runFitAll,
		SetTransparency:  runSetTransparency,
		SetObjectColour:  runSetObjectColour,
		AddToDocument:    runAddToDocument,
		CommitToDocument: runCommit,
		FindObjectByName: d.runFind,
	}
	return d
}

// Run dispatches one command. Unknown commands yield NotFound; handler
// errors yield Failed with the error attached.
func (d *Dispatcher) Run(cmd Command, args Args) Result {
	handler, ok := d.handlers[cmd]
	if !ok {
		return Result{Outcome: NotFound}
	}
	if args == nil {
		args = Args{}
	}
	if err := handler(d.session, args); err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	return Result{Outcome: Dispatched}
}

// Commands returns the full command set, for usage listings.
func (d *Dispatcher) Commands() []Command {
	cmds := make([]Command, 0, len(d.handlers))
	for cmd := range d.handlers {
		cmds = append(cmds, cmd)
	}
	return cmds
}

func runProbe(s *viewer.Session, _ Args) error {
	if state := s.Probe(); state != viewer.StateAvailableCompatible {
		return fmt.Errorf("viewer on port %d is %s", s.ViewerID(), state)
	}
	return nil
}

func runUpdateViewer(s *viewer.Session, _ Args) error {
	s.UpdateViewer()
	return nil
}

func runShow(s *viewer.Session, args Args) error {
	id, err := intArg(args, "entity_id")
	if err != nil {
		return err
	}
	s.Show(id)
	return nil
}

func runHide(s *viewer.Session, args Args) error {
	id, err := intArg(args, "entity_id")
	if err != nil {
		return err
	}
	s.Hide(id)
	return nil
}

func runShowOnly(s *viewer.Session, args Args) error {
	id, err := intArg(args, "entity_id")
	if err != nil {
		return err
	}
	s.ShowOnly(id)
	return nil
}

func runHideOnly(s *viewer.Session, args Args) error {
	id, err := intArg(args, "entity_id")
	if err != nil {
		return err
	}
	s.HideOnly(id)
	return nil
}

func runShowAll(s *viewer.Session, _ Args) error {
	s.ShowAll()
	return nil
}

func runHideAll(s *viewer.Session, _ Args) error {
	s.HideAll()
	return nil
}

func runFitAll(s *viewer.Session, _ Args) error {
	s.FitAll()
	return nil
}

func runSetTransparency(s *viewer.Session, args Args) error {
	id, err := intArg(args, "entity_id")
	if err != nil {
		return err
	}
	opacity, err := floatArg(args, "opacity")
	if err != nil {
		return err
	}
	s.SetTransparency(id, opacity)
	return nil
}

func runSetObjectColour(s *viewer.Session, args Args) error {
	id, err := intArg(args, "entity_id")
	if err != nil {
		return err
	}
	if name, ok := args["colour"].(string); ok {
		sel, err := palette.Parse(name)
		if err != nil {
			return err
		}
		s.SetColour(id, sel)
		return nil
	}
	red, err := intArg(args, "red")
	if err != nil {
		return err
	}
	green, err := intArg(args, "green")
	if err != nil {
		return err
	}
	blue, err := intArg(args, "blue")
	if err != nil {
		return err
	}
	s.SetSpecificColour(id, red, green, blue)
	return nil
}

func runAddToDocument(s *viewer.Session, args Args) error {
	name, err := stringArg(args, "name")
	if err != nil {
		return err
	}
	entity, ok := args["entity"]
	if !ok {
		return fmt.Errorf("missing argument %q", "entity")
	}
	_, err = s.Publish(entity, name)
	return err
}

func runCommit(s *viewer.Session, _ Args) error {
	return s.Commit()
}

func (d *Dispatcher) runFind(s *viewer.Session, args Args) error {
	name, err := stringArg(args, "search_name")
	if err != nil {
		return err
	}
	for _, id := range s.FindObjectsByName(name) {
		fmt.Fprintln(d.out, id)
	}
	return nil
}

func intArg(args Args, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", key, v)
	}
}

func floatArg(args Args, key string) (float64, error) {
	v, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing argument %q", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, v)
	}
}

func stringArg(args Args, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return str, nil
}
