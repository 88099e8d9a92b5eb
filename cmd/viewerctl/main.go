// viewerctl drives an FCS bridge session from the command line, against a
// viewer expected on a loopback port. Remote rejections are logged, never
// fatal; the tool exits nonzero only on local errors.
package main

import (
	"log"
	"os"
	"strconv"

	"github.com/docopt/docopt-go"

	"github.com/femsolve/fcsbridge/internal/command"
	"github.com/femsolve/fcsbridge/internal/viewer"
	"github.com/femsolve/fcsbridge/internal/workspace"
)

const ViewerCtlVersion = "0.2.0"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `FCS viewer control.

Talks to a running FCS viewer instance over its loopback port.

Usage:
    viewerctl probe [options]
    viewerctl update [options]
    viewerctl show <entity_id> [options]
    viewerctl hide <entity_id> [options]
    viewerctl show-only <entity_id> [options]
    viewerctl hide-only <entity_id> [options]
    viewerctl show-all [options]
    viewerctl hide-all [options]
    viewerctl fit [options]
    viewerctl transparency <entity_id> <opacity> [options]
    viewerctl colour <entity_id> <red> <green> <blue> [options]
    viewerctl paint <entity_id> <colour_name> [options]
    viewerctl publish <stl_file> <name> [options]
    viewerctl commit [options]
    viewerctl find <search_name> [options]

Options:
    -h --help            Show this screen.
    --version            Show version.
    --config=<config>    TOML settings file.
    --port=<port>        Viewer port (overrides settings).
    --host=<host>        Viewer host (overrides settings).
    --plugin=<plugin>    Plugin workspace folder (overrides settings).`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], ViewerCtlVersion)
	if err != nil {
		Err.Fatalf("parse arguments: %v", err)
	}

	settings := loadSettings(opts)
	session := newSession(settings)
	dispatcher := command.NewDispatcher(session, os.Stdout)

	cmd, args := resolve(opts)

	// Every command needs a probed session; probe itself reports the state.
	if cmd != command.Probe {
		session.Probe()
	}

	result := dispatcher.Run(cmd, args)
	switch result.Outcome {
	case command.NotFound:
		Err.Fatalf("unknown command %q", cmd)
	case command.Failed:
		Err.Fatalf("%s failed: %v", cmd, result.Err)
	default:
		Out.Printf("%s: ok (viewer %s)", cmd, session.State())
	}
}

func loadSettings(opts docopt.Opts) workspace.Settings {
	settings := workspace.DefaultSettings()

	if path, err := opts.String("--config"); err == nil && path != "" {
		loaded, err := workspace.LoadSettings(path)
		if err != nil {
			Err.Fatalf("load settings: %v", err)
		}
		settings = loaded
	}
	if port, err := opts.Int("--port"); err == nil && port != 0 {
		settings.Port = port
	}
	if host, err := opts.String("--host"); err == nil && host != "" {
		settings.Host = host
	}
	if plugin, err := opts.String("--plugin"); err == nil && plugin != "" {
		settings.Plugin = plugin
	}
	return settings
}

func newSession(settings workspace.Settings) *viewer.Session {
	operator := newFileOperator(settings.Document)
	session := viewer.NewSession(settings.Port, operator)
	session.SetHost(settings.Host)
	session.SetPluginName(settings.Plugin)
	return session
}

// resolve maps the parsed CLI verb onto a bridge command and its arguments.
func resolve(opts docopt.Opts) (command.Command, command.Args) {
	args := command.Args{}

	if id, err := opts.Int("<entity_id>"); err == nil {
		args["entity_id"] = id
	}
	if raw, err := opts.String("<opacity>"); err == nil {
		opacity, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			Err.Fatalf("opacity must be a number: %v", err)
		}
		args["opacity"] = opacity
	}

	switch {
	case boolOpt(opts, "probe"):
		return command.Probe, args
	case boolOpt(opts, "update"):
		return command.UpdateViewer, args
	case boolOpt(opts, "show-only"):
		return command.ShowOnly, args
	case boolOpt(opts, "hide-only"):
		return command.HideOnly, args
	case boolOpt(opts, "show-all"):
		return command.ShowAll, args
	case boolOpt(opts, "hide-all"):
		return command.HideAll, args
	case boolOpt(opts, "show"):
		return command.Show, args
	case boolOpt(opts, "hide"):
		return command.Hide, args
	case boolOpt(opts, "fit"):
		return command.FitAll, args
	case boolOpt(opts, "transparency"):
		return command.SetTransparency, args
	case boolOpt(opts, "colour"):
		args["red"], _ = opts.Int("<red>")
		args["green"], _ = opts.Int("<green>")
		args["blue"], _ = opts.Int("<blue>")
		return command.SetObjectColour, args
	case boolOpt(opts, "paint"):
		args["colour"], _ = opts.String("<colour_name>")
		return command.SetObjectColour, args
	case boolOpt(opts, "publish"):
		stlFile, _ := opts.String("<stl_file>")
		args["entity"] = stlFile
		args["name"], _ = opts.String("<name>")
		return command.AddToDocument, args
	case boolOpt(opts, "commit"):
		return command.CommitToDocument, args
	case boolOpt(opts, "find"):
		args["search_name"], _ = opts.String("<search_name>")
		return command.FindObjectByName, args
	default:
		Err.Fatalf("no command given")
		return "", nil
	}
}

func boolOpt(opts docopt.Opts, key string) bool {
	v, _ := opts.Bool(key)
	return v
}
