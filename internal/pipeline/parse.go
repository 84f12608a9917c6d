package pipeline

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Invocation is one (stage, options) pair of a parsed chain.
type Invocation struct {
	Stage *Stage
	Flags *pflag.FlagSet
	// Args holds the stage's positional arguments (e.g. a file path).
	Args []string
}

// ParseChain splits a chained command line into ordered stage invocations
// and parses each stage's options. The chain syntax is
//
//	stage [flags] [args] stage [flags] ...
//
// A token only starts a new stage when the current stage's flags do not
// consume it as a value. All errors here are configuration errors: nothing
// has executed yet.
func ParseChain(reg *Registry, args []string) ([]*Invocation, error) {
	var invs []*Invocation

	i := 0
	for i < len(args) {
		name := args[i]
		stage, ok := reg.Lookup(name)
		if !ok {
			return nil, &ConfigError{Err: fmt.Errorf("%w: %s (known: %s)", ErrUnknownStage, name, strings.Join(reg.Names(), ", "))}
		}
		i++

		fs := stage.newFlagSet()
		segment, next, err := collectSegment(reg, fs, args[i:])
		if err != nil {
			return nil, &ConfigError{Stage: name, Err: err}
		}
		i += next

		if err := fs.Parse(segment); err != nil {
			return nil, &ConfigError{Stage: name, Err: err}
		}

		invs = append(invs, &Invocation{Stage: stage, Flags: fs, Args: fs.Args()})
	}

	return invs, nil
}

// collectSegment gathers the tokens belonging to the current stage and
// returns them along with the number of tokens consumed. It stops at the
// first registered stage name that is not a flag value.
func collectSegment(reg *Registry, fs *pflag.FlagSet, args []string) ([]string, int, error) {
	var segment []string
	expectsValue := false

	for i, tok := range args {
		if expectsValue {
			segment = append(segment, tok)
			expectsValue = false
			continue
		}

		switch {
		case strings.HasPrefix(tok, "--"):
			takesValue, err := longFlagTakesValue(fs, tok)
			if err != nil {
				return nil, 0, err
			}
			expectsValue = takesValue
		case strings.HasPrefix(tok, "-") && len(tok) > 1:
			takesValue, err := shortFlagTakesValue(fs, tok)
			if err != nil {
				return nil, 0, err
			}
			expectsValue = takesValue
		default:
			if _, ok := reg.Lookup(tok); ok {
				return segment, i, nil
			}
		}

		segment = append(segment, tok)
	}

	if expectsValue {
		return nil, 0, fmt.Errorf("flag %s needs an argument", segment[len(segment)-1])
	}

	return segment, len(args), nil
}

// longFlagTakesValue reports whether a --flag token consumes the following
// token as its value.
func longFlagTakesValue(fs *pflag.FlagSet, tok string) (bool, error) {
	name := strings.TrimPrefix(tok, "--")
	if eq := strings.Index(name, "="); eq >= 0 {
		name = name[:eq]
		tok = "" // value inline, nothing to consume
	}
	f := fs.Lookup(name)
	if f == nil {
		return false, fmt.Errorf("unknown flag: --%s", name)
	}
	return tok != "" && f.Value.Type() != "bool", nil
}

// shortFlagTakesValue reports whether a -x (or clustered -xy) token
// consumes the following token. A non-bool shorthand followed by more
// characters (-n3) or an = carries its value inline.
func shortFlagTakesValue(fs *pflag.FlagSet, tok string) (bool, error) {
	cluster := strings.TrimPrefix(tok, "-")
	inline := false
	if eq := strings.Index(cluster, "="); eq >= 0 {
		cluster = cluster[:eq]
		inline = true
	}
	if cluster == "" {
		return false, fmt.Errorf("invalid flag: %s", tok)
	}
	for idx, c := range cluster {
		f := fs.ShorthandLookup(string(c))
		if f == nil {
			return false, fmt.Errorf("unknown shorthand flag: -%c", c)
		}
		if f.Value.Type() != "bool" {
			hasInlineValue := inline || idx < len(cluster)-1
			return !hasInlineValue, nil
		}
	}
	return false, nil
}
