package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/pycall"
	"github.com/wippyai/pycall/frame"
	"github.com/wippyai/pycall/runtime"
)

func main() {
	var (
		funcName    = flag.String("func", "", "Function to call")
		argsStr     = flag.String("args", "", "Positional arguments (comma-separated, ints or strings)")
		kwStr       = flag.String("kw", "", "Keyword arguments (name=value,name2=value2)")
		list        = flag.Bool("list", false, "List registered functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		frame.SetLogger(logger.Named("frame"))
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !*list && *funcName == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -func <name> [-args a,b,c] [-kw k=v,...]")
		fmt.Fprintln(os.Stderr, "       run -list")
		fmt.Fprintln(os.Stderr, "       run -i  (interactive mode)")
		os.Exit(1)
	}

	if err := run(*funcName, *argsStr, *kwStr, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(funcName, argsStr, kwStr string, listOnly bool) error {
	rt, funcs, err := setupRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if listOnly {
		for _, f := range funcs {
			conv := "generic"
			if f.fastcall {
				conv = "fastcall"
			}
			fmt.Printf("  %-10s %-9s %s\n", f.name, conv, f.desc)
		}
		return nil
	}

	var target *demoFunc
	for i := range funcs {
		if funcs[i].name == funcName {
			target = &funcs[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown function %q (try -list)", funcName)
	}

	args := parseArgs(argsStr)
	kw := parseKwargs(kwStr)

	res, err := frame.Call(rt, target.handle, args, kw)
	if err != nil {
		return err
	}
	defer rt.DecRef(res)

	out, err := formatResult(rt, res)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// parseArgs turns "1,2,hello" into a positional source, converting numeric
// tokens to ints and everything else to strings.
func parseArgs(s string) frame.Args {
	if s == "" {
		return frame.Empty()
	}
	parts := strings.Split(s, ",")
	vals := make([]frame.Value, 0, len(parts))
	for _, p := range parts {
		vals = append(vals, parseValue(strings.TrimSpace(p)))
	}
	return frame.Positional(vals...)
}

// parseKwargs turns "a=1,b=x" into a keyword source.
func parseKwargs(s string) frame.Kwargs {
	if s == "" {
		return frame.NoKwargs()
	}
	parts := strings.Split(s, ",")
	pairs := make([]frame.Pair[string], 0, len(parts))
	for _, p := range parts {
		name, value, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok {
			continue
		}
		pairs = append(pairs, frame.Pair[string]{Name: name, Value: value})
	}
	return frame.KwargsPairs(convertToken, pairs)
}

func parseValue(tok string) frame.Value {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return frame.Val(runtime.FromInt, n)
	}
	return frame.Val(runtime.FromString, tok)
}

// convertToken is a Converter for raw string tokens: numeric ones become
// ints.
func convertToken(rt pycall.Runtime, tok string) (pycall.Handle, error) {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return runtime.FromInt(rt, n)
	}
	return rt.NewString(tok)
}

// formatResult renders a result handle for display.
func formatResult(rt *runtime.Local, h pycall.Handle) (string, error) {
	if h == 0 {
		return "<none>", nil
	}
	if v, err := rt.IntValue(h); err == nil {
		return strconv.FormatInt(v, 10), nil
	}
	if s, err := rt.StringValue(h); err == nil {
		return strconv.Quote(s), nil
	}
	if elems, ok := rt.SequenceSlice(h); ok {
		parts := make([]string, len(elems))
		for i, e := range elems {
			p, err := formatResult(rt, e)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	}
	return fmt.Sprintf("<object %d>", h), nil
}
