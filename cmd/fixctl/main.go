package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/danmuck/fixwire/internal/config"
	"github.com/danmuck/fixwire/internal/logging"
	"github.com/danmuck/fixwire/internal/observability"
	"github.com/danmuck/fixwire/internal/protocol/fix"
	"github.com/danmuck/fixwire/internal/protocol/frame"
	"github.com/danmuck/fixwire/internal/server"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

const usage = `usage: fixctl <command> [flags] [file]

commands:
  dump    print every field of every message
  get     print one tag of every message
  check   report malformed messages
  serve   run the HTTP parse service
  config  write a server config template
`

// errMalformedInput makes check exit non-zero without an extra log line.
var errMalformedInput = errors.New("malformed messages found")

func main() {
	logging.ConfigureRuntime()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "dump":
		err = runDump(args[1:], stdin, stdout)
	case "get":
		err = runGet(args[1:], stdin, stdout)
	case "check":
		err = runCheck(args[1:], stdin, stdout)
	case "serve":
		err = runServe(args[1:])
	case "config":
		err = runConfig(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprint(stdout, usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 2
	case errors.Is(err, errMalformedInput):
		return 1
	default:
		log.Error().Err(err).Str("command", args[0]).Msg("fixctl failed")
		return 1
	}
}

// inputFlags are the flags shared by commands that read messages.
type inputFlags struct {
	config  *string
	delim   *string
	mode    *string
	color   *string
	maxSize *int
}

func bindInputFlags(fs *flag.FlagSet) inputFlags {
	return inputFlags{
		config:  fs.String("config", "", "fixctl config file"),
		delim:   fs.String("delim", "", "field delimiter: soh|pipe|<char>"),
		mode:    fs.String("mode", "", "framing: lines|trailer"),
		color:   fs.String("color", "", "color output: auto|always|never"),
		maxSize: fs.Int("max-bytes", 0, "maximum message size in bytes"),
	}
}

func (f inputFlags) resolve() (options, error) {
	opts := defaultOptions()
	if *f.config != "" {
		loaded, err := loadOptions(*f.config)
		if err != nil {
			return options{}, err
		}
		opts = loaded
	}
	if *f.delim != "" {
		d, err := config.ParseDelimiter(*f.delim)
		if err != nil {
			return options{}, err
		}
		opts.Delimiter = d
	}
	if *f.mode != "" {
		m, err := frame.ParseMode(*f.mode)
		if err != nil {
			return options{}, err
		}
		opts.Mode = m
	}
	if *f.color != "" {
		c, err := parseColorMode(*f.color)
		if err != nil {
			return options{}, err
		}
		opts.Color = c
	}
	if *f.maxSize > 0 {
		opts.Limits.MaxMessageBytes = *f.maxSize
	}
	return opts, nil
}

// eachMessage frames the input and calls fn with the message number and
// the parse result for each message.
func eachMessage(path string, stdin io.Reader, opts options, fn func(n int, idx *fix.Index, err error) error) error {
	in := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	scanner := fix.Scanner{Delimiter: opts.Delimiter}
	reader := frame.NewReader(in, opts.Mode, opts.Delimiter, opts.Limits)
	for n := 1; ; n++ {
		msg, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("message %d: %w", n, err)
		}
		idx, err := scanner.ParseIndex(msg)
		if err := fn(n, idx, err); err != nil {
			return err
		}
	}
}

type printer struct {
	out  io.Writer
	tag  *color.Color
	name *color.Color
	fail *color.Color
}

func newPrinter(out io.Writer, mode colorMode) printer {
	p := printer{
		out:  out,
		tag:  color.New(color.FgCyan, color.Bold),
		name: color.New(color.Faint),
		fail: color.New(color.FgRed),
	}
	enabled := mode == colorAlways
	if mode == colorAuto {
		if f, ok := out.(*os.File); ok {
			enabled = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	for _, c := range []*color.Color{p.tag, p.name, p.fail} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p printer) field(f fix.Field, src []byte) {
	tag := p.tag.Sprint(strconv.Itoa(f.Tag))
	if name := fix.TagName(f.Tag); name != "" {
		fmt.Fprintf(p.out, "  %s %s = %s\n", tag, p.name.Sprintf("(%s)", name), f.Value(src))
		return
	}
	fmt.Fprintf(p.out, "  %s = %s\n", tag, f.Value(src))
}

func (p printer) failure(n int, err error) {
	fmt.Fprintf(p.out, "message %d: %s\n", n, p.fail.Sprint(err.Error()))
}

func runDump(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	in := bindInputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts, err := in.resolve()
	if err != nil {
		return err
	}

	p := newPrinter(stdout, opts.Color)
	return eachMessage(fs.Arg(0), stdin, opts, func(n int, idx *fix.Index, err error) error {
		if err != nil {
			p.failure(n, err)
			return nil
		}
		fmt.Fprintf(stdout, "message %d (%d fields)\n", n, idx.Len())
		src := idx.Source()
		idx.Each(func(f fix.Field) bool {
			p.field(f, src)
			return true
		})
		return nil
	})
}

func runGet(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	in := bindInputFlags(fs)
	tag := fs.Int("tag", -1, "tag to print")
	all := fs.Bool("all", false, "print every occurrence of a repeated tag")
	first := fs.Bool("first", false, "print the first occurrence instead of the last")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tag < 0 {
		return fmt.Errorf("get: -tag is required")
	}
	opts, err := in.resolve()
	if err != nil {
		return err
	}

	p := newPrinter(stdout, opts.Color)
	return eachMessage(fs.Arg(0), stdin, opts, func(n int, idx *fix.Index, err error) error {
		if err != nil {
			p.failure(n, err)
			return nil
		}
		switch {
		case *all:
			for _, v := range idx.GetAll(*tag) {
				fmt.Fprintf(stdout, "%d\t%s\n", n, v)
			}
		case *first:
			if v, ok := idx.First(*tag); ok {
				fmt.Fprintf(stdout, "%d\t%s\n", n, v)
			}
		default:
			if v, ok := idx.View(*tag); ok {
				fmt.Fprintf(stdout, "%d\t%s\n", n, v)
			}
		}
		return nil
	})
}

func runCheck(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	in := bindInputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts, err := in.resolve()
	if err != nil {
		return err
	}

	p := newPrinter(stdout, opts.Color)
	var total, bad int
	err = eachMessage(fs.Arg(0), stdin, opts, func(n int, _ *fix.Index, err error) error {
		total++
		if err != nil {
			bad++
			p.failure(n, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d messages, %d malformed\n", total, bad)
	if bad > 0 {
		return errMalformedInput
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	cliConfig := fs.String("config", "", "fixctl config file (server_config key)")
	serverConfig := fs.String("server-config", "", "server config file")
	addr := fs.String("addr", "", "listen address override")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *serverConfig
	if path == "" && *cliConfig != "" {
		opts, err := loadOptions(*cliConfig)
		if err != nil {
			return err
		}
		path = opts.ServerConfig
	}

	cfg := config.DefaultServerConfig()
	if path != "" {
		loaded, err := config.LoadServerConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Info().Str("path", path).Msg("loaded server config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	observability.InitLogger(cfg.Name)
	return server.New(cfg).Serve()
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	output := fs.String("output", "fixwire.toml", "output path for the server config template")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	log.Info().Str("path", *output).Msg("wrote server config template")
	return nil
}
