// Command hog compiles, runs and translates Hog programs given as the
// parser's JSON syntax tree.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/hog/internal/config"
)

var version = "dev"

const usage = `Usage: hog [flags] <command> <file>

Commands:
  compile   compile a JSON syntax tree to bytecode
  run       execute a bytecode file
  exec      compile and execute a JSON syntax tree
  js        translate a JSON syntax tree to JavaScript
  disasm    list bytecode, compiling a syntax tree first if needed

Use - as the file to read standard input.

Flags:
`

type options struct {
	configPath string
	timeout    time.Duration
	fields     string
	set        []string
	functions  []string
	teamDB     string
	teamID     int64
	verbose    bool
	noColor    bool
	output     string
	write      bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	var showHelp, showVersion bool

	fs := flag.NewFlagSet("hog", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "Path to a hog.yaml configuration file")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Execution time limit, overrides the configuration")
	fs.StringVar(&opts.fields, "fields", "", "Globals as a JSON object, or @file to read them from a file")
	fs.StringArrayVar(&opts.set, "set", nil, "Set one global as path=value, e.g. event.properties.plan=\"pro\" (repeatable)")
	fs.StringSliceVar(&opts.functions, "functions", nil, "Comma-separated host functions scripts may call")
	fs.StringVar(&opts.teamDB, "team-db", "", "SQLite database answering run() queries")
	fs.Int64Var(&opts.teamID, "team-id", 0, "Team the queries run for")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log compilation and execution details")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	fs.StringVarP(&opts.output, "output", "o", "", "Write the command output to a file instead of standard output")
	fs.BoolVarP(&opts.write, "write", "w", false, "compile: write bytecode next to the source file as <name>"+config.BytecodeFileExt)
	fs.BoolVarP(&showHelp, "help", "h", false, "Print usage information (this message) and quit")
	fs.BoolVarP(&showVersion, "version", "v", false, "Print version information and quit")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if showHelp {
		fs.Usage()
		return 0
	}
	if showVersion {
		fmt.Fprintf(stdout, "hog %s\n", version)
		return 0
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(&opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := newLogger(cfg, opts.verbose, stderr)
	defer logger.Sync()

	color := !opts.noColor && isTerminal(stdout)
	cmd := &command{
		name:   fs.Arg(0),
		path:   fs.Arg(1),
		opts:   &opts,
		cfg:    cfg,
		log:    logger,
		stdin:  stdin,
		stdout: stdout,
		color:  color,
	}
	if err := cmd.run(); err != nil {
		logger.Debug("command failed", zap.String("command", cmd.name), zap.Error(err))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}
	if opts.timeout < 0 {
		return nil, errors.Errorf("timeout must not be negative, got %s", opts.timeout)
	}
	if opts.timeout > 0 {
		cfg.Timeout = opts.timeout
	}
	if len(opts.functions) > 0 {
		cfg.SupportedFunctions = append(cfg.SupportedFunctions, opts.functions...)
	}
	if opts.teamDB != "" {
		cfg.TeamDB = opts.teamDB
	}
	if opts.teamID != 0 {
		cfg.TeamID = opts.teamID
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool, out io.Writer) *zap.Logger {
	al := zap.NewAtomicLevel()
	if err := al.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		al.SetLevel(zap.InfoLevel)
	}
	if verbose {
		al.SetLevel(zap.DebugLevel)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(zapcore.AddSync(out)), al))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
