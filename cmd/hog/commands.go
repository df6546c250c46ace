package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	"github.com/funvibe/hog/internal/backend"
	"github.com/funvibe/hog/internal/config"
	"github.com/funvibe/hog/internal/object"
	"github.com/funvibe/hog/internal/pipeline"
	"github.com/funvibe/hog/internal/stl"
	"github.com/funvibe/hog/internal/team"
	"github.com/funvibe/hog/internal/vm"
)

type command struct {
	name   string
	path   string
	opts   *options
	cfg    *config.Config
	log    *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	color  bool
}

func (c *command) run() error {
	source, err := c.read()
	if err != nil {
		return err
	}
	out := c.stdout
	if c.opts.write && c.name == "compile" && c.path != "-" {
		c.opts.output = bytecodePath(c.path)
	}
	if c.opts.output != "" {
		f, err := os.Create(c.opts.output)
		if err != nil {
			return errors.Wrap(err, "creating output file")
		}
		defer f.Close()
		out = f
		c.color = false
	}

	switch c.name {
	case "compile":
		return c.compile(source, out)
	case "run":
		return c.execute(source, out, pipeline.BytecodeProcessor{})
	case "exec":
		return c.execute(source, out, pipeline.DecodeProcessor{})
	case "js":
		return c.translate(source, out)
	case "disasm":
		return c.disassemble(source, out)
	}
	return errors.Errorf("unknown command %q", c.name)
}

// bytecodePath maps a syntax tree file to its bytecode file.
func bytecodePath(path string) string {
	base := strings.TrimSuffix(path, config.SourceFileExt)
	if base == path {
		base = strings.TrimSuffix(path, filepath.Ext(path))
	}
	return base + config.BytecodeFileExt
}

func (c *command) read() ([]byte, error) {
	if c.path == "-" {
		data, err := io.ReadAll(c.stdin)
		return data, errors.Wrap(err, "reading standard input")
	}
	data, err := os.ReadFile(c.path)
	return data, errors.Wrapf(err, "reading %s", c.path)
}

func (c *command) newContext(source []byte) *pipeline.PipelineContext {
	ctx := pipeline.NewContext(context.Background(), source)
	if c.path != "-" {
		ctx.FilePath = c.path
	}
	ctx.SupportedFunctions = c.cfg.SupportedSet()
	return ctx
}

func (c *command) compile(source []byte, out io.Writer) error {
	ctx := pipeline.New(
		pipeline.DecodeProcessor{},
		backend.NewExecutionProcessor(backend.NewVM(backend.CompileOnly(), backend.WithLogger(c.log))),
	).Run(c.newContext(source))
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := ctx.Bytecode.MarshalJSON()
	if err != nil {
		return err
	}
	c.log.Debug("compiled",
		zap.String("file", ctx.FilePath),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
		zap.Int("tokens", len(ctx.Bytecode)))
	if c.color {
		data = pretty.Color(data, nil)
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

func (c *command) execute(source []byte, out io.Writer, load pipeline.Processor) error {
	ctx := c.newContext(source)
	fields, err := c.fields()
	if err != nil {
		return err
	}
	teamCtx, closeTeam, err := c.team()
	if err != nil {
		return err
	}
	defer closeTeam()
	ctx.Exec = vm.Options{
		Fields:       fields,
		Team:         teamCtx,
		Timeout:      c.cfg.Timeout,
		MaxCallDepth: c.cfg.MaxCallDepth,
		Stdout:       out,
	}

	ctx = pipeline.New(load, backend.NewExecutionProcessor(backend.NewVM(backend.WithLogger(c.log)))).Run(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	res := ctx.Result
	c.log.Debug("executed",
		zap.String("ops", humanize.Comma(int64(res.Ops))),
		zap.Duration("duration", res.Duration))
	_, err = io.WriteString(out, res.Value.Inspect()+"\n")
	return err
}

func (c *command) translate(source []byte, out io.Writer) error {
	ctx := pipeline.New(
		pipeline.DecodeProcessor{},
		backend.NewExecutionProcessor(backend.NewJS(nil)),
	).Run(c.newContext(source))
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(out, ctx.JS+"\n")
	return err
}

// disassemble accepts bytecode or a syntax tree; a JSON array is bytecode.
func (c *command) disassemble(source []byte, out io.Writer) error {
	load := pipeline.Processor(pipeline.DecodeProcessor{})
	if gjson.ParseBytes(source).IsArray() {
		load = pipeline.BytecodeProcessor{}
	}
	ctx := pipeline.New(load).Run(c.newContext(source))
	if err := ctx.Err(); err != nil {
		return err
	}
	text, err := backend.NewVM(backend.WithLogger(c.log)).Disassemble(ctx)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, text)
	return err
}

// fields builds the globals from --fields and then applies every --set.
func (c *command) fields() (map[string]any, error) {
	doc := []byte("{}")
	switch arg := c.opts.fields; {
	case strings.HasPrefix(arg, "@"):
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, errors.Wrap(err, "reading fields")
		}
		doc = data
	case arg != "":
		doc = []byte(arg)
	}
	if !gjson.ValidBytes(doc) || !gjson.ParseBytes(doc).IsObject() {
		return nil, errors.New("fields must be a JSON object")
	}

	for _, assignment := range c.opts.set {
		path, value, ok := strings.Cut(assignment, "=")
		if !ok || path == "" {
			return nil, errors.Errorf("--set %q: expected path=value", assignment)
		}
		var err error
		if gjson.Valid(value) {
			doc, err = sjson.SetRawBytes(doc, path, []byte(value))
		} else {
			doc, err = sjson.SetBytes(doc, path, value)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "--set %q", assignment)
		}
	}

	parsed, err := stl.ParseJSON(string(doc))
	if err != nil {
		return nil, errors.Wrap(err, "decoding fields")
	}
	dict, ok := parsed.(*object.Dict)
	if !ok {
		return nil, errors.New("fields must be a JSON object")
	}
	fields := make(map[string]any, dict.Len())
	dict.Each(func(k, v object.Object) bool {
		fields[object.Print(k)] = v
		return true
	})
	return fields, nil
}

func (c *command) team() (stl.Team, func(), error) {
	if c.cfg.TeamDB == "" {
		return team.Static(c.cfg.TeamID), func() {}, nil
	}
	db, err := team.OpenSQLite(c.cfg.TeamDB, c.cfg.TeamID, c.log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}
