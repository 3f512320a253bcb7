package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/calculator/internal/batch"
	"github.com/karupanerura/calculator/internal/expression"
	"github.com/karupanerura/calculator/internal/server"
	"github.com/karupanerura/calculator/internal/types"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Option struct {
	Expr        string `short:"e" long:"expr" description:"Expression to evaluate, e.g. \"(4+5)*2\""`
	Tokens      string `short:"t" long:"tokens" description:"Token list to evaluate (JSON)"`
	File        string `short:"f" long:"file" description:"Batch file to evaluate (.yaml or .json)"`
	Listen      string `short:"l" long:"listen" description:"Listen host and port to serve the evaluation API"`
	Tree        bool   `long:"tree" description:"Include the expression tree in the output"`
	Debug       bool   `long:"debug" description:"Trace parsing to the log"`
	Parallelism int    `long:"parallelism" description:"Concurrent evaluations for batch files (overrides the file options)"`

	LogFile       string `long:"log-file" description:"Write logs to a rotated file instead of stderr"`
	LogMaxSize    int    `long:"log-max-size" default:"100" description:"Megabytes of a log file before it is rotated"`
	LogMaxBackups int    `long:"log-max-backups" default:"3" description:"Rotated log files to keep"`
}

func (opt *Option) modes() int {
	n := 0
	for _, set := range []bool{opt.Expr != "", opt.Tokens != "", opt.File != "", opt.Listen != ""} {
		if set {
			n++
		}
	}
	return n
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(stdout)
			return 1
		}
	}
	if opt.modes() != 1 {
		parser.WriteHelp(stdout)
		return 1
	}

	if opt.LogFile != "" {
		logger := &lumberjack.Logger{
			Filename:   opt.LogFile,
			MaxSize:    opt.LogMaxSize,
			MaxBackups: opt.LogMaxBackups,
		}
		defer logger.Close()
		log.SetOutput(logger)
		defer log.SetOutput(os.Stderr)
	}

	ev := &expression.Evaluator{Debug: opt.Debug}

	// server mode
	if opt.Listen != "" {
		if err := serve(opt.Listen, server.NewHTTPHandler(ev)); err != nil {
			log.Printf("failed to serve: %v", err)
			return 1
		}
		return 0
	}

	// batch mode
	if opt.File != "" {
		return runBatch(&opt, stdout)
	}

	var ret *expression.Result
	if opt.Tokens != "" {
		var tokens []expression.Token
		if err := json.Unmarshal([]byte(opt.Tokens), &tokens); err != nil {
			log.Printf("failed to parse tokens as JSON: %v", err)
			return 1
		}
		ret, err = ev.Evaluate(tokens)
	} else {
		ret, err = ev.EvaluateString(opt.Expr)
	}
	if err != nil {
		var exception types.Exception
		if errors.As(err, &exception) {
			if _, err = fmt.Fprintln(stderr, exception.Error()); err != nil {
				log.Printf("failed to dump error: %v", err)
			}
			if err = dumpJSON(stderr, exception.Exception()); err != nil {
				log.Printf("failed to dump error as JSON: %v", err)
			}
		} else {
			log.Printf("failed to evaluate: %v", err)
		}
		return 1
	}

	if !opt.Tree {
		ret.Tree = ""
	}
	if err = dumpJSON(stdout, ret); err != nil {
		log.Printf("failed to dump result: %v", err)
		return 1
	}
	return 0
}

func runBatch(opt *Option, stdout io.Writer) int {
	b, err := loadBatch(opt.File)
	if err != nil {
		log.Printf("failed to load batch: %v", err)
		return 1
	}
	if opt.Parallelism > 0 {
		b.Options.Parallelism = opt.Parallelism
	}
	if opt.Debug {
		b.Options.Debug = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	outcomes, err := b.Run(ctx)
	if err != nil {
		log.Printf("failed to run batch: %v", err)
		return 1
	}

	status := 0
	for _, o := range outcomes {
		if o.Failed() {
			status = 1
		}
		if o.Result != nil && !opt.Tree {
			o.Result.Tree = ""
		}
	}
	if err := dumpJSON(stdout, map[string][]*batch.Outcome{"outcomes": outcomes}); err != nil {
		log.Printf("failed to dump outcomes: %v", err)
		return 1
	}
	return status
}

func loadBatch(filePath string) (*batch.Batch, error) {
	var parseBatch func(io.Reader) (*batch.Batch, error)
	switch filepath.Ext(filePath) {
	case ".json":
		parseBatch = batch.ParseBatchJSON
	case ".yaml", ".yml":
		parseBatch = batch.ParseBatchYAML
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	b, err := parseBatch(f)
	if err != nil {
		return nil, fmt.Errorf("batch.ParseBatch: %w", err)
	}
	return b, nil
}

func serve(listen string, handler http.Handler) error {
	srv := http.Server{
		Handler: handler,
		Addr:    listen,
	}

	log.Printf("Listen HTTP on %s", listen)
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if isatty.IsTerminal(f.Fd()) {
			opts = append(opts, json.Colorize(json.DefaultColorScheme))
		}
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
