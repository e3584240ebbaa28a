package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ddrcode/charon/config"
)

type options struct {
	configFile string
	debug      bool
}

func parseOptions(args []string) (*options, error) {
	opts := &options{configFile: config.DefaultPath()}

	fs := flag.NewFlagSet("charon", flag.ContinueOnError)
	var parseOutput strings.Builder
	fs.SetOutput(&parseOutput)

	fs.StringVar(&opts.configFile, "config", opts.configFile, "Path to configuration file")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	fs.Usage = func() {
		printUsage(os.Stderr, fs)
	}

	if err := fs.Parse(args); err != nil {
		if parseOutput.Len() > 0 {
			fmt.Fprint(os.Stderr, parseOutput.String())
		}
		fs.Usage()
		return nil, err
	}

	if remaining := fs.Args(); len(remaining) > 0 {
		fmt.Fprintf(os.Stderr, "unknown arguments: %v\n", remaining)
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments")
	}

	return opts, nil
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, "Usage: %s [flags]\n\n", os.Args[0])
	fmt.Fprintln(w, "Flags:")
	original := fs.Output()
	fs.SetOutput(w)
	fs.PrintDefaults()
	fs.SetOutput(original)
}
