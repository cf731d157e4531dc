package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	flags "github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"

	sender "github.com/itzg/zabbix-sender"
)

const (
	exitOK       = 0
	exitError    = 1
	exitRejected = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	opts, err := ParseOptions(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return exitOK
		}
		log.Errorf("Invalid options %s", err)
		return exitError
	}
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	s, err := sender.NewSender(sender.Config{
		Address:    opts.Server,
		Port:       opts.Port,
		Timeout:    opts.timeout(),
		Timestamps: opts.Timestamps,
		NsTiming:   opts.NsTiming,
		Hostname:   opts.Host,
	})
	if err != nil {
		log.Errorf("Invalid server settings %s", err)
		return exitError
	}

	b, err := buildBatch(s, opts, stdin)
	if err != nil {
		log.Errorf("Failed to read values %s", err)
		return exitError
	}
	log.Debugf("Sending %d values to %s", b.Len(), s.Endpoint())

	resp, err := b.Send(context.Background())
	if err != nil {
		log.Errorf("Send to %s failed %s", s.Endpoint(), err)
		return exitError
	}

	fmt.Fprintf(stdout, "Response from %q: %q\n", s.Endpoint(), resp.Info)
	if !resp.Success() {
		log.Debugf("Server answered %s", resp.Response)
		return exitRejected
	}
	return exitOK
}

func buildBatch(s *sender.Sender, opts *Options, stdin io.Reader) (*sender.Batch, error) {
	b := s.NewBatch()

	if opts.InputFile != "" {
		in := stdin
		if opts.InputFile != "-" {
			file, err := os.Open(opts.InputFile)
			if err != nil {
				return nil, err
			}
			defer file.Close()
			in = file
		}
		if err := ReadInput(in, b, opts.Timestamps, opts.NsTiming); err != nil {
			return nil, err
		}
	}

	if opts.Key != "" {
		value, err := strconv.ParseFloat(opts.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", opts.Value, err)
		}
		b.Add(opts.Key, value)
	}

	if b.Len() == 0 {
		return nil, errors.New("nothing to send, use --key/--value or --input-file")
	}
	return b, nil
}
