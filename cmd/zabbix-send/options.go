package main

import (
	"io"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	ConfigFilePath string  `long:"config" short:"c" yaml:"-" description:"Path to a YAML configuration file"`
	Server         string  `long:"server" short:"z" yaml:"server" description:"Hostname or IP address of the Zabbix server or proxy"`
	Port           int     `long:"port" short:"p" yaml:"port" description:"Trapper port of the server (default 10051)"`
	Timeout        float64 `long:"timeout" short:"t" yaml:"timeout" description:"Seconds to wait for the server (default 5)"`
	Host           string  `long:"host" short:"s" yaml:"host" description:"Host name the values belong to (default: local host name)"`
	Key            string  `long:"key" short:"k" yaml:"-" description:"Item key"`
	Value          string  `long:"value" short:"o" yaml:"-" description:"Item value"`
	Timestamps     bool    `long:"with-timestamps" short:"T" yaml:"timestamps" description:"Each input line carries a clock before the value"`
	NsTiming       bool    `long:"with-ns" short:"N" yaml:"ns" description:"Each input line carries a clock and ns before the value"`
	InputFile      string  `long:"input-file" short:"i" yaml:"-" description:"Load values from a file, - for stdin"`
	Verbose        bool    `long:"verbose" short:"v" yaml:"-" description:"Log debug messages"`
}

// LoadYAMLConfig fills cfg from a YAML document. Only the connection settings are read.
func LoadYAMLConfig(reader io.Reader, cfg *Options) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// ParseOptions reads the command line and lets it override the config file, if any.
func ParseOptions(args []string) (*Options, error) {
	opts := &Options{}
	if _, err := flags.ParseArgs(opts, args); err != nil {
		return nil, err
	}
	if opts.ConfigFilePath == "" {
		return opts, nil
	}

	file, err := os.Open(opts.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	fileOpts := &Options{}
	if err := LoadYAMLConfig(file, fileOpts); err != nil {
		return nil, err
	}
	opts.merge(fileOpts)
	return opts, nil
}

// merge copies connection settings from other where the command line left them unset.
func (o *Options) merge(other *Options) {
	if o.Server == "" {
		o.Server = other.Server
	}
	if o.Port == 0 {
		o.Port = other.Port
	}
	if o.Timeout == 0 {
		o.Timeout = other.Timeout
	}
	if o.Host == "" {
		o.Host = other.Host
	}
	o.Timestamps = o.Timestamps || other.Timestamps
	o.NsTiming = o.NsTiming || other.NsTiming
}

func (o *Options) timeout() time.Duration {
	return time.Duration(o.Timeout * float64(time.Second))
}
