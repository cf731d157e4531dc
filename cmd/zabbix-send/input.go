package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	sender "github.com/itzg/zabbix-sender"
)

// defaultHost in the host column selects the sender's host name.
const defaultHost = "-"

// ReadInput adds one item per non-empty line of r. Lines are
//
//	<host> <key> <value>
//
// with a <clock> before the value when timestamps are enabled, and a <clock> <ns>
// pair when nanosecond timing is enabled. Fields may be double quoted.
func ReadInput(r io.Reader, b *sender.Batch, timestamps, nsTiming bool) error {
	want := 3
	if nsTiming {
		want = 5
	} else if timestamps {
		want = 4
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields, err := splitFields(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if len(fields) != want {
			return fmt.Errorf("line %d: expected %d fields, got %d", lineNo, want, len(fields))
		}

		value, err := strconv.ParseFloat(fields[want-1], 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid value: %w", lineNo, err)
		}

		var opts []sender.EntryOption
		if fields[0] != defaultHost {
			opts = append(opts, sender.WithHost(fields[0]))
		}
		if want > 3 {
			clock, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return fmt.Errorf("line %d: invalid clock: %w", lineNo, err)
			}
			opts = append(opts, sender.WithClock(clock))
		}
		if want > 4 {
			ns, err := strconv.ParseInt(fields[3], 10, 64)
			if err != nil {
				return fmt.Errorf("line %d: invalid ns: %w", lineNo, err)
			}
			opts = append(opts, sender.WithNS(ns))
		}

		b.Add(fields[1], value, opts...)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return b.Err()
}

func splitFields(line string) ([]string, error) {
	var fields []string
	for {
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		if line == "" {
			return fields, nil
		}
		if line[0] != '"' {
			end := strings.IndexFunc(line, unicode.IsSpace)
			if end < 0 {
				end = len(line)
			}
			fields = append(fields, line[:end])
			line = line[end:]
			continue
		}
		quoted, err := strconv.QuotedPrefix(line)
		if err != nil {
			return nil, fmt.Errorf("unterminated quote")
		}
		field, err := strconv.Unquote(quoted)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		line = line[len(quoted):]
	}
}
