package main

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sender "github.com/itzg/zabbix-sender"
)

func newBatch(t *testing.T, config sender.Config) *sender.Batch {
	t.Helper()
	config.Address = "127.0.0.1"
	config.Hostname = "default-host"
	s, err := sender.NewSender(config)
	require.NoError(t, err)
	return s.NewBatch()
}

func TestReadInput(t *testing.T) {
	b := newBatch(t, sender.Config{})

	err := ReadInput(strings.NewReader(`
- cpu.load 0.42
"web 01" "disk.free[/]" 500
`), b, false, false)
	require.NoError(t, err)

	assert.Equal(t, []sender.Item{
		{Host: "default-host", Key: "cpu.load", Value: 0.42},
		{Host: "web 01", Key: "disk.free[/]", Value: 500},
	}, b.Items())
}

func TestReadInput_WithNs(t *testing.T) {
	b := newBatch(t, sender.Config{NsTiming: true})

	err := ReadInput(strings.NewReader("web-01 mem.used 1700000000 15 1024\n"), b, true, true)
	require.NoError(t, err)

	require.Equal(t, 1, b.Len())
	item := b.Items()[0]
	assert.Equal(t, 1700000000.0, *item.Clock)
	assert.Equal(t, int64(15), *item.NS)
	assert.Equal(t, 1024.0, item.Value)
}

func TestReadInput_Errors(t *testing.T) {
	for _, input := range []string{
		"host key",
		"host key abc",
		`"host key 1`,
	} {
		err := ReadInput(strings.NewReader(input), newBatch(t, sender.Config{}), false, false)
		assert.Error(t, err, input)
	}

	err := ReadInput(strings.NewReader("host key x 1"), newBatch(t, sender.Config{Timestamps: true}), true, false)
	assert.Error(t, err)
}

func TestParseOptions_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sender.yml")
	require.NoError(t, os.WriteFile(path, []byte("server: zabbix.example.com\nport: 10052\ntimeout: 1.5\nhost: from-file\n"), 0o600))

	opts, err := ParseOptions([]string{"-c", path, "-s", "from-flags", "-k", "k", "-o", "1"})
	require.NoError(t, err)

	assert.Equal(t, "zabbix.example.com", opts.Server)
	assert.Equal(t, 10052, opts.Port)
	assert.Equal(t, "from-flags", opts.Host)
	assert.Equal(t, int64(1500), opts.timeout().Milliseconds())
	assert.Equal(t, "k", opts.Key)
}

func TestRun(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:")
	require.NoError(t, err)
	defer listener.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		header := make([]byte, 13)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		payload := make([]byte, binary.LittleEndian.Uint32(header[5:9]))
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		received <- payload
		conn.Write(sender.EncodeFrame([]byte(`{"response":"success","info":"processed: 2; failed: 0; total: 2"}`)))
	}()

	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	var out strings.Builder
	code := run([]string{"-z", "127.0.0.1", "-p", port, "-s", "web-01", "-i", "-", "-k", "cpu.load", "-o", "0.5"},
		strings.NewReader("- mem.used 1024\n"), &out)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, out.String(), "processed: 2; failed: 0; total: 2")

	var req struct {
		Data []sender.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(<-received, &req))
	assert.Equal(t, []sender.Item{
		{Host: "web-01", Key: "mem.used", Value: 1024},
		{Host: "web-01", Key: "cpu.load", Value: 0.5},
	}, req.Data)
}

func TestRun_NothingToSend(t *testing.T) {
	assert.Equal(t, exitError, run([]string{"-z", "127.0.0.1"}, strings.NewReader(""), io.Discard))
}
