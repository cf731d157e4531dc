package sender_test

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"net"

	sender "github.com/itzg/zabbix-sender"
)

type ExampleServer struct {
	listener net.Listener
}

func NewExampleServer() *ExampleServer {
	listener, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		log.Fatal(err)
	}
	e := &ExampleServer{listener: listener}
	go e.listen()
	return e
}

func (e *ExampleServer) Port() int {
	return e.listener.Addr().(*net.TCPAddr).Port
}

func (e *ExampleServer) listen() {
	conn, err := e.listener.Accept()
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	header := make([]byte, 13)
	if _, err := io.ReadFull(conn, header); err != nil {
		log.Fatal(err)
	}
	payload := make([]byte, binary.LittleEndian.Uint32(header[5:9]))
	if _, err := io.ReadFull(conn, payload); err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(payload))

	conn.Write(sender.EncodeFrame([]byte(`{"response":"success","info":"processed: 2; failed: 0; total: 2; seconds spent: 0.000041"}`)))
}

func Example_sending() {
	server := NewExampleServer()

	s, _ := sender.NewSender(sender.Config{
		Address:  "127.0.0.1",
		Port:     server.Port(),
		Hostname: "web-01",
	})

	resp, err := s.NewBatch().
		Add("cpu.load", 0.42).
		AddArgs("disk.free", 500, "host-42").
		Send(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Response, resp.Info)

	//Output:
	//{"request":"sender data","data":[{"host":"web-01","key":"cpu.load","value":0.42},{"host":"host-42","key":"disk.free","value":500}]}
	//success processed: 2; failed: 0; total: 2; seconds spent: 0.000041
}
