/*

Package sender provides a client for the Zabbix sender protocol: named numeric values are collected
into a batch, framed with the "ZBXD\x01" header and shipped over a single TCP exchange, after which
the server's JSON acknowledgement is returned.

A Sender holds the immutable connection settings and is safe to share. Each Batch is single-use:
once sent successfully it is closed and any further Add or Send reports ErrAlreadySent.

A buffered Client is also provided for callers that want items flushed by size and/or timeout,
and Influx line protocol metrics (protocol.Metric) can be added directly to a batch.

Example

The following sends two values attributed to the host "web-01":

	s, err := sender.NewSender(sender.Config{Address: "zabbix.example.com"})

	resp, err := s.NewBatch().
		Add("cpu.load", 0.42, sender.WithHost("web-01")).
		Add("mem.used", 1024, sender.WithHost("web-01")).
		Send(context.Background())

	fmt.Println(resp.Info)

*/
package sender
