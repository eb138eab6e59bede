// Package seriallink provides a flow-controlled serial link on top of a
// pluggable transport.
//
// A Link keeps track of whether the peer is ready to receive. Under hardware
// flow control the ready state follows the CTS line; under software flow
// control it follows the XON and XOFF bytes found in received data. Every
// transition is published as an event, together with reads, writes, open and
// close, modem line changes and asynchronous transport errors.
//
// # Basic Usage
//
// Create a link over a transport and open it:
//
//	port := termios.New("/dev/ttyUSB0")
//	link, err := seriallink.New(port,
//	    seriallink.WithBaudRate(seriallink.Baud115200),
//	    seriallink.WithFlowControl(seriallink.FlowControlSoftware),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := link.Open(seriallink.ReadWrite); err != nil {
//	    log.Fatal(err)
//	}
//	defer link.Close()
//
// Transports are in the transport/ directory: termios drives Linux ttys
// through golang.org/x/sys/unix, bugst uses go.bug.st/serial, and loopback
// is an in-memory port for tests and demos.
//
// # Events
//
// Subscribe to be notified synchronously, in registration order:
//
//	cancel := link.Subscribe(func(ev seriallink.Event) {
//	    if ev.Kind == seriallink.EventReadyChanged {
//	        fmt.Println("ready:", ev.State)
//	    }
//	})
//	defer cancel()
//
// # Concurrency
//
// A Link is single threaded. Transport events are delivered on a channel and
// must be handed to HandleEvent on the goroutine that owns the link. Run does
// this, and runs functions sent on its calls channel in between:
//
//	calls := make(chan func(*seriallink.Link))
//	go link.Run(ctx, calls)
//	calls <- func(l *seriallink.Link) { l.Write([]byte("AT\r")) }
//
// # Reading
//
// With auto-read enabled (the default) every arrival is read right away and
// published as EventBytesRead; ReadBuffer returns the bytes. With auto-read
// disabled the link publishes EventDataAvailable and the host calls Read.
// XON and XOFF bytes are reported but left in the data.
//
// # Settings
//
// Setters validate the value, hand it to the transport and keep the previous
// value when the transport refuses it. The Parse functions turn user input
// into settings and fall back to 9600 8N1 without flow control for anything
// they do not recognize.
//
// # Error Handling
//
// Failures are returned as *LinkError and remembered by LastError. Use
// errors.Is with the sentinel errors:
//
//	if errors.Is(err, seriallink.ErrNotOpen) {
//	    // open the link first
//	}
//
// # Default Configuration
//
//   - BaudRate: 9600
//   - DataBits: 8
//   - StopBits: 1
//   - Parity: None
//   - FlowControl: None
//   - XON/XOFF: 0x11/0x13
//   - Read buffer: 1024 bytes
//   - Auto-read: enabled
package seriallink
