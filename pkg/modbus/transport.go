package modbus

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"go.bug.st/serial"
)

const (
	TransportTCP    = "tcp"
	TransportSerial = "serial"
)

// Config describes how to reach one device's controller.
// It is comparable so the pool can detect descriptor changes.
type Config struct {
	Transport string

	Host string
	Port int

	SerialPort string
	BaudRate   int
	DataBits   int
	StopBits   int
	Parity     string

	Timeout time.Duration
}

func (c Config) String() string {
	if c.Transport == TransportSerial {
		return fmt.Sprintf("serial://%s?baud=%d&data=%d&parity=%s&stop=%d", c.SerialPort, c.BaudRate, c.DataBits, c.Parity, c.StopBits)
	}
	return "tcp://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type transport interface {
	send(ctx context.Context, unitID byte, pdu []byte) ([]byte, error)
	Close() error
}

type dialFunc func(ctx context.Context, cfg Config) (transport, error)

func dial(ctx context.Context, cfg Config) (transport, error) {
	switch cfg.Transport {
	case TransportTCP:
		return dialTCP(ctx, cfg)
	case TransportSerial:
		return openSerial(cfg)
	default:
		return nil, fmt.Errorf("modbus: unknown transport %q", cfg.Transport)
	}
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

type tcpTransport struct {
	conn    net.Conn
	timeout time.Duration
	txID    uint16
}

func dialTCP(ctx context.Context, cfg Config) (transport, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, classify("dial", err)
	}
	return &tcpTransport{conn: conn, timeout: cfg.Timeout}, nil
}

func (t *tcpTransport) send(ctx context.Context, unitID byte, pdu []byte) ([]byte, error) {
	t.txID++
	if err := t.conn.SetDeadline(deadline(ctx, t.timeout)); err != nil {
		return nil, classify("write", err)
	}
	if _, err := t.conn.Write(encodeMBAP(t.txID, unitID, pdu)); err != nil {
		return nil, classify("write", err)
	}

	header := make([]byte, mbapHeaderLen)
	if _, err := io.ReadFull(t.conn, header); err != nil {
		return nil, classify("read", err)
	}
	if txID := binary.BigEndian.Uint16(header[0:]); txID != t.txID {
		return nil, protocolError("read", "transaction id %d, expected %d", txID, t.txID)
	}
	if proto := binary.BigEndian.Uint16(header[2:]); proto != 0 {
		return nil, protocolError("read", "protocol id %d", proto)
	}
	length := int(binary.BigEndian.Uint16(header[4:]))
	if length < 2 || length > 254 {
		return nil, protocolError("read", "length field %d out of range", length)
	}
	if header[6] != unitID {
		return nil, protocolError("read", "unit id %d, expected %d", header[6], unitID)
	}

	body := make([]byte, length-1)
	if _, err := io.ReadFull(t.conn, body); err != nil {
		return nil, classify("read", err)
	}
	return body, nil
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

// rtuTransport frames PDUs for a serial line. port is a serial.Port in
// production and a net.Conn in tests.
type rtuTransport struct {
	port    io.ReadWriteCloser
	timeout time.Duration
}

func openSerial(cfg Config) (transport, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   parityOf(cfg.Parity),
		StopBits: stopBitsOf(cfg.StopBits),
	}
	port, err := serial.Open(cfg.SerialPort, mode)
	if err != nil {
		return nil, &TransportError{Kind: ErrConnectionRefused, Op: "open", Err: err}
	}
	return &rtuTransport{port: port, timeout: cfg.Timeout}, nil
}

func parityOf(p string) serial.Parity {
	switch p {
	case "even":
		return serial.EvenParity
	case "odd":
		return serial.OddParity
	case "mark":
		return serial.MarkParity
	case "space":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

func stopBitsOf(s int) serial.StopBits {
	if s == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

// serial ports report an expired read timeout as (0, nil), which would make io.ReadFull spin
type timeoutReader struct {
	r io.Reader
}

func (tr timeoutReader) Read(p []byte) (int, error) {
	n, err := tr.r.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (t *rtuTransport) armTimeout(ctx context.Context) error {
	switch p := t.port.(type) {
	case interface{ SetReadTimeout(time.Duration) error }:
		return p.SetReadTimeout(time.Until(deadline(ctx, t.timeout)))
	case interface{ SetDeadline(time.Time) error }:
		return p.SetDeadline(deadline(ctx, t.timeout))
	}
	return nil
}

func (t *rtuTransport) send(ctx context.Context, unitID byte, pdu []byte) ([]byte, error) {
	if flusher, ok := t.port.(interface{ ResetInputBuffer() error }); ok {
		_ = flusher.ResetInputBuffer()
	}
	if err := t.armTimeout(ctx); err != nil {
		return nil, classify("write", err)
	}
	if _, err := t.port.Write(encodeRTU(unitID, pdu)); err != nil {
		return nil, classify("write", err)
	}

	r := timeoutReader{r: t.port}
	// unit, function, then byte count or exception code
	head := make([]byte, 3)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, classify("read", err)
	}
	rest := 2
	if head[1]&0x80 == 0 {
		rest = int(head[2]) + 2
	}
	frame := make([]byte, 3+rest)
	copy(frame, head)
	if _, err := io.ReadFull(r, frame[3:]); err != nil {
		return nil, classify("read", err)
	}

	n := len(frame)
	if got, want := uint16(frame[n-2])|uint16(frame[n-1])<<8, crc16(frame[:n-2]); got != want {
		return nil, protocolError("read", "crc 0x%04x, expected 0x%04x", got, want)
	}
	if frame[0] != unitID {
		return nil, protocolError("read", "unit id %d, expected %d", frame[0], unitID)
	}
	return frame[1 : n-2], nil
}

func (t *rtuTransport) Close() error {
	return t.port.Close()
}
