package modbus

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
)

type slaveMode int32

const (
	slaveOK slaveMode = iota
	slaveException
	slaveShort
	slaveHangUp
	slaveSilent
)

// fakeSlave is a Modbus TCP server answering register reads from a fixed table.
type fakeSlave struct {
	ln        net.Listener
	registers map[uint16]uint16
	mode      atomic.Int32
	accepted  atomic.Int32
	wg        sync.WaitGroup
}

func newFakeSlave(t *testing.T, registers map[uint16]uint16) *fakeSlave {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSlave{ln: ln, registers: registers}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(func() {
		_ = ln.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeSlave) config() Config {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return Config{Transport: TransportTCP, Host: host, Port: p, Timeout: 200 * time.Millisecond}
}

func (s *fakeSlave) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.accepted.Add(1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

func (s *fakeSlave) handle(conn net.Conn) {
	for {
		req := make([]byte, mbapHeaderLen+5)
		if _, err := io.ReadFull(conn, req); err != nil {
			return
		}
		txID := binary.BigEndian.Uint16(req[0:])
		unitID := req[6]
		function := req[7]
		address := binary.BigEndian.Uint16(req[8:])
		count := binary.BigEndian.Uint16(req[10:])

		var pdu []byte
		switch slaveMode(s.mode.Load()) {
		case slaveHangUp:
			return
		case slaveSilent:
			time.Sleep(500 * time.Millisecond)
			return
		case slaveException:
			pdu = []byte{function | 0x80, 0x02}
		case slaveShort:
			pdu = []byte{function, byte(count * 2), 0x00}
		default:
			pdu = []byte{function, byte(count * 2)}
			for i := range count {
				pdu = binary.BigEndian.AppendUint16(pdu, s.registers[address+i])
			}
		}
		if _, err := conn.Write(encodeMBAP(txID, unitID, pdu)); err != nil {
			return
		}
	}
}

func TestClientReadHoldingRegisters(t *testing.T) {
	common.SetTestLoggerNop()

	slave := newFakeSlave(t, map[uint16]uint16{100: 0xFF38, 101: 650})
	client := NewClient(slave.config())
	defer client.Close()

	values, err := client.ReadHoldingRegisters(context.Background(), 1, 100, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xFF38, 650}, values)

	// connection is reused between reads
	values, err = client.ReadInputRegisters(context.Background(), 1, 101, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{650}, values)
	assert.Equal(t, int32(1), slave.accepted.Load())
}

func TestClientExceptionRecyclesConnection(t *testing.T) {
	common.SetTestLoggerNop()

	slave := newFakeSlave(t, map[uint16]uint16{1: 5})
	client := NewClient(slave.config())
	defer client.Close()

	slave.mode.Store(int32(slaveException))
	_, err := client.ReadHoldingRegisters(context.Background(), 1, 1, 1)
	require.ErrorIs(t, err, ErrProtocol)
	var exc *ExceptionError
	assert.True(t, errors.As(err, &exc))

	slave.mode.Store(int32(slaveOK))
	values, err := client.ReadHoldingRegisters(context.Background(), 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{5}, values)
	assert.Equal(t, int32(2), slave.accepted.Load())
}

func TestClientShortResponse(t *testing.T) {
	common.SetTestLoggerNop()

	slave := newFakeSlave(t, nil)
	slave.mode.Store(int32(slaveShort))
	client := NewClient(slave.config())
	defer client.Close()

	_, err := client.ReadHoldingRegisters(context.Background(), 1, 0, 2)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestClientDisconnected(t *testing.T) {
	common.SetTestLoggerNop()

	slave := newFakeSlave(t, nil)
	slave.mode.Store(int32(slaveHangUp))
	client := NewClient(slave.config())
	defer client.Close()

	_, err := client.ReadHoldingRegisters(context.Background(), 1, 0, 1)
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestClientTimeout(t *testing.T) {
	common.SetTestLoggerNop()

	slave := newFakeSlave(t, nil)
	slave.mode.Store(int32(slaveSilent))
	client := NewClient(slave.config())
	defer client.Close()

	start := time.Now()
	_, err := client.ReadHoldingRegisters(context.Background(), 1, 0, 1)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 450*time.Millisecond)
}

func TestClientConnectionRefused(t *testing.T) {
	common.SetTestLoggerNop()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	require.NoError(t, ln.Close())

	client := NewClient(Config{Transport: TransportTCP, Host: "127.0.0.1", Port: addr.Port, Timeout: time.Second})
	_, err = client.ReadHoldingRegisters(context.Background(), 1, 0, 1)
	assert.ErrorIs(t, err, ErrConnectionRefused)
}

func TestClientRejectsBadCount(t *testing.T) {
	client := NewClient(Config{Transport: TransportTCP, Host: "127.0.0.1", Port: 1})
	_, err := client.ReadHoldingRegisters(context.Background(), 1, 0, 0)
	assert.Error(t, err)
	_, err = client.ReadHoldingRegisters(context.Background(), 1, 0, MaxReadCount+1)
	assert.Error(t, err)
}

func TestRTUTransportOverPipe(t *testing.T) {
	common.SetTestLoggerNop()

	master, slave := net.Pipe()
	defer slave.Close()

	go func() {
		req := make([]byte, 8)
		if _, err := io.ReadFull(slave, req); err != nil {
			return
		}
		_, _ = slave.Write(encodeRTU(req[0], []byte{FuncReadHoldingRegisters, 0x02, 0x01, 0x2C}))
	}()

	client := &Client{
		cfg: Config{Transport: TransportSerial, Timeout: time.Second},
		dial: func(context.Context, Config) (transport, error) {
			return &rtuTransport{port: master, timeout: time.Second}, nil
		},
	}
	defer client.Close()

	values, err := client.ReadHoldingRegisters(context.Background(), 3, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{300}, values)
}

func TestRTUTransportBadCRC(t *testing.T) {
	common.SetTestLoggerNop()

	master, slave := net.Pipe()
	defer slave.Close()

	go func() {
		req := make([]byte, 8)
		if _, err := io.ReadFull(slave, req); err != nil {
			return
		}
		frame := encodeRTU(req[0], []byte{FuncReadHoldingRegisters, 0x02, 0x01, 0x2C})
		frame[len(frame)-1] ^= 0xFF
		_, _ = slave.Write(frame)
	}()

	tr := &rtuTransport{port: master, timeout: time.Second}
	defer tr.Close()

	_, err := tr.send(context.Background(), 3, readRequest(FuncReadHoldingRegisters, 0, 1))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestTimeoutReaderTreatsEmptyReadAsDeadline(t *testing.T) {
	_, err := io.ReadFull(timeoutReader{r: emptyReader{}}, make([]byte, 1))
	assert.ErrorIs(t, classify("read", err), ErrTimeout)
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, nil }
