package modbus

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
)

const (
	exceptionIllegalFunction  byte = 0x01
	exceptionIllegalDataValue byte = 0x03

	maxADULen = 260
)

// RegisterTable is a bank of 16-bit registers shared by a Server and its writer.
type RegisterTable struct {
	mu    sync.RWMutex
	words map[uint16]uint16
}

func NewRegisterTable() *RegisterTable {
	return &RegisterTable{words: make(map[uint16]uint16)}
}

func (t *RegisterTable) Set(address, value uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.words[address] = value
}

func (t *RegisterTable) Get(address uint16) uint16 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.words[address]
}

func (t *RegisterTable) read(address, count uint16) []uint16 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	values := make([]uint16, count)
	for i := range values {
		values[i] = t.words[address+uint16(i)]
	}
	return values
}

// Server is a Modbus TCP slave answering register reads from a RegisterTable.
// Holding and input registers share one table; any unit id is accepted.
type Server struct {
	ln    net.Listener
	table *RegisterTable

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// Listen binds addr and starts serving in the background.
func Listen(addr string, table *RegisterTable) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, table: table, conns: make(map[net.Conn]struct{})}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.mu.Lock()
				delete(s.conns, conn)
				s.mu.Unlock()
				_ = conn.Close()
			}()
			if err := s.handle(conn); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				common.GetCategoryLogger(common.LoggerCategoryProtocol, zap.String("remote", conn.RemoteAddr().String())).
					Debug("Modbus session ended", zap.Error(err))
			}
		}()
	}
}

func (s *Server) handle(conn net.Conn) error {
	header := make([]byte, mbapHeaderLen)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return err
		}
		txID := binary.BigEndian.Uint16(header[0:])
		length := int(binary.BigEndian.Uint16(header[4:]))
		unitID := header[6]
		if length < 2 || length > maxADULen-mbapHeaderLen+1 {
			return protocolError("serve", "bad mbap length %d", length)
		}
		pdu := make([]byte, length-1)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return err
		}
		if _, err := conn.Write(encodeMBAP(txID, unitID, s.respond(pdu))); err != nil {
			return err
		}
	}
}

func (s *Server) respond(pdu []byte) []byte {
	function := pdu[0]
	if function != FuncReadHoldingRegisters && function != FuncReadInputRegisters {
		return []byte{function | 0x80, exceptionIllegalFunction}
	}
	if len(pdu) != 5 {
		return []byte{function | 0x80, exceptionIllegalDataValue}
	}
	address := binary.BigEndian.Uint16(pdu[1:])
	count := binary.BigEndian.Uint16(pdu[3:])
	if count == 0 || count > MaxReadCount {
		return []byte{function | 0x80, exceptionIllegalDataValue}
	}

	resp := make([]byte, 2, 2+int(count)*2)
	resp[0] = function
	resp[1] = byte(count * 2)
	for _, v := range s.table.read(address, count) {
		resp = binary.BigEndian.AppendUint16(resp, v)
	}
	return resp
}

// Close stops accepting, drops open sessions and waits for them to end.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}
