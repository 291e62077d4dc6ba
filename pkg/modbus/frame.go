package modbus

import (
	"encoding/binary"
)

const (
	FuncReadHoldingRegisters byte = 0x03
	FuncReadInputRegisters   byte = 0x04

	// a read response must fit in one 253-byte PDU
	MaxReadCount = 125

	mbapHeaderLen = 7
)

func crc16(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b)
		for range 8 {
			if crc&0x0001 != 0 {
				crc = (crc >> 1) ^ 0xA001
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

func readRequest(function byte, address, count uint16) []byte {
	pdu := make([]byte, 5)
	pdu[0] = function
	binary.BigEndian.PutUint16(pdu[1:], address)
	binary.BigEndian.PutUint16(pdu[3:], count)
	return pdu
}

// decodeReadResponse validates a read-registers response PDU and returns its words.
func decodeReadResponse(function byte, pdu []byte, count uint16) ([]uint16, error) {
	const op = "decode"
	if len(pdu) < 2 {
		return nil, protocolError(op, "short response of %d bytes", len(pdu))
	}
	if pdu[0] == function|0x80 {
		return nil, &TransportError{Kind: ErrProtocol, Op: op, Err: &ExceptionError{Function: function, Code: pdu[1]}}
	}
	if pdu[0] != function {
		return nil, protocolError(op, "unexpected function 0x%02x", pdu[0])
	}
	byteCount := int(pdu[1])
	if byteCount != int(count)*2 {
		return nil, protocolError(op, "byte count %d, expected %d", byteCount, int(count)*2)
	}
	if len(pdu) != 2+byteCount {
		return nil, protocolError(op, "response length %d, expected %d", len(pdu), 2+byteCount)
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(pdu[2+i*2:])
	}
	return values, nil
}

func encodeMBAP(txID uint16, unitID byte, pdu []byte) []byte {
	adu := make([]byte, mbapHeaderLen+len(pdu))
	binary.BigEndian.PutUint16(adu[0:], txID)
	binary.BigEndian.PutUint16(adu[2:], 0)
	binary.BigEndian.PutUint16(adu[4:], uint16(len(pdu)+1))
	adu[6] = unitID
	copy(adu[mbapHeaderLen:], pdu)
	return adu
}

func encodeRTU(unitID byte, pdu []byte) []byte {
	adu := make([]byte, 0, len(pdu)+3)
	adu = append(adu, unitID)
	adu = append(adu, pdu...)
	crc := crc16(adu)
	return append(adu, byte(crc&0xFF), byte(crc>>8))
}
