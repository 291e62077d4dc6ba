package modbus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
)

// Client owns one lazily established connection to one device.
// Any failed exchange drops the connection so the next read redials.
type Client struct {
	mu        sync.Mutex
	cfg       Config
	dial      dialFunc
	transport transport
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, dial: dial}
}

func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) ReadHoldingRegisters(ctx context.Context, unitID byte, address, count uint16) ([]uint16, error) {
	return c.readRegisters(ctx, FuncReadHoldingRegisters, unitID, address, count)
}

func (c *Client) ReadInputRegisters(ctx context.Context, unitID byte, address, count uint16) ([]uint16, error) {
	return c.readRegisters(ctx, FuncReadInputRegisters, unitID, address, count)
}

func (c *Client) readRegisters(ctx context.Context, function, unitID byte, address, count uint16) ([]uint16, error) {
	if count == 0 || count > MaxReadCount {
		return nil, fmt.Errorf("modbus: register count %d out of range", count)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	logger := common.GetCategoryLogger(common.LoggerCategoryProtocol, zap.Stringer("target", c.cfg))

	if c.transport == nil {
		t, err := c.dial(ctx, c.cfg)
		if err != nil {
			logger.Warn("Connect failed", zap.Error(err))
			return nil, err
		}
		logger.Debug("Connected")
		c.transport = t
	}

	pdu, err := c.transport.send(ctx, unitID, readRequest(function, address, count))
	if err == nil {
		var values []uint16
		if values, err = decodeReadResponse(function, pdu, count); err == nil {
			return values, nil
		}
	}

	logger.Warn("Read failed, recycling connection", zap.Error(err))
	_ = c.transport.Close()
	c.transport = nil
	return nil, err
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil {
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	return err
}
