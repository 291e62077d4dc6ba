package modbus

import "sync"

// Pool keeps one Client per device. Connections are never shared between devices.
type Pool struct {
	mu        sync.Mutex
	clients   map[string]*Client
	newClient func(Config) *Client
}

func NewPool() *Pool {
	return &Pool{
		clients:   make(map[string]*Client),
		newClient: NewClient,
	}
}

// Get returns the device's client, replacing it when the connection descriptor changed.
func (p *Pool) Get(deviceID string, cfg Config) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	client, exists := p.clients[deviceID]
	if exists && client.Config() == cfg {
		return client
	}
	if exists {
		_ = client.Close()
	}
	client = p.newClient(cfg)
	p.clients[deviceID] = client
	return client
}

func (p *Pool) Release(deviceID string) {
	p.mu.Lock()
	client, exists := p.clients[deviceID]
	delete(p.clients, deviceID)
	p.mu.Unlock()

	if exists {
		_ = client.Close()
	}
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

func (p *Pool) Close() {
	p.mu.Lock()
	clients := p.clients
	p.clients = make(map[string]*Client)
	p.mu.Unlock()

	for _, client := range clients {
		_ = client.Close()
	}
}
