package client

import (
	"context"
	"fmt"
	"sync"
)

// Hive fans task-client operations out across a fixed set of workers.
// Fan-out results always come back in registration order so CLI output is
// stable run to run.
type Hive struct {
	order   []string
	clients map[string]*Client
}

// NewHive builds a Hive over the given clients, preserving their order.
func NewHive(clients []*Client) *Hive {
	h := &Hive{
		order:   make([]string, 0, len(clients)),
		clients: make(map[string]*Client, len(clients)),
	}
	for _, c := range clients {
		if _, dup := h.clients[c.Name()]; dup {
			continue
		}
		h.order = append(h.order, c.Name())
		h.clients[c.Name()] = c
	}
	return h
}

// Names returns worker names in registration order.
func (h *Hive) Names() []string {
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// Client returns the client for a named worker.
func (h *Hive) Client(name string) (*Client, bool) {
	c, ok := h.clients[name]
	return c, ok
}

// Execute runs a task on one named worker.
func (h *Hive) Execute(ctx context.Context, name, task string, opts ExecuteOptions) (TaskResult, error) {
	c, ok := h.clients[name]
	if !ok {
		return TaskResult{}, fmt.Errorf("unknown worker %q", name)
	}
	return c.Execute(ctx, task, opts), nil
}

// Broadcast runs the same task on every worker concurrently and returns
// one result per worker in registration order.
func (h *Hive) Broadcast(ctx context.Context, task string, opts ExecuteOptions) []TaskResult {
	results := make([]TaskResult, len(h.order))
	var wg sync.WaitGroup
	for i, name := range h.order {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			results[i] = c.Execute(ctx, task, opts)
		}(i, h.clients[name])
	}
	wg.Wait()
	return results
}

// StatusAll health-checks every worker concurrently, in registration order.
func (h *Hive) StatusAll(ctx context.Context) []Status {
	statuses := make([]Status, len(h.order))
	var wg sync.WaitGroup
	for i, name := range h.order {
		wg.Add(1)
		go func(i int, c *Client) {
			defer wg.Done()
			statuses[i] = c.Health(ctx)
		}(i, h.clients[name])
	}
	wg.Wait()
	return statuses
}
