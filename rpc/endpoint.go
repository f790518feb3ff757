package rpc

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Handler runs a remote function. Args and the result are JSON values.
type Handler interface {
	Call(args []interface{}) interface{}
}

type HandlerFunc func(args []interface{}) interface{}

func (f HandlerFunc) Call(args []interface{}) interface{} { return f(args) }

// SendFunc delivers an action to the peer.
type SendFunc func(Action)

// Endpoint is one side of a connection. It runs functions requested by the
// peer and collects the results of its own calls. It is safe for concurrent
// use; handlers and send are called without holding its lock.
type Endpoint struct {
	mu       sync.Mutex
	handlers map[string]Handler
	pending  map[uint32]interface{} // results waiting to be fetched by the peer
	incoming map[uint32]interface{} // results of our own calls
	nextID   uint32
}

func NewEndpoint() *Endpoint {
	return &Endpoint{
		handlers: make(map[string]Handler),
		pending:  make(map[uint32]interface{}),
		incoming: make(map[uint32]interface{}),
	}
}

// Register makes h callable by the peer under name, replacing any handler
// registered before.
func (e *Endpoint) Register(name string, h Handler) {
	e.mu.Lock()
	e.handlers[name] = h
	e.mu.Unlock()
}

// Handle processes an action received from the peer. Requests for unknown
// functions produce a nil result.
func (e *Endpoint) Handle(a Action, send SendFunc) {
	switch a.Kind {
	case RequestFunction:
		e.mu.Lock()
		h, ok := e.handlers[a.Name]
		e.mu.Unlock()
		var result interface{}
		if ok {
			result = h.Call(a.Args)
		}
		e.mu.Lock()
		e.pending[a.ID] = result
		e.mu.Unlock()
	case FetchResult:
		e.mu.Lock()
		result, ok := e.pending[a.ID]
		delete(e.pending, a.ID)
		e.mu.Unlock()
		if ok {
			send(Result(a.ID, result))
		}
	case FunctionResult:
		e.mu.Lock()
		e.incoming[a.ID] = a.Result
		e.mu.Unlock()
	}
}

// Call requests name on the peer and immediately asks for its result. It
// returns the id to pass to TakeResult.
func (e *Endpoint) Call(send SendFunc, name string, args ...interface{}) uint32 {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.mu.Unlock()
	if args == nil {
		args = []interface{}{}
	}
	send(Request(id, name, args))
	send(Fetch(id))
	return id
}

// TakeResult returns and forgets the result of call id. It returns false
// while the result has not arrived.
func (e *Endpoint) TakeResult(id uint32) (interface{}, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	result, ok := e.incoming[id]
	if ok {
		delete(e.incoming, id)
	}
	return result, ok
}

// Link connects two endpoints in process. Actions are encoded to JSON and
// decoded again on the way, so both sides see exactly what a remote peer
// would send. It returns the send functions of a and b.
func Link(a, b *Endpoint) (sendA, sendB SendFunc) {
	sendA = func(act Action) {
		decoded, err := roundTrip(act)
		if err != nil {
			log.Printf("rpc: %v", err)
			return
		}
		b.Handle(decoded, sendB)
	}
	sendB = func(act Action) {
		decoded, err := roundTrip(act)
		if err != nil {
			log.Printf("rpc: %v", err)
			return
		}
		a.Handle(decoded, sendA)
	}
	return sendA, sendB
}

func roundTrip(a Action) (Action, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return Action{}, fmt.Errorf("encode action: %w", err)
	}
	var decoded Action
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Action{}, fmt.Errorf("decode action: %w", err)
	}
	return decoded, nil
}
