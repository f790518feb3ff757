// Package rpc implements a two-phase remote call protocol. A caller sends a
// request for a named function and later asks for its result by id. Results
// travel back as separate actions, so both sides only exchange messages and
// never block on each other.
package rpc

import (
	"encoding/json"
	"fmt"
)

type Kind int

const (
	// RequestFunction asks the peer to run a function and keep its result.
	RequestFunction Kind = iota
	// FunctionResult carries the result of an earlier request.
	FunctionResult
	// FetchResult asks the peer to send the result kept for an id.
	FetchResult
)

// Names used on the wire. They match the messages of the plugin's web UI.
var kindNames = map[Kind]string{
	RequestFunction: "SetRequestedFunction",
	FunctionResult:  "SetFunctionResult",
	FetchResult:     "SendFunctionResult",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func parseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action type %q", s)
}

// Action is a message of the protocol. Name and Args are set for
// RequestFunction, Result for FunctionResult.
type Action struct {
	Kind   Kind
	ID     uint32
	Name   string
	Args   []interface{}
	Result interface{}
}

func Request(id uint32, name string, args []interface{}) Action {
	return Action{Kind: RequestFunction, ID: id, Name: name, Args: args}
}

func Result(id uint32, result interface{}) Action {
	return Action{Kind: FunctionResult, ID: id, Result: result}
}

func Fetch(id uint32) Action {
	return Action{Kind: FetchResult, ID: id}
}

func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case RequestFunction:
		args := a.Args
		if args == nil {
			args = []interface{}{}
		}
		return json.Marshal(struct {
			Type string        `json:"type"`
			ID   uint32        `json:"id"`
			Name string        `json:"name"`
			Args []interface{} `json:"args"`
		}{a.Kind.String(), a.ID, a.Name, args})
	case FunctionResult:
		return json.Marshal(struct {
			Type   string      `json:"type"`
			ID     uint32      `json:"id"`
			Result interface{} `json:"result"`
		}{a.Kind.String(), a.ID, a.Result})
	case FetchResult:
		return json.Marshal(struct {
			Type string `json:"type"`
			ID   uint32 `json:"id"`
		}{a.Kind.String(), a.ID})
	default:
		return nil, fmt.Errorf("marshal action: unknown kind %v", a.Kind)
	}
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var msg struct {
		Type   string        `json:"type"`
		ID     uint32        `json:"id"`
		Name   string        `json:"name"`
		Args   []interface{} `json:"args"`
		Result interface{}   `json:"result"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	kind, err := parseKind(msg.Type)
	if err != nil {
		return err
	}
	*a = Action{Kind: kind, ID: msg.ID}
	switch kind {
	case RequestFunction:
		a.Name = msg.Name
		a.Args = msg.Args
	case FunctionResult:
		a.Result = msg.Result
	}
	return nil
}
