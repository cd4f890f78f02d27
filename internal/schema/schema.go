// Package schema holds the structured-output contracts sent to completion
// providers. Each section schema is a closed JSON Schema fragment: the
// note rendering UI and clinical validity checks consume the exact
// required lists and enum vocabularies defined here.
package schema

import (
	"encoding/json"
	"fmt"
)

// Node is one node of a JSON Schema fragment.
type Node struct {
	Type                 string           `json:"type,omitempty"`
	Description          string           `json:"description,omitempty"`
	Enum                 []string         `json:"enum,omitempty"`
	Items                *Node            `json:"items,omitempty"`
	Properties           map[string]*Node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
}

// JSON renders the schema for embedding in prompts or tool definitions.
func (n *Node) JSON() json.RawMessage {
	b, err := json.Marshal(n)
	if err != nil {
		// Node contains only marshalable fields; this cannot happen for
		// the static tables below.
		panic(fmt.Sprintf("schema: marshal: %v", err))
	}
	return b
}

var (
	closed = false
	open   = true
)

// object returns a closed object node: extra fields are disallowed.
func object(props map[string]*Node, required ...string) *Node {
	return &Node{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &closed,
	}
}

// openObject returns an object node that accepts arbitrary extra keys.
func openObject(props map[string]*Node, required ...string) *Node {
	return &Node{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &open,
	}
}

func str(desc string) *Node {
	return &Node{Type: "string", Description: desc}
}

func strEnum(desc string, values ...string) *Node {
	return &Node{Type: "string", Description: desc, Enum: values}
}

func strList(desc string) *Node {
	return &Node{Type: "array", Description: desc, Items: &Node{Type: "string"}}
}
