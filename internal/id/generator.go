package id

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out message identifiers.
// IDs are time-ordered and unique for the lifetime of the node, including
// IDs generated within the same millisecond.
type Generator struct {
	node *snowflake.Node
}

// NewGenerator creates a generator for the given snowflake node (0..1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next returns a new identifier.
func (g *Generator) Next() string {
	return g.node.Generate().String()
}
