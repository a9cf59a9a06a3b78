// Package idgen produces entity and session identifiers.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// Generator hands out snowflake ids for stored entities and KSUIDs for
// sessions. Snowflake ids are time ordered and unique per node.
type Generator struct {
	node *snowflake.Node
}

// New returns a Generator for the given snowflake node (0-1023).
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}

func (g *Generator) NewSessionID() string {
	return ksuid.New().String()
}
