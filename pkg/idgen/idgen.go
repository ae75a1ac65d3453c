// Package idgen 封装雪花算法ID生成
package idgen

import (
	"fmt"
	"time"

	sf "github.com/bwmarrin/snowflake"
)

// epoch 自定义纪元 2024-01-01
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

// Generator 雪花ID生成器，并发安全
type Generator struct {
	node *sf.Node
}

// New 创建生成器，nodeID 取值 0-1023
func New(nodeID int64) (*Generator, error) {
	sf.Epoch = epoch
	node, err := sf.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("创建雪花节点失败: %w", err)
	}
	return &Generator{node: node}, nil
}

// Next 生成唯一ID
func (g *Generator) Next() int64 {
	return g.node.Generate().Int64()
}

// NextString 生成字符串形式的唯一ID
func (g *Generator) NextString() string {
	return g.node.Generate().String()
}
