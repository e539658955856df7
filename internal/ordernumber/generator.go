// Package ordernumber は人が読める注文番号を作る。
package ordernumber

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const Prefix = "ORD-"

// orders.order_number の長さ
const MaxLen = 32

// Generator は snowflake（時刻 + ノード + 連番）を base36 にした番号を返す。
// ノードIDはプロセス起動時にランダムに決めるので、別プロセス間の衝突はまれに起こりうる。
// 衝突は orders.order_number のユニーク制約で検出して作り直す。
type Generator struct {
	node *snowflake.Node
}

func New() (*Generator, error) {
	return NewWithNode(rand.Int64N(int64(1) << snowflake.NodeBits))
}

func NewWithNode(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

func (g *Generator) Next() string {
	return Prefix + strings.ToUpper(g.node.Generate().Base36())
}

// Valid は保存前の形式チェック。Prefix + 英大文字/数字で MaxLen 以内。
func Valid(s string) bool {
	if len(s) > MaxLen {
		return false
	}
	rest, ok := strings.CutPrefix(s, Prefix)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
