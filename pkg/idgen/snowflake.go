package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// 雪花算法 ID：41位时间戳 + 10位节点ID + 12位序列号，趋势递增，便于索引

// 2024-01-01 00:00:00 UTC
const epoch = int64(1704067200000)

var (
	node *snowflake.Node
	mu   sync.Mutex
)

// Init 初始化节点，nodeID 取值 0-1023，多实例部署时必须各不相同
func Init(nodeID int64) error {
	mu.Lock()
	defer mu.Unlock()

	snowflake.Epoch = epoch
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("初始化雪花节点失败: %w", err)
	}
	node = n
	return nil
}

// NextID 生成下一个ID
func NextID() int64 {
	mu.Lock()
	if node == nil {
		snowflake.Epoch = epoch
		node, _ = snowflake.NewNode(1)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}

func generate(prefix string) string {
	return fmt.Sprintf("%s%s%d", prefix, time.Now().Format("060102"), NextID())
}

// GenerateOrderNo 生成订单号
// 格式：ORD + 年月日 + 完整雪花ID，例如 ORD240115178542630419791872
func GenerateOrderNo() string {
	return generate("ORD")
}

// GenerateEntryNo 生成积分流水号
func GenerateEntryNo() string {
	return generate("PTS")
}

// NewUUID 账户、商品、购物车等实体ID
func NewUUID() string {
	return uuid.NewString()
}
