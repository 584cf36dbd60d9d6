package structs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidDirection 无法识别的方向文本
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrSessionNotFound 会话不存在
	ErrSessionNotFound = errors.New("session not found")
)

// Cell 描述游戏网格上的一个格子。
type Cell struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Add 返回沿方向移动一格后的格子
func (c Cell) Add(d Direction) Cell {
	dx, dy := d.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// In 判断格子是否位于 [0, dim) 的正方形网格内
func (c Cell) In(dim int) bool {
	return c.X >= 0 && c.X < dim && c.Y >= 0 && c.Y < dim
}

// Direction 蛇的移动方向，只有四个取值。
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions 按固定顺序列出全部方向
var Directions = [...]Direction{Up, Down, Left, Right}

// Opposite 返回相反方向
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Delta 返回方向对应的坐标增量，y 轴向下
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	default:
		return 1, 0
	}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Valid 判断是否为四个合法方向之一
func (d Direction) Valid() bool {
	return d <= Right
}

// ParseDirection 解析 "up", "down", "left", "right"（不区分大小写）
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Snapshot 游戏状态的只读副本，交给渲染器和持久化使用。
type Snapshot struct {
	Snake          []Cell    `json:"snake"`            // 蛇身，蛇头在前
	Food           Cell      `json:"food"`             // 食物位置
	HasFood        bool      `json:"has_food"`         // 网格被占满时为 false
	Direction      Direction `json:"direction"`        // 上一次 tick 使用的方向
	Pending        Direction `json:"pending"`          // 下一次 tick 将采用的方向
	Score          int       `json:"score"`            // 得分
	TickIntervalMs int       `json:"tick_interval_ms"` // 当前刷新间隔，毫秒
	IsOver         bool      `json:"is_over"`          // 游戏是否结束
	GridDimension  int       `json:"grid_dimension"`   // 每个轴的格子数
	Ticks          int       `json:"ticks"`            // 已完成的 tick 数
}

// Head 返回蛇头，蛇为空时返回零值
func (s Snapshot) Head() Cell {
	if len(s.Snake) == 0 {
		return Cell{}
	}
	return s.Snake[0]
}

// Clone 深拷贝
func (s Snapshot) Clone() Snapshot {
	s.Snake = append([]Cell(nil), s.Snake...)
	return s
}

// SessionRecord 描述一个被持久化的游戏会话。
type SessionRecord struct {
	SessionID string    `json:"session_id"` // 会话标识
	State     Snapshot  `json:"state"`      // 最近一次保存的游戏状态
	CreatedAt time.Time `json:"created_at"` // 创建时间
	UpdatedAt time.Time `json:"updated_at"` // 最后保存时间
}
