// 键盘和触摸输入到方向的转换
package input

import (
	"strings"
	"sync/atomic"

	"github.com/hoshinonyaruko/snake-web/structs"
)

// 浏览器 KeyboardEvent.key、WASD 以及四个触摸按钮的 id
var keyDirections = map[string]structs.Direction{
	"arrowup":    structs.Up,
	"arrowdown":  structs.Down,
	"arrowleft":  structs.Left,
	"arrowright": structs.Right,
	"w":          structs.Up,
	"s":          structs.Down,
	"a":          structs.Left,
	"d":          structs.Right,
	"up":         structs.Up,
	"down":       structs.Down,
	"left":       structs.Left,
	"right":      structs.Right,
}

// ParseKey 把按键名或触摸按钮名转换为方向
func ParseKey(name string) (structs.Direction, bool) {
	d, ok := keyDirections[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Latch 一次性标志：游戏结束时置位，被第一次重新开始手势消耗
type Latch struct {
	armed atomic.Bool
}

func (l *Latch) Arm() { l.armed.Store(true) }

func (l *Latch) Disarm() { l.armed.Store(false) }

// Consume 每次 Arm 之后只返回一次 true
func (l *Latch) Consume() bool {
	return l.armed.CompareAndSwap(true, false)
}
