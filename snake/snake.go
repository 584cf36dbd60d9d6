// 贪食蛇的核心逻辑：移动、碰撞、食物和提速
package snake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hoshinonyaruko/snake-web/structs"
)

// Collision 描述导致游戏结束的原因
type Collision int

const (
	CollisionNone Collision = iota
	CollisionWall
	CollisionSelf
)

func (c Collision) String() string {
	switch c {
	case CollisionWall:
		return "wall"
	case CollisionSelf:
		return "self"
	default:
		return "none"
	}
}

// TickResult 一次 Tick 的结果
type TickResult struct {
	Moved           bool      // 蛇是否前进了一格
	Ate             bool      // 是否吃到食物
	IntervalChanged bool      // 刷新间隔是否变化，调度器需要立即采用 IntervalMs
	IntervalMs      int       // tick 结束后的刷新间隔
	GameOver        bool      // 游戏是否处于结束状态
	Cause           Collision // 本次 tick 的碰撞原因
}

// Engine 持有一局游戏的权威状态。不能并发使用，调用方需要串行化
// RequestDirection、Tick 和 Restart
type Engine struct {
	settings Settings
	rng      *rand.Rand

	snake     []structs.Cell
	food      structs.Cell
	hasFood   bool
	direction structs.Direction
	pending   structs.Direction
	score     int
	interval  int
	over      bool
	ticks     int
}

// NewEngine 校验设置并开始新的一局，rng 为 nil 时用当前时间作种子
func NewEngine(settings Settings, rng *rand.Rand) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{settings: settings, rng: rng}
	e.Restart()
	return e, nil
}

// Restore 从快照重建引擎，拒绝任何正常游戏都不可能产生的快照
func Restore(settings Settings, rng *rand.Rand, snap structs.Snapshot) (*Engine, error) {
	e, err := NewEngine(settings, rng)
	if err != nil {
		return nil, err
	}
	if err := checkSnapshot(settings, snap); err != nil {
		return nil, err
	}
	e.snake = append([]structs.Cell(nil), snap.Snake...)
	e.food = snap.Food
	e.hasFood = snap.HasFood
	e.direction = snap.Direction
	e.pending = snap.Pending
	e.score = snap.Score
	e.interval = snap.TickIntervalMs
	e.over = snap.IsOver
	e.ticks = snap.Ticks
	return e, nil
}

func checkSnapshot(settings Settings, snap structs.Snapshot) error {
	dim := settings.GridDimension
	if snap.GridDimension != dim {
		return fmt.Errorf("snapshot grid %d does not match settings grid %d", snap.GridDimension, dim)
	}
	if len(snap.Snake) == 0 {
		return fmt.Errorf("snapshot has an empty snake")
	}
	if !snap.Direction.Valid() || !snap.Pending.Valid() {
		return fmt.Errorf("snapshot has an invalid direction")
	}
	if snap.Pending == snap.Direction.Opposite() {
		return fmt.Errorf("snapshot pending direction %v reverses %v", snap.Pending, snap.Direction)
	}
	if snap.TickIntervalMs <= 0 || snap.Score < 0 || snap.Ticks < 0 {
		return fmt.Errorf("snapshot has a negative score, tick count or non-positive interval")
	}
	seen := make(map[structs.Cell]bool, len(snap.Snake))
	for _, c := range snap.Snake {
		if !c.In(dim) {
			return fmt.Errorf("snapshot cell (%d,%d) outside %dx%d grid", c.X, c.Y, dim, dim)
		}
		if seen[c] {
			return fmt.Errorf("snapshot cell (%d,%d) occupied twice", c.X, c.Y)
		}
		seen[c] = true
	}
	if snap.HasFood && (!snap.Food.In(dim) || seen[snap.Food]) {
		return fmt.Errorf("snapshot food (%d,%d) is off the grid or on the snake", snap.Food.X, snap.Food.Y)
	}
	return nil
}

// Restart 重置为初始状态并重新开始
func (e *Engine) Restart() {
	e.snake = e.settings.initialBody()
	e.direction = e.settings.InitialDirection
	e.pending = e.settings.InitialDirection
	e.score = 0
	e.interval = e.settings.InitialIntervalMs
	e.over = false
	e.ticks = 0
	e.food, e.hasFood = e.GenerateFood()
}

// RequestDirection 记录下一次 tick 的方向，与上一次 tick 方向相反时忽略。
// 后来的请求覆盖之前的请求
func (e *Engine) RequestDirection(dir structs.Direction) bool {
	if !dir.Valid() || dir == e.direction.Opposite() {
		return false
	}
	e.pending = dir
	return true
}

// Tick 前进一格。游戏结束后调用不改变任何状态，只返回 GameOver
func (e *Engine) Tick() TickResult {
	if e.over {
		return TickResult{GameOver: true, IntervalMs: e.interval}
	}

	e.direction = e.pending
	head := e.snake[0].Add(e.direction)

	// 撞墙
	if !head.In(e.settings.GridDimension) {
		return e.gameOver(CollisionWall)
	}
	// 咬到自己，包括即将移走的尾巴
	if e.occupied(head) {
		return e.gameOver(CollisionSelf)
	}

	e.snake = append(e.snake, structs.Cell{})
	copy(e.snake[1:], e.snake)
	e.snake[0] = head
	e.ticks++

	res := TickResult{Moved: true}
	if e.hasFood && head == e.food {
		res.Ate = true
		e.score += e.settings.FoodReward
		e.food, e.hasFood = e.GenerateFood()
		if e.score%e.settings.SpeedUpThreshold == 0 {
			next := max(e.settings.MinIntervalMs, e.interval-e.settings.SpeedUpStepMs)
			res.IntervalChanged = next != e.interval
			e.interval = next
		}
	} else {
		e.snake = e.snake[:len(e.snake)-1]
	}
	res.IntervalMs = e.interval
	return res
}

func (e *Engine) gameOver(cause Collision) TickResult {
	e.over = true
	return TickResult{GameOver: true, Cause: cause, IntervalMs: e.interval}
}

func (e *Engine) occupied(c structs.Cell) bool {
	for _, s := range e.snake {
		if s == c {
			return true
		}
	}
	return false
}

// GenerateFood 均匀随机选择一个不在蛇身上的格子。随机采样次数有上限，
// 超过后直接在空闲格子中选择。只有蛇占满网格时返回 false
func (e *Engine) GenerateFood() (structs.Cell, bool) {
	dim := e.settings.GridDimension
	cells := dim * dim
	if len(e.snake) >= cells {
		return structs.Cell{}, false
	}

	for attempt := 0; attempt < 4*cells; attempt++ {
		c := structs.Cell{X: e.rng.Intn(dim), Y: e.rng.Intn(dim)}
		if !e.occupied(c) {
			return c, true
		}
	}

	taken := make(map[structs.Cell]bool, len(e.snake))
	for _, c := range e.snake {
		taken[c] = true
	}
	free := make([]structs.Cell, 0, cells-len(e.snake))
	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			if c := (structs.Cell{X: x, Y: y}); !taken[c] {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return structs.Cell{}, false
	}
	return free[e.rng.Intn(len(free))], true
}

// Snapshot 返回当前状态的副本
func (e *Engine) Snapshot() structs.Snapshot {
	return structs.Snapshot{
		Snake:          append([]structs.Cell(nil), e.snake...),
		Food:           e.food,
		HasFood:        e.hasFood,
		Direction:      e.direction,
		Pending:        e.pending,
		Score:          e.score,
		TickIntervalMs: e.interval,
		IsOver:         e.over,
		GridDimension:  e.settings.GridDimension,
		Ticks:          e.ticks,
	}
}

func (e *Engine) Over() bool { return e.over }

func (e *Engine) IntervalMs() int { return e.interval }

func (e *Engine) Score() int { return e.score }

func (e *Engine) Settings() Settings { return e.settings }
