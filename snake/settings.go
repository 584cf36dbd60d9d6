package snake

import (
	"fmt"

	"github.com/hoshinonyaruko/snake-web/structs"
)

// Settings 一局游戏的可调参数
type Settings struct {
	GridDimension     int               // 每个轴的格子数
	CellSize          int               // 每个格子的像素大小
	InitialIntervalMs int               // 初始刷新间隔
	MinIntervalMs     int               // 刷新间隔下限
	SpeedUpStepMs     int               // 每次提速减少的毫秒数
	SpeedUpThreshold  int               // 得分达到该值的倍数时提速
	FoodReward        int               // 每个食物的得分
	Origin            structs.Cell      // 初始蛇头位置
	InitialLength     int               // 初始蛇长
	InitialDirection  structs.Direction // 初始方向
}

// DefaultSettings 经典的 20x20 游戏
func DefaultSettings() Settings {
	return Settings{
		GridDimension:     20,
		CellSize:          20,
		InitialIntervalMs: 150,
		MinIntervalMs:     50,
		SpeedUpStepMs:     10,
		SpeedUpThreshold:  50,
		FoodReward:        10,
		Origin:            structs.Cell{X: 10, Y: 10},
		InitialLength:     1,
		InitialDirection:  structs.Right,
	}
}

// Validate 返回第一个无法构成可玩游戏的参数错误
func (s Settings) Validate() error {
	switch {
	case s.GridDimension <= 0:
		return fmt.Errorf("grid dimension must be positive, got %d", s.GridDimension)
	case s.CellSize <= 0:
		return fmt.Errorf("cell size must be positive, got %d", s.CellSize)
	case s.InitialIntervalMs <= 0:
		return fmt.Errorf("initial interval must be positive, got %d", s.InitialIntervalMs)
	case s.MinIntervalMs <= 0:
		return fmt.Errorf("minimum interval must be positive, got %d", s.MinIntervalMs)
	case s.MinIntervalMs > s.InitialIntervalMs:
		return fmt.Errorf("minimum interval %d exceeds initial interval %d", s.MinIntervalMs, s.InitialIntervalMs)
	case s.SpeedUpStepMs < 0:
		return fmt.Errorf("speed-up step must not be negative, got %d", s.SpeedUpStepMs)
	case s.SpeedUpThreshold <= 0:
		return fmt.Errorf("speed-up threshold must be positive, got %d", s.SpeedUpThreshold)
	case s.FoodReward <= 0:
		return fmt.Errorf("food reward must be positive, got %d", s.FoodReward)
	case s.InitialLength <= 0:
		return fmt.Errorf("initial length must be positive, got %d", s.InitialLength)
	case !s.InitialDirection.Valid():
		return fmt.Errorf("invalid initial direction %v", s.InitialDirection)
	}
	for _, c := range s.initialBody() {
		if !c.In(s.GridDimension) {
			return fmt.Errorf("initial body cell (%d,%d) outside %dx%d grid", c.X, c.Y, s.GridDimension, s.GridDimension)
		}
	}
	return nil
}

// ForGrid 返回适用于 dim x dim 网格的设置。原起点放不下初始蛇身时改用网格中心，
// 仍放不下则缩短初始蛇长
func (s Settings) ForGrid(dim int) Settings {
	s.GridDimension = dim
	if dim <= 0 || s.bodyFits() {
		return s
	}
	s.Origin = structs.Cell{X: dim / 2, Y: dim / 2}
	for s.InitialLength > 1 && !s.bodyFits() {
		s.InitialLength--
	}
	return s
}

func (s Settings) bodyFits() bool {
	for _, c := range s.initialBody() {
		if !c.In(s.GridDimension) {
			return false
		}
	}
	return true
}

// initialBody 从起点开始，逆着初始方向向后排列蛇身
func (s Settings) initialBody() []structs.Cell {
	body := make([]structs.Cell, 0, s.InitialLength)
	cur := s.Origin
	back := s.InitialDirection.Opposite()
	for i := 0; i < s.InitialLength; i++ {
		body = append(body, cur)
		cur = cur.Add(back)
	}
	return body
}
