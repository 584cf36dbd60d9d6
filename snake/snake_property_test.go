package snake

import (
	"math/rand"
	"testing"

	"github.com/hoshinonyaruko/snake-web/structs"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// play 用随机方向序列驱动一局游戏，每个 tick 之后调用 check
func play(seed int64, moves []int, dim int, check func(before, after structs.Snapshot, res TickResult) bool) bool {
	s := DefaultSettings()
	s.GridDimension = dim
	s.Origin = structs.Cell{X: dim / 2, Y: dim / 2}
	e, err := NewEngine(s, rand.New(rand.NewSource(seed)))
	if err != nil {
		return false
	}
	for _, m := range moves {
		e.RequestDirection(structs.Directions[m])
		before := e.Snapshot()
		res := e.Tick()
		if !check(before, e.Snapshot(), res) {
			return false
		}
		if res.GameOver {
			break
		}
	}
	return true
}

func TestPropertySnakeInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("every snake cell stays on the grid", prop.ForAll(
		func(seed int64, moves []int, dim int) bool {
			return play(seed, moves, dim, func(_, after structs.Snapshot, _ TickResult) bool {
				for _, c := range after.Snake {
					if !c.In(dim) {
						return false
					}
				}
				return true
			})
		},
		gen.Int64(),
		gen.SliceOfN(200, gen.IntRange(0, 3)),
		gen.IntRange(4, 12),
	))

	properties.Property("an active snake never overlaps itself", prop.ForAll(
		func(seed int64, moves []int, dim int) bool {
			return play(seed, moves, dim, func(_, after structs.Snapshot, _ TickResult) bool {
				seen := make(map[structs.Cell]bool, len(after.Snake))
				for _, c := range after.Snake {
					if seen[c] {
						return false
					}
					seen[c] = true
				}
				return true
			})
		},
		gen.Int64(),
		gen.SliceOfN(200, gen.IntRange(0, 3)),
		gen.IntRange(4, 12),
	))

	properties.Property("food is never placed on the snake", prop.ForAll(
		func(seed int64, moves []int, dim int) bool {
			return play(seed, moves, dim, func(_, after structs.Snapshot, _ TickResult) bool {
				if !after.HasFood {
					return len(after.Snake) == dim*dim
				}
				for _, c := range after.Snake {
					if c == after.Food {
						return false
					}
				}
				return after.Food.In(dim)
			})
		},
		gen.Int64(),
		gen.SliceOfN(200, gen.IntRange(0, 3)),
		gen.IntRange(3, 8),
	))

	properties.Property("length is unchanged or grows by exactly one", prop.ForAll(
		func(seed int64, moves []int) bool {
			return play(seed, moves, 8, func(before, after structs.Snapshot, res TickResult) bool {
				switch {
				case res.GameOver:
					return len(after.Snake) == len(before.Snake)
				case res.Ate:
					return len(after.Snake) == len(before.Snake)+1
				default:
					return len(after.Snake) == len(before.Snake)
				}
			})
		},
		gen.Int64(),
		gen.SliceOfN(200, gen.IntRange(0, 3)),
	))

	properties.Property("score and interval follow the reward and threshold", prop.ForAll(
		func(seed int64, moves []int) bool {
			return play(seed, moves, 6, func(before, after structs.Snapshot, res TickResult) bool {
				if !res.Ate {
					return after.Score == before.Score && after.TickIntervalMs == before.TickIntervalMs
				}
				if after.Score != before.Score+10 {
					return false
				}
				want := before.TickIntervalMs
				if after.Score%50 == 0 {
					want = max(50, want-10)
				}
				return after.TickIntervalMs == want && res.IntervalChanged == (want != before.TickIntervalMs)
			})
		},
		gen.Int64(),
		gen.SliceOfN(300, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}

func TestPropertyReversalIsIgnored(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 在 tick 前请求反方向，蛇头的移动与没有请求时完全相同
	properties.Property("reversal requests do not change head movement", prop.ForAll(
		func(seed int64, prefix []int) bool {
			e, err := NewEngine(DefaultSettings(), rand.New(rand.NewSource(seed)))
			if err != nil {
				return false
			}
			for _, m := range prefix {
				e.RequestDirection(structs.Directions[m])
				if e.Tick().GameOver {
					return true
				}
			}

			snap := e.Snapshot()
			control, err := Restore(DefaultSettings(), rand.New(rand.NewSource(seed)), snap)
			if err != nil {
				return false
			}
			probe, err := Restore(DefaultSettings(), rand.New(rand.NewSource(seed)), snap)
			if err != nil {
				return false
			}
			if probe.RequestDirection(snap.Direction.Opposite()) {
				return false
			}
			control.Tick()
			probe.Tick()
			return control.Snapshot().Head() == probe.Snapshot().Head() &&
				control.Over() == probe.Over()
		},
		gen.Int64(),
		gen.SliceOfN(30, gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}
