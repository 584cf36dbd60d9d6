// Package desktop ebiten 窗口前端：绘制收到的快照，把按键、点击和触摸转换为控制调用
package desktop

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

const padHeight = 80

var (
	backgroundColor = color.RGBA{0x00, 0x00, 0x00, 0xff}
	bodyColor       = color.RGBA{0x4c, 0xaf, 0x50, 0xff}
	headColor       = color.RGBA{0x2e, 0x7d, 0x32, 0xff}
	foodColor       = color.RGBA{0xff, 0x52, 0x52, 0xff}
	overlayColor    = color.RGBA{0x00, 0x00, 0x00, 0xbf}
	buttonColor     = color.RGBA{0x33, 0x33, 0x33, 0xff}
)

var keyDirections = map[ebiten.Key]structs.Direction{
	ebiten.KeyArrowUp:    structs.Up,
	ebiten.KeyArrowDown:  structs.Down,
	ebiten.KeyArrowLeft:  structs.Left,
	ebiten.KeyArrowRight: structs.Right,
	ebiten.KeyW:          structs.Up,
	ebiten.KeyS:          structs.Down,
	ebiten.KeyA:          structs.Left,
	ebiten.KeyD:          structs.Right,
}

// 触摸按钮从左到右的顺序
var buttonOrder = [...]structs.Direction{structs.Left, structs.Up, structs.Down, structs.Right}

// Game 同时实现 ebiten.Game、snake.Renderer 和 snake.InputSource
type Game struct {
	cellSize int
	board    int // 棋盘边长，像素

	mu   sync.Mutex
	snap structs.Snapshot

	ctrl snake.Controller
}

func New(settings snake.Settings) *Game {
	return &Game{
		cellSize: settings.CellSize,
		board:    settings.GridDimension * settings.CellSize,
		snap:     structs.Snapshot{GridDimension: settings.GridDimension},
	}
}

func (g *Game) Attach(c snake.Controller) { g.ctrl = c }

// Render 由会话调用，Draw 在下一帧读取副本
func (g *Game) Render(snap structs.Snapshot) {
	g.mu.Lock()
	g.snap = snap.Clone()
	g.mu.Unlock()
}

func (g *Game) snapshot() structs.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if g.ctrl == nil {
		return nil
	}

	for key, dir := range keyDirections {
		if inpututil.IsKeyJustPressed(key) {
			g.ctrl.RequestDirection(dir)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		g.ctrl.Tap()
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.pointer(ebiten.CursorPosition())
	}
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		g.pointer(ebiten.TouchPosition(id))
	}
	return nil
}

// pointer 处理一次点击或触摸
func (g *Game) pointer(x, y int) {
	if dir, ok := g.buttonAt(x, y); ok {
		g.ctrl.RequestDirection(dir)
		return
	}
	if x >= 0 && x < g.board && y >= 0 && y < g.board {
		g.ctrl.Tap()
	}
}

// buttonAt 返回 (x, y) 处的触摸按钮
func (g *Game) buttonAt(x, y int) (structs.Direction, bool) {
	if y < g.board || y >= g.board+padHeight || x < 0 || x >= g.board {
		return 0, false
	}
	w := g.board / len(buttonOrder)
	i := min(x/w, len(buttonOrder)-1)
	return buttonOrder[i], true
}

func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.snapshot()
	board := float32(g.board)
	cell := float32(g.cellSize)

	vector.DrawFilledRect(screen, 0, 0, board, board, backgroundColor, false)
	for i, c := range snap.Snake {
		clr := bodyColor
		if i == 0 {
			clr = headColor
		}
		vector.DrawFilledRect(screen, float32(c.X)*cell, float32(c.Y)*cell, cell-1, cell-1, clr, false)
	}
	if snap.HasFood {
		vector.DrawFilledRect(screen, float32(snap.Food.X)*cell, float32(snap.Food.Y)*cell, cell-1, cell-1, foodColor, false)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Score: %d", snap.Score), 4, 4)

	if snap.IsOver {
		vector.DrawFilledRect(screen, 0, 0, board, board, overlayColor, false)
		ebitenutil.DebugPrintAt(screen, "Game Over!", g.board/2-30, g.board/2-30)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Score: %d", snap.Score), g.board/2-30, g.board/2)
		ebitenutil.DebugPrintAt(screen, "Tap to restart", g.board/2-42, g.board/2+30)
	}

	w := g.board / len(buttonOrder)
	for i, dir := range buttonOrder {
		x := float32(i * w)
		vector.DrawFilledRect(screen, x+2, board+2, float32(w)-4, padHeight-4, buttonColor, false)
		ebitenutil.DebugPrintAt(screen, dir.String(), i*w+w/2-12, g.board+padHeight/2-8)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.board, g.board + padHeight
}
