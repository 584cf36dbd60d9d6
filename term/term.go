// Package term 用 tcell 在终端中游戏
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBody   = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleHead   = tcell.StyleDefault.Background(tcell.ColorDarkGreen)
	styleFood   = tcell.StyleDefault.Background(tcell.ColorRed)
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleOver   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorMaroon).Bold(true)
)

// 棋盘左上角（含边框）在屏幕上的位置，第 0 行留给分数
const (
	boardX = 0
	boardY = 1
)

// UI 在 tcell 屏幕上绘制快照并把按键交给游戏。每个格子占两列，看起来接近正方形
type UI struct {
	screen tcell.Screen

	mu   sync.Mutex
	last structs.Snapshot

	ctrl snake.Controller
}

// New 包装已经初始化的屏幕
func New(screen tcell.Screen) *UI {
	screen.HideCursor()
	return &UI{screen: screen}
}

func (u *UI) Attach(c snake.Controller) { u.ctrl = c }

func (u *UI) Render(snap structs.Snapshot) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = snap.Clone()
	u.draw(u.last)
}

// cellPos 返回格子左半边在屏幕上的坐标
func cellPos(c structs.Cell) (x, y int) {
	return boardX + 1 + 2*c.X, boardY + 1 + c.Y
}

func (u *UI) draw(snap structs.Snapshot) {
	s := u.screen
	s.Clear()

	drawText(s, 0, 0, fmt.Sprintf("Score: %d  Interval: %dms", snap.Score, snap.TickIntervalMs), styleText)

	dim := snap.GridDimension
	right := boardX + 1 + 2*dim
	bottom := boardY + 1 + dim
	for x := boardX; x <= right; x++ {
		s.SetContent(x, boardY, '─', nil, styleBorder)
		s.SetContent(x, bottom, '─', nil, styleBorder)
	}
	for y := boardY; y <= bottom; y++ {
		s.SetContent(boardX, y, '│', nil, styleBorder)
		s.SetContent(right, y, '│', nil, styleBorder)
	}
	s.SetContent(boardX, boardY, '┌', nil, styleBorder)
	s.SetContent(right, boardY, '┐', nil, styleBorder)
	s.SetContent(boardX, bottom, '└', nil, styleBorder)
	s.SetContent(right, bottom, '┘', nil, styleBorder)

	for i := len(snap.Snake) - 1; i >= 0; i-- {
		st := styleBody
		if i == 0 {
			st = styleHead
		}
		fillCell(s, snap.Snake[i], st)
	}
	if snap.HasFood {
		fillCell(s, snap.Food, styleFood)
	}

	if snap.IsOver {
		cx := boardX + 1 + dim
		cy := boardY + 1 + dim/2
		drawCentered(s, cx, cy-1, " Game Over! ", styleOver)
		drawCentered(s, cx, cy, fmt.Sprintf(" Score: %d ", snap.Score), styleOver)
		drawCentered(s, cx, cy+1, " Press space to restart ", styleOver)
	}
	s.Show()
}

func fillCell(s tcell.Screen, c structs.Cell, st tcell.Style) {
	x, y := cellPos(c)
	s.SetContent(x, y, ' ', nil, st)
	s.SetContent(x+1, y, ' ', nil, st)
}

// Run 处理终端事件，直到玩家退出或屏幕被关闭
func (u *UI) Run() {
	for {
		switch ev := u.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			u.screen.Sync()
			u.mu.Lock()
			u.draw(u.last)
			u.mu.Unlock()
		case *tcell.EventKey:
			if u.handleKey(ev) {
				return
			}
		}
	}
}

// handleKey 返回 true 表示退出
func (u *UI) handleKey(e *tcell.EventKey) bool {
	switch e.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyUp:
		u.request(structs.Up)
	case tcell.KeyDown:
		u.request(structs.Down)
	case tcell.KeyLeft:
		u.request(structs.Left)
	case tcell.KeyRight:
		u.request(structs.Right)
	case tcell.KeyEnter:
		u.tap()
	case tcell.KeyRune:
		switch e.Rune() {
		case 'q', 'Q':
			return true
		case 'w', 'W':
			u.request(structs.Up)
		case 's', 'S':
			u.request(structs.Down)
		case 'a', 'A':
			u.request(structs.Left)
		case 'd', 'D':
			u.request(structs.Right)
		case ' ':
			u.tap()
		}
	}
	return false
}

func (u *UI) request(d structs.Direction) {
	if u.ctrl != nil {
		u.ctrl.RequestDirection(d)
	}
}

func (u *UI) tap() {
	if u.ctrl != nil {
		u.ctrl.Tap()
	}
}

func drawText(s tcell.Screen, x, y int, text string, st tcell.Style) {
	for i, ch := range []rune(text) {
		s.SetContent(x+i, y, ch, nil, st)
	}
}

func drawCentered(s tcell.Screen, cx, cy int, text string, st tcell.Style) {
	drawText(s, cx-len([]rune(text))/2, cy, text, st)
}
