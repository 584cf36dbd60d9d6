// 用 gg 把游戏状态绘制成图片
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/structs"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	BackgroundColor = "#000000"
	BodyColor       = "#4CAF50"
	HeadColor       = "#2E7D32"
	FoodColor       = "#FF5252"
)

var (
	fontOnce sync.Once
	fontTTF  *truetype.Font
)

// face 返回指定字号的字体，解析失败时退回到 basicfont
func face(size float64) font.Face {
	fontOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err != nil {
			slog.Warn("falling back to basic font", "error", err)
			return
		}
		fontTTF = f
	})
	if fontTTF == nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(fontTTF, &truetype.Options{Size: size})
}

// Frame 在每边 GridDimension*cellSize 像素的画布上绘制棋盘。
// 游戏结束时模糊棋盘并覆盖结束面板
func Frame(snap structs.Snapshot, cellSize int) image.Image {
	size := snap.GridDimension * cellSize
	dc := gg.NewContext(size, size)
	dc.SetHexColor(BackgroundColor)
	dc.Clear()

	cell := float64(cellSize)
	for i, pos := range snap.Snake {
		if i == 0 {
			dc.SetHexColor(HeadColor)
		} else {
			dc.SetHexColor(BodyColor)
		}
		dc.DrawRectangle(float64(pos.X)*cell, float64(pos.Y)*cell, cell-1, cell-1)
		dc.Fill()
	}

	if snap.HasFood {
		dc.SetHexColor(FoodColor)
		dc.DrawRectangle(float64(snap.Food.X)*cell, float64(snap.Food.Y)*cell, cell-1, cell-1)
		dc.Fill()
	}

	if !snap.IsOver {
		return dc.Image()
	}
	return gameOver(dc.Image(), snap.Score)
}

func gameOver(board image.Image, score int) image.Image {
	blurred := imaging.Blur(board, 2)
	dc := gg.NewContextForImage(blurred)
	w := float64(dc.Width())
	h := float64(dc.Height())

	dc.SetRGBA(0, 0, 0, 0.75)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(face(30))
	dc.DrawStringAnchored("Game Over!", w/2, h/2-30, 0.5, 0)
	dc.SetFontFace(face(20))
	dc.DrawStringAnchored(fmt.Sprintf("Score: %d", score), w/2, h/2+10, 0.5, 0)
	dc.DrawStringAnchored("Tap to restart", w/2, h/2+50, 0.5, 0)
	return dc.Image()
}

// EncodePNG 绘制并编码为 PNG
func EncodePNG(snap structs.Snapshot, cellSize int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Frame(snap, cellSize)); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ImageRenderer 把会话的每一帧保存为 PNG
type ImageRenderer struct {
	store    *memimg.Store
	id       string
	cellSize int
	log      *slog.Logger
}

func NewImageRenderer(store *memimg.Store, id string, cellSize int, log *slog.Logger) *ImageRenderer {
	if log == nil {
		log = slog.Default()
	}
	return &ImageRenderer{store: store, id: id, cellSize: cellSize, log: log}
}

func (r *ImageRenderer) Render(snap structs.Snapshot) {
	frame, err := EncodePNG(snap, r.cellSize)
	if err != nil {
		r.log.Error("render frame", "session", r.id, "error", err)
		return
	}
	r.store.Put(r.id, frame)
}
