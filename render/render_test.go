package render

import (
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/snake"
	"github.com/hoshinonyaruko/snake-web/structs"
)

func rgb(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func testSnapshot(over bool) structs.Snapshot {
	return structs.Snapshot{
		Snake:         []structs.Cell{{X: 1, Y: 1}, {X: 2, Y: 1}},
		Food:          structs.Cell{X: 8, Y: 8},
		HasFood:       true,
		Score:         30,
		IsOver:        over,
		GridDimension: 10,
	}
}

func TestFrameColors(t *testing.T) {
	img := Frame(testSnapshot(false), 20)

	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("frame is %v, want 200x200", b)
	}

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"head", 25, 25, color.RGBA{0x2E, 0x7D, 0x32, 0xff}},
		{"body", 45, 25, color.RGBA{0x4C, 0xAF, 0x50, 0xff}},
		{"food", 165, 165, color.RGBA{0xFF, 0x52, 0x52, 0xff}},
		{"background", 150, 20, color.RGBA{0, 0, 0, 0xff}},
		{"cell gap", 39, 25, color.RGBA{0, 0, 0, 0xff}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rgb(img, tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestFrameWithoutFood(t *testing.T) {
	snap := testSnapshot(false)
	snap.HasFood = false
	img := Frame(snap, 20)
	if got := rgb(img, 165, 165); got != (color.RGBA{0, 0, 0, 0xff}) {
		t.Errorf("food drawn although HasFood is false: %v", got)
	}
}

func TestFrameGameOverDarkensBoard(t *testing.T) {
	live := Frame(testSnapshot(false), 20)
	over := Frame(testSnapshot(true), 20)

	if over.Bounds() != live.Bounds() {
		t.Fatalf("overlay changed frame size: %v vs %v", over.Bounds(), live.Bounds())
	}
	l, o := rgb(live, 165, 165), rgb(over, 165, 165)
	if o.R >= l.R {
		t.Errorf("food pixel not darkened by overlay: %v -> %v", l, o)
	}
}

func TestImageRendererStoresPNG(t *testing.T) {
	store := memimg.NewStore()
	r := NewImageRenderer(store, "s1", 10, nil)
	r.Render(testSnapshot(false))

	img, ok := store.Image("s1")
	if !ok {
		t.Fatal("no frame stored")
	}
	if b := img.Bounds(); b.Dx() != 100 {
		t.Errorf("stored frame width %d, want 100", b.Dx())
	}
}

func TestFanout(t *testing.T) {
	var a, b atomic.Int32
	f := NewFanout(snake.RendererFunc(func(structs.Snapshot) { a.Add(1) }))
	remove := f.Add(snake.RendererFunc(func(structs.Snapshot) { b.Add(1) }))

	f.Render(structs.Snapshot{})
	remove()
	f.Render(structs.Snapshot{})

	if a.Load() != 2 || b.Load() != 1 {
		t.Errorf("render counts a=%d b=%d, want 2 and 1", a.Load(), b.Load())
	}
	if f.Len() != 1 {
		t.Errorf("Len = %d, want 1", f.Len())
	}
}
