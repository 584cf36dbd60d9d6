package snake

import "github.com/hoshinonyaruko/snake-web/structs"

// Renderer 绘制快照。需要在调用之后保留蛇身切片时必须先复制
type Renderer interface {
	Render(snap structs.Snapshot)
}

// RendererFunc 把函数适配为 Renderer
type RendererFunc func(structs.Snapshot)

func (f RendererFunc) Render(snap structs.Snapshot) { f(snap) }

// Controller 输入源驱动的对象
type Controller interface {
	// RequestDirection 记录下一次 tick 的方向，返回是否被接受（反方向会被忽略）
	RequestDirection(dir structs.Direction) bool
	// Tap 游戏画面上的重新开始手势，每次游戏结束只生效一次
	Tap() bool
	// Restart 无条件开始新的一局
	Restart()
}

// InputSource 把设备事件转换为 Controller 调用
type InputSource interface {
	Attach(c Controller)
}
