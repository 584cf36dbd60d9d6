package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch 在 filePath 被写入时重新加载配置并以新配置调用 onChange，
// 阻塞直到 ctx 结束
func Watch(ctx context.Context, filePath string, onChange func(*AppConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录，编辑器保存时常常是重命名替换
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("watch %s: %w", filePath, err)
	}
	target := filepath.Clean(filePath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := Reload(filePath); err != nil {
				slog.Warn("config reload failed, keeping previous values", "path", filePath, "error", err)
				continue
			}
			slog.Info("config reloaded", "path", filePath)
			if onChange != nil {
				onChange(Get())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}
