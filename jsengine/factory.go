package jsengine

import (
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Constructor 是引擎构造器函数签名。
type Constructor func() Engine

var (
	registryMu sync.RWMutex
	registry   = map[EngineName]Constructor{}
)

// Register 注册引擎构造器。
func Register(name EngineName, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// New 根据配置创建引擎实例（未初始化）。
func New(cfg Config) (Engine, error) {
	name := cfg.Name
	if name == "" {
		name = EngineGoja
	}
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok || ctor == nil {
		return nil, &EngineError{
			Kind:    ErrInit,
			Message: fmt.Sprintf("不支持的引擎类型: %s", name),
		}
	}
	return ctor(), nil
}

// Registered 返回已注册的引擎名，按字典序排列。
func Registered() []EngineName {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := lo.Keys(registry)
	slices.Sort(names)
	return names
}
