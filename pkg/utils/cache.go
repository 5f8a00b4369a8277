package utils

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的并发安全缓存
// 用 sync.Map 保证并发安全，读到过期条目时懒删除
type TTLCache struct {
	m sync.Map
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      interface{}
	expiration int64
}

// NewTTLCache 创建缓存
func NewTTLCache() *TTLCache {
	return &TTLCache{}
}

// Set 设置缓存
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.m.Store(key, cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl).UnixNano(),
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache) Get(key string) (interface{}, bool) {
	val, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if time.Now().UnixNano() > item.expiration {
		c.m.Delete(key) // 懒删除
		return nil, false
	}

	return item.value, true
}

// Delete 删除缓存
func (c *TTLCache) Delete(key string) {
	c.m.Delete(key)
}

// Flush 清空全部缓存（商品状态变化后搜索结果整体失效）
func (c *TTLCache) Flush() {
	c.m.Range(func(key, _ interface{}) bool {
		c.m.Delete(key)
		return true
	})
}
