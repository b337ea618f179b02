// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package session 保存 analyze-page 产生的页面分析结果，供后续
interpret-command 按 session_id 读取。

# 后端

  - MemoryStore：进程内 map + 互斥锁，后台 janitor 定期清理过期会话，
    并通过 ActiveSessionsRecorder 上报当前会话数。
  - RedisStore：基于 internal/cache.Manager，会话以 JSON 存储在
    "session:{id}" 键下，过期由 Redis TTL 负责。

两种后端共享 TTL 语义：每次 Put 重置过期时间，TTL 为 0 表示永不过期。
Get 未命中返回 types.ErrSessionNotFound 错误码。

KeyedMutex 为同一 session_id 上的 analyze / interpret / delete 提供串行化。
*/
package session
