// 版权所有 2024 A11y Overlay Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的键值存储能力，支持连接池、健康检查、
键前缀隔离与 JSON 序列化。internal/session 的 Redis 后端构建在它之上。

# 核心类型

  - Manager：持有 Redis 客户端与连接池配置，
    提供 Get/Set/GetJSON/SetJSON/Delete/CountKeys 等基础操作，
    以及 GetJSON/SetJSON 便捷序列化方法。
  - Config：地址、密码、连接池大小、默认 TTL、键前缀、
    TLS 开关与健康检查间隔等参数。

# 主要能力

  - TTL 语义：ttl == 0 使用 DefaultTTL，ttl < 0（NoExpiration）表示永不过期。
  - 健康检查：后台定时 Ping 检测，异常时通过 zap 日志告警；Close 时退出。
  - 错误语义：提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数。
*/
package cache
