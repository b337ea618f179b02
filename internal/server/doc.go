// 版权所有 2024 A11y Overlay Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供 HTTP/HTTPS 服务器生命周期管理，支持非阻塞启动、
优雅关闭与系统信号监听。a11yoverlay 的 API 服务与 Prometheus
指标服务各自由一个 Manager 承载。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与异步错误通道，
    提供 Start/StartTLS/Shutdown/WaitForShutdown 等生命周期方法。
  - Config：名称、监听地址、读写超时、空闲超时、最大请求头大小
    与优雅关闭超时。WriteTimeout 默认 90s，覆盖一次视觉模型调用。

# 主要能力

  - 非阻塞启动：Start/StartTLS 在后台 goroutine 中运行服务。
  - 优雅关闭：Shutdown 在配置的超时内完成请求排空，可重复调用。
  - 信号监听：WaitForShutdown 监听 SIGINT/SIGTERM 与 ctx。
  - 错误传播：Errors() 返回异步错误通道。
  - 地址查询：ListenAddr 返回实际监听地址，便于 ":0" 测试。
*/
package server
