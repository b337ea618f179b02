// Package api 定义 A11y Overlay HTTP API 的请求/响应类型。
//
// # API Overview
//
// 服务为浏览器扩展提供以下端点：
//   - POST /api/analyze-page          multipart 截图 + DOM 元素 → 排序后的动作
//   - POST /api/analyze-page-base64   base64 截图变体
//   - POST /api/interpret-command     自然语言命令 → 选中的动作或澄清问题
//   - GET|DELETE /api/sessions/{id}   会话查询与删除
//   - POST /api/transcribe            上传音频转写
//   - GET  /ws/transcribe             WebSocket 流式转写
//   - GET  /health, /healthz, /ready, /version
//
// 成功响应直接返回负载 JSON；错误使用统一信封：
//
//	{"success": false, "error": {"code": "...", "message": "...", "retryable": false}, "timestamp": "..."}
//
// # Authentication
//
// 配置了 server.api_keys 时，/api 与 /ws 端点需要 X-API-Key 请求头。
//
// # Base URL
//
//	http://localhost:8000
package api
