// Copyright (c) A11y Overlay Authors.
// Licensed under the MIT License.

/*
Package imaging 将任意截图规范化为视觉模型可接受的输入。

流程：剥离 data URL 前缀并 base64 解码 → 解码 PNG/JPEG/GIF →
强制转换为 3 通道 RGB（丢弃 alpha）→ 长边超过 1024 时按比例用
Lanczos3 缩放 → 以 JPEG(quality 85) 重新编码并输出 base64。

该包是纯函数式的，不持有任何状态，可在任意 goroutine 中并发调用。
*/
package imaging
