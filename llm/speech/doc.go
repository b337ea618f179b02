// 版权所有 2024 A11y Overlay Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 speech 提供语音识别 (STT) 接入层，将麦克风录音转写为文本，
供命令解释器使用。

# 概述

本地部署的 Whisper 服务（faster-whisper-server、whisper.cpp server 等）
普遍暴露 OpenAI 兼容的 /v1/audio/transcriptions 端点。WhisperProvider
以 multipart 上传音频，请求 verbose_json 格式，并把片段级结果标准化为
STTResponse。

# 核心类型

  - Transcriber：语音转文本接口。
  - STTRequest / STTResponse：标准化请求与响应模型。
  - Segment：带起止时间（秒）的转录片段。
  - ChunkBuffer：流式场景下累积音频分片，直到收到结束信号再整体转写。
*/
package speech
