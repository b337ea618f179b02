// Copyright 2026 A11y Overlay Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 a11yoverlay 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / CancelledContext，自动注册 Cleanup 防止泄漏
  - 上传构造: NewUpload，按字段拼装截图或音频的 multipart 请求体
  - 数据工具: MustJSON / DecodeJSON

# 子包

  - testutil/mocks: MockProvider（llm.Provider），支持 Builder 模式、
    调用记录与错误注入
  - testutil/fixtures: 测试数据工厂，提供样例元素、样例分析结果与
    内存中生成的 PNG 截图

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewMockProvider().WithVisionResponse(fixtures.AnalysisJSON)
	res, err := analyzer.New(provider, analyzer.DefaultConfig(), nil).Analyze(ctx, req)
*/
package testutil
