// Package config 提供 a11yoverlay 的配置管理功能。
//
// 配置按 默认值 → .env 文件 → YAML 文件 → 环境变量 的顺序叠加，
// 环境变量统一使用 A11Y_ 前缀（例如 A11Y_MODEL_BASE_URL）。
package config
