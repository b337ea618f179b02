package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/analyzer"
	"github.com/BaSui01/a11yoverlay/api"
	"github.com/BaSui01/a11yoverlay/internal/ctxkeys"
	"github.com/BaSui01/a11yoverlay/internal/session"
	"github.com/BaSui01/a11yoverlay/types"
)

// 超出该大小的 multipart 部分写入临时文件
const maxMultipartMemory = 32 << 20

// DefaultMaxUploadBytes 默认请求体上限
const DefaultMaxUploadBytes int64 = 20 << 20

// PageAnalyzer 页面分析能力，由 *analyzer.Analyzer 实现
type PageAnalyzer interface {
	Analyze(ctx context.Context, req *analyzer.Request) (*analyzer.Result, error)
}

// CommandInterpreter 命令解释能力，由 *analyzer.Interpreter 实现
type CommandInterpreter interface {
	Interpret(ctx context.Context, command string, analysis *types.PageAnalysis) (*analyzer.Interpretation, error)
}

// =============================================================================
// 📄 页面分析 Handler
// =============================================================================

// PageHandler 页面分析、命令解释与会话端点
type PageHandler struct {
	analyzer       PageAnalyzer
	interpreter    CommandInterpreter
	store          session.Store
	locks          *session.KeyedMutex
	maxUploadBytes int64
	now            func() time.Time
	logger         *zap.Logger
}

// NewPageHandler 创建页面处理器。maxUploadBytes <= 0 时使用 DefaultMaxUploadBytes。
func NewPageHandler(a PageAnalyzer, in CommandInterpreter, store session.Store, maxUploadBytes int64, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &PageHandler{
		analyzer:       a,
		interpreter:    in,
		store:          store,
		locks:          session.NewKeyedMutex(),
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
		logger:         logger.With(zap.String("component", "page_handler")),
	}
}

// HandleRoot 处理 / 请求
func (h *PageHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.RootResponse{Message: "A11y Overlay API"})
}

// HandleAnalyzePage 处理截图文件上传分析
// @Summary 页面分析
// @Description 上传截图与 DOM 元素，返回排序后的可执行动作
// @Tags 页面
// @Accept multipart/form-data
// @Produce json
// @Param screenshot formData file true "截图（image/*）"
// @Param dom_elements formData string true "可交互元素 JSON 数组"
// @Param session_id formData string false "会话 ID，留空自动生成"
// @Success 200 {object} api.AnalyzePageResponse "分析结果"
// @Failure 400 {object} Response "无效请求"
// @Failure 413 {object} Response "请求体过大"
// @Security ApiKeyAuth
// @Router /api/analyze-page [post]
func (h *PageHandler) HandleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	file, header, err := r.FormFile("screenshot")
	if err != nil {
		WriteError(w, types.NewInvalidRequestError("screenshot file is required"), h.logger)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		WriteError(w, types.NewInvalidRequestError("File must be an image"), h.logger)
		return
	}

	elements, err := h.parseElements(r)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	sessionID := sessionIDOrNew(r.FormValue("session_id"))
	res, err := h.analyze(r.Context(), sessionID, &analyzer.Request{Image: data, Elements: elements}, func() *types.ImageInfo {
		return &types.ImageInfo{
			Filename:    header.Filename,
			ContentType: contentType,
			SizeBytes:   len(data),
		}
	})
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.AnalyzePageResponse{
		SessionID:     sessionID,
		Analysis:      res.analysis,
		ImageInfo:     res.imageInfo,
		ElementsCount: len(elements),
		Fallback:      res.fallback,
		Timestamp:     h.now(),
	})
}

// HandleAnalyzePageBase64 处理 base64 截图分析
// @Summary 页面分析（base64）
// @Description screenshot 为 base64 字符串或 data URL
// @Tags 页面
// @Accept x-www-form-urlencoded
// @Produce json
// @Param screenshot formData string true "base64 截图"
// @Param dom_elements formData string true "可交互元素 JSON 数组"
// @Param session_id formData string false "会话 ID"
// @Success 200 {object} api.AnalyzePageBase64Response "分析结果"
// @Failure 400 {object} Response "无效请求"
// @Security ApiKeyAuth
// @Router /api/analyze-page-base64 [post]
func (h *PageHandler) HandleAnalyzePageBase64(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	screenshot := strings.TrimSpace(r.FormValue("screenshot"))
	if screenshot == "" {
		WriteError(w, types.NewInvalidRequestError("screenshot is required"), h.logger)
		return
	}

	elements, err := h.parseElements(r)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	sessionID := sessionIDOrNew(r.FormValue("session_id"))
	res, err := h.analyze(r.Context(), sessionID, &analyzer.Request{ImageBase64: screenshot, Elements: elements}, nil)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.AnalyzePageBase64Response{
		SessionID:     sessionID,
		Analysis:      res.analysis,
		ElementsCount: len(elements),
		Fallback:      res.fallback,
	})
}

// HandleInterpretCommand 处理自然语言命令
// @Summary 命令解释
// @Description 将命令匹配到会话中最近一次分析的某个动作
// @Tags 页面
// @Accept x-www-form-urlencoded
// @Produce json
// @Param command formData string true "用户命令"
// @Param session_id formData string true "会话 ID"
// @Success 200 {object} api.InterpretCommandResponse "匹配结果"
// @Failure 404 {object} Response "会话不存在"
// @Security ApiKeyAuth
// @Router /api/interpret-command [post]
func (h *PageHandler) HandleInterpretCommand(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	command := strings.TrimSpace(r.FormValue("command"))
	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	if command == "" {
		WriteError(w, types.NewInvalidRequestError("command is required"), h.logger)
		return
	}
	if sessionID == "" {
		WriteError(w, types.NewInvalidRequestError("session_id is required"), h.logger)
		return
	}

	unlock := h.locks.Lock(sessionID)
	defer unlock()

	ctx := ctxkeys.WithSessionID(r.Context(), sessionID)
	sess, err := h.store.Get(ctx, sessionID)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	out, err := h.interpreter.Interpret(ctx, command, sess.Analysis)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	h.logger.Debug("command interpreted",
		zap.String("session_id", sessionID),
		zap.String("strategy", out.Strategy),
		zap.Float64("confidence", out.Match.Confidence))

	WriteJSON(w, http.StatusOK, api.InterpretCommandResponse{
		CommandMatch:  *out.Match,
		ActionDetails: out.Action,
		Strategy:      out.Strategy,
	})
}

// HandleGetSession 处理 GET /api/sessions/{id}
// @Summary 查询会话
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} api.SessionResponse "会话"
// @Failure 404 {object} Response "会话不存在"
// @Security ApiKeyAuth
// @Router /api/sessions/{id} [get]
func (h *PageHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.SessionResponse{
		SessionID:     sess.ID,
		Analysis:      sess.Analysis,
		ElementsCount: len(sess.Elements),
		ImageInfo:     sess.ImageInfo,
		CreatedAt:     sess.CreatedAt,
		UpdatedAt:     sess.UpdatedAt,
	})
}

// HandleDeleteSession 处理 DELETE /api/sessions/{id}
// @Summary 删除会话
// @Tags 会话
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} api.SessionDeleteResponse "已删除"
// @Failure 404 {object} Response "会话不存在"
// @Security ApiKeyAuth
// @Router /api/sessions/{id} [delete]
func (h *PageHandler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	unlock := h.locks.Lock(id)
	defer unlock()

	existed, err := h.store.Delete(r.Context(), id)
	if err != nil {
		WriteErr(w, err, h.logger)
		return
	}
	if !existed {
		WriteError(w, types.NewSessionNotFoundError(id), h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.SessionDeleteResponse{SessionID: id, Deleted: true})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

type analyzeOutcome struct {
	analysis  *types.PageAnalysis
	imageInfo *types.ImageInfo
	fallback  bool
}

// analyze 在会话锁内执行分析并保存会话
func (h *PageHandler) analyze(ctx context.Context, sessionID string, req *analyzer.Request, info func() *types.ImageInfo) (*analyzeOutcome, error) {
	unlock := h.locks.Lock(sessionID)
	defer unlock()

	ctx = ctxkeys.WithSessionID(ctx, sessionID)
	res, err := h.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	var imageInfo *types.ImageInfo
	if info != nil {
		imageInfo = info()
		if res.Image != nil {
			imageInfo.Width = res.Image.OriginalWidth
			imageInfo.Height = res.Image.OriginalHeight
		}
	}

	now := h.now()
	sess := &types.Session{
		ID:        sessionID,
		Analysis:  res.Analysis,
		Elements:  req.Elements,
		ImageInfo: imageInfo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, err := h.store.Get(ctx, sessionID); err == nil {
		sess.CreatedAt = prev.CreatedAt
	} else if !types.IsErrorCode(err, types.ErrSessionNotFound) {
		return nil, err
	}
	if err := h.store.Put(ctx, sess); err != nil {
		return nil, err
	}

	h.logger.Info("page analyzed",
		zap.String("session_id", sessionID),
		zap.Int("elements", len(req.Elements)),
		zap.Int("actions", len(res.Analysis.Actions)),
		zap.Bool("fallback", res.Fallback))

	return &analyzeOutcome{analysis: res.Analysis, imageInfo: imageInfo, fallback: res.Fallback}, nil
}

// parseForm 限制请求体大小并解析 multipart 或 urlencoded 表单
func (h *PageHandler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(maxMultipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return types.NewInvalidRequestError("invalid form body").WithCause(err)
}

func (h *PageHandler) parseElements(r *http.Request) ([]types.InteractiveElement, error) {
	if _, ok := r.Form["dom_elements"]; !ok {
		return nil, types.NewInvalidRequestError("dom_elements is required")
	}
	elements, repaired, err := analyzer.ParseElements(r.FormValue("dom_elements"))
	if err != nil {
		return nil, types.NewInvalidRequestError(err.Error()).WithCause(err)
	}
	if repaired {
		h.logger.Warn("dom_elements repaired from single-quoted JSON",
			zap.Int("elements", len(elements)))
	}
	return elements, nil
}

func sessionIDOrNew(id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	return uuid.NewString()
}
