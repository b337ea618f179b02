package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/llm"
	"github.com/BaSui01/a11yoverlay/types"
)

// ClarificationQuestion 无法确定意图时返回的默认问题
const ClarificationQuestion = "I'm not sure what you want. Could you be more specific?"

// 匹配策略
const (
	StrategyModel   = "model"
	StrategyKeyword = "keyword"
	StrategyClarify = "clarify"
)

// Interpretation 命令解释结果
type Interpretation struct {
	Match    *types.CommandMatch
	Strategy string
	// Action 被选中的动作，未选中时为 nil
	Action *types.Action
}

// Interpreter 命令解释器，可被多个 goroutine 并发使用
type Interpreter struct {
	provider    llm.Provider
	temperature float64
	recorder    Recorder
	logger      *zap.Logger
}

// NewInterpreter 创建命令解释器
func NewInterpreter(provider llm.Provider, cfg Config, logger *zap.Logger, recorder Recorder) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Interpreter{
		provider:    provider,
		temperature: cfg.CommandTemperature,
		recorder:    recorder,
		logger:      logger.With(zap.String("component", "command_interpreter")),
	}
}

// Interpret 将命令匹配到 analysis 中的某个动作。
// 模型失败或返回未知 id 时退化为关键词匹配；只有 ctx 取消会返回错误。
func (in *Interpreter) Interpret(ctx context.Context, command string, analysis *types.PageAnalysis) (*Interpretation, error) {
	if analysis == nil {
		analysis = &types.PageAnalysis{}
	}

	resp, err := in.provider.Generate(ctx, &llm.GenerateRequest{
		Prompt:  BuildCommandPrompt(command, analysis),
		Options: llm.Options{Temperature: in.temperature},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		in.logger.Warn("text model unavailable, using keyword match",
			zap.Error(err),
			zap.Bool("retryable", types.IsRetryable(err)))
		return in.keyword(command, analysis), nil
	}

	obj, ok := ExtractJSONObject(resp.Content)
	if !ok {
		in.logger.Warn("text model returned no parsable JSON, using keyword match",
			zap.Int("response_chars", len(resp.Content)))
		return in.keyword(command, analysis), nil
	}
	match, ok := decodeCommandMatch(obj, analysis)
	if !ok {
		in.logger.Warn("text model selected an unknown action, using keyword match",
			zap.String("selected", obj.Get("selected_action_id").String()))
		return in.keyword(command, analysis), nil
	}

	in.recorder.RecordCommandMatch(StrategyModel)
	return in.result(match, StrategyModel, analysis), nil
}

func (in *Interpreter) keyword(command string, analysis *types.PageAnalysis) *Interpretation {
	match := KeywordMatch(command, analysis.Actions)
	strategy := StrategyKeyword
	if match.SelectedActionID == nil {
		strategy = StrategyClarify
	}
	in.recorder.RecordCommandMatch(strategy)
	return in.result(match, strategy, analysis)
}

func (in *Interpreter) result(match *types.CommandMatch, strategy string, analysis *types.PageAnalysis) *Interpretation {
	out := &Interpretation{Match: match, Strategy: strategy}
	if match.SelectedActionID != nil {
		if a, ok := analysis.FindAction(*match.SelectedActionID); ok {
			action := *a
			out.Action = &action
		}
	}
	return out
}

// KeywordMatch 按小写空白分词后的词集合交集大小选择动作。
// 分数相同时保留先出现的动作；无任何重叠时要求澄清。
func KeywordMatch(command string, actions []types.Action) *types.CommandMatch {
	cmdWords := wordSet(command)

	bestIdx, bestScore := -1, 0
	for i, a := range actions {
		score := 0
		for w := range wordSet(a.Label) {
			if cmdWords[w] {
				score++
			}
		}
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	if bestIdx < 0 {
		return &types.CommandMatch{
			SelectedActionID:      nil,
			Confidence:            0,
			ClarificationNeeded:   true,
			ClarificationQuestion: ClarificationQuestion,
		}
	}

	id := actions[bestIdx].ID
	conf := 0.3 + 0.2*float64(bestScore)
	if conf > 0.9 {
		conf = 0.9
	}
	return &types.CommandMatch{
		SelectedActionID:    &id,
		Confidence:          round2(conf),
		ClarificationNeeded: false,
		Reasoning:           fmt.Sprintf("Keyword match: %d words", bestScore),
	}
}

func wordSet(s string) map[string]bool {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
