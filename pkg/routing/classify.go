package routing

import "regexp"

// Mode is the execution mode chosen for a task.
type Mode string

// Execution modes.
const (
	// ModeDirect runs the task as a plain pass-through command on the
	// worker: fast, no agent reasoning.
	ModeDirect Mode = "direct"
	// ModeReasoning runs the task through the worker's agent-reasoning
	// path: slower but handles ambiguity and multi-step work.
	ModeReasoning Mode = "reasoning"
)

// directIntent matches simple inspection requests: listing, showing,
// checking state. These are safe to run as pass-through commands.
var directIntent = regexp.MustCompile(`(?i)\b(list|show|status|check|ps|running|uptime)\b|列出|查看|状态|磁盘|内存`)

// reasoningIntent matches corrective or ambiguous requests that need the
// agent path: diagnosis, repair, configuration, generation.
var reasoningIntent = regexp.MustCompile(`(?i)\b(debug|fix|why|how|investigate|analyze|optimize|configure|setup|install|deploy|create|write|generate|problem|error|crash\w*|help|please)\b|为什么|怎么|调试|修复|问题|错误|帮我|分析|优化|设置|配置|安装|部署|创建|编写|生成`)

// Classify picks an execution mode for a task. The heuristic is
// best-effort: a wrong answer only means a slower or less automated path,
// never incorrect task content. Anything matching a corrective or
// ambiguous intent resolves to ModeReasoning, even when an inspection verb
// also matches; text matching neither set resolves to ModeReasoning as the
// safer path.
func Classify(task string) Mode {
	if reasoningIntent.MatchString(task) {
		return ModeReasoning
	}
	if directIntent.MatchString(task) {
		return ModeDirect
	}
	return ModeReasoning
}
