package export

// State 是一次导出在管线中的阶段。
type State int

const (
	StateIdle State = iota
	StateCapturing
	StatePaginating
	StateSaved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StatePaginating:
		return "paginating"
	case StateSaved:
		return "saved"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// next 列出合法的阶段迁移。
var next = map[State][]State{
	StateIdle:       {StateCapturing},
	StateCapturing:  {StatePaginating, StateFailed},
	StatePaginating: {StateSaved, StateFailed},
	StateSaved:      {StateIdle},
	StateFailed:     {StateIdle},
}

// CanTransition 报告 from -> to 是否合法。
func CanTransition(from, to State) bool {
	for _, s := range next[from] {
		if s == to {
			return true
		}
	}
	return false
}
