package domain

// Outcome 是一次解析的终态标签。每个条目恰好产生一个终态，不多不少。
type Outcome int

const (
	OutcomeMatched Outcome = iota
	OutcomeSkipped
	OutcomeCancelled
	OutcomeUnresolved
)

// 跳过原因（SkipReason）。
const (
	SkipReasonUser   = "user"   // 用户显式跳过
	SkipReasonSource = "source" // 来源不可用/解析失败，用户选择跳过
)

// Resolution 是对一个文件系统条目的最终裁决。
//
// 不变量：
// - 每个条目每次 run 恰好产生一个 Resolution，产生后不可变
// - 携带的信息必须足以让改名器直接计算目标名，不需要二次查询
// - Outcome==Matched 时 Candidate 必填；Detail/Delta 允许缺失
//   （选中后的 detail 抓取失败不推翻选择）
type Resolution struct {
	Outcome Outcome

	Candidate Candidate
	Detail    CandidateDetail
	HasDetail bool
	Delta     DurationDelta

	SkipReason string
	Err        error
}

func Matched(c Candidate, d CandidateDetail, hasDetail bool, delta DurationDelta) Resolution {
	return Resolution{
		Outcome:   OutcomeMatched,
		Candidate: c,
		Detail:    d,
		HasDetail: hasDetail,
		Delta:     delta,
	}
}

func Skipped(reason string) Resolution {
	return Resolution{Outcome: OutcomeSkipped, SkipReason: reason}
}

func Cancelled() Resolution {
	return Resolution{Outcome: OutcomeCancelled}
}

func Unresolved(err error) Resolution {
	return Resolution{Outcome: OutcomeUnresolved, Err: err}
}
