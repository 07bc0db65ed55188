package resolve

import (
	"context"

	"github.com/John-Robertt/CSRN/internal/domain"
	"github.com/John-Robertt/CSRN/internal/rename"
)

// Applier 把一次 Matched 落成实际改名。
// 解析器只关心三件事：落在哪（newAbs）、目录是否动了（批处理要 remap）、
// 是否真的有改动（进度计数）。lookup 等只读场景传 nil Applier。
type Applier interface {
	Apply(e domain.Entry, res domain.Resolution) (newAbs string, dirChange [2]string, dirMoved bool, changed bool, err error)
}

// Result 是批处理里单个条目的最终记录（喂给运行报告）。
type Result struct {
	Entry      domain.Entry
	Resolution domain.Resolution

	// Status 取 domain.Status* 之一；NewPath 仅在改名发生后有值。
	Status   string
	NewPath  string
	ApplyErr error
}

// ResolveAll 顺序解析全部条目。
//
// 约束：
// - Cancelled 立即终止：后续条目不再处理，也不出现在返回值里
// - 目录改名通过最长前缀映射改写后续条目的路径（同一目录多文件的场景）
// - 进度计数在每个终态后更新，下一条目的 Presenting 头部才能反映它
func (r *Resolver) ResolveAll(ctx context.Context, entries []domain.Entry, apply Applier) []Result {
	results := make([]Result, 0, len(entries))
	dirMapping := make(map[string]string)
	var counts struct{ renamed, unchanged, skipped int }

	for i, e := range entries {
		e.AbsPath = rename.RemapPath(e.AbsPath, dirMapping)

		prog := Progress{
			Index:     i + 1,
			Total:     len(entries),
			Renamed:   counts.renamed,
			Unchanged: counts.unchanged,
			Skipped:   counts.skipped,
		}

		res := r.ResolveEntry(ctx, e, prog)
		rec := Result{Entry: e, Resolution: res}

		switch res.Outcome {
		case domain.OutcomeCancelled:
			r.Log.Info().Int("done", i).Int("total", len(entries)).Msg("用户取消，终止批处理")
			rec.Status = domain.StatusSkipped
			return append(results, rec)

		case domain.OutcomeMatched:
			if apply == nil {
				rec.Status = domain.StatusUnchanged
				counts.unchanged++
				break
			}
			newAbs, dirChange, dirMoved, changed, err := apply.Apply(e, res)
			if err != nil {
				r.Log.Error().Err(err).Str("path", e.AbsPath).Msg("改名失败")
				rec.Status = domain.StatusFailed
				rec.ApplyErr = err
				counts.skipped++
				break
			}
			if dirMoved {
				dirMapping[dirChange[0]] = dirChange[1]
			}
			rec.NewPath = newAbs
			if changed {
				rec.Status = domain.StatusRenamed
				counts.renamed++
			} else {
				rec.Status = domain.StatusUnchanged
				counts.unchanged++
			}

		case domain.OutcomeSkipped:
			rec.Status = domain.StatusSkipped
			counts.skipped++

		case domain.OutcomeUnresolved:
			rec.Status = domain.StatusFailed
			counts.skipped++
		}

		results = append(results, rec)
	}
	return results
}

// RenameApplier 是 Applier 的默认实现：按 `Title (Year)` 规范落盘。
type RenameApplier struct {
	Root string
}

func (a RenameApplier) Apply(e domain.Entry, res domain.Resolution) (string, [2]string, bool, bool, error) {
	base := rename.FormatMediaName(res.Candidate.Title, res.Candidate.Year)
	out, err := rename.Apply(e.AbsPath, base, a.Root)
	if err != nil {
		return e.AbsPath, [2]string{}, false, false, err
	}
	return out.NewPath, out.DirChange, out.DirMoved, out.Changed, nil
}
