package scanner

import "github.com/wbattistetti/AILawyer-sub000/internal/core/domain"

// DedupIoU is the overlap above which two same-name candidates are duplicates.
const DedupIoU = 0.9

// Dedup drops candidates whose full name equals an earlier kept candidate's
// and whose box overlaps it by more than DedupIoU. The first seen wins.
func Dedup(items []domain.Occurrence) []domain.Occurrence {
	out := make([]domain.Occurrence, 0, len(items))
	for _, x := range items {
		dup := false
		for _, y := range out {
			if y.FullName == x.FullName && y.Box.IoU(x.Box) > DedupIoU {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, x)
		}
	}
	return out
}
