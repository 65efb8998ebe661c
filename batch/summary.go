package batch

import (
	"sort"

	"github.com/uyouii/cycle-life-analysis/common"
	"github.com/uyouii/cycle-life-analysis/model"
)

// Summary counts the outcomes of a run.
type Summary struct {
	Total    int                   `json:"total"`
	ByStatus map[common.Status]int `json:"by_status"`
	ByReason map[string]int        `json:"by_reason"`
}

func Summarize(rows []*model.ResultRow) *Summary {
	s := &Summary{
		ByStatus: map[common.Status]int{},
		ByReason: map[string]int{},
	}
	for _, status := range common.AllStatuses {
		s.ByStatus[status] = 0
	}
	for _, row := range rows {
		if row == nil {
			continue
		}
		s.Total++
		s.ByStatus[row.Status]++
		if row.Reason != "" {
			s.ByReason[row.Reason]++
		}
	}
	return s
}

func (s *Summary) Failed() int {
	return s.Total - s.ByStatus[common.StatusOK]
}

// Reasons returns the failure kinds in a stable order.
func (s *Summary) Reasons() []string {
	res := make([]string, 0, len(s.ByReason))
	for reason := range s.ByReason {
		res = append(res, reason)
	}
	sort.Strings(res)
	return res
}
