package executor

import "sort"

func sortByPosition(keys []string, position map[string]int) {
	sort.SliceStable(keys, func(i, j int) bool { return position[keys[i]] < position[keys[j]] })
}

func (r *Report) sortByPlan(position map[string]int) {
	for _, list := range [][]string{r.Executed, r.Reused, r.Recovered, r.Skipped, r.Failed} {
		sortByPosition(list, position)
	}
}
