package boxleague

import "math"

// exhaustiveLimit bounds the exact search; 12 items is 10395 matchings.
const exhaustiveLimit = 12

// minCostMatching pairs items 0..n-1 (n even) minimizing the summed pair
// cost. Costs must be non-negative. Small inputs are searched exactly, the
// first minimum in lexicographic order wins; larger ones are matched greedily.
func minCostMatching(n int, cost func(i, j int) int) [][2]int {
	if n <= exhaustiveLimit {
		return exhaustiveMatching(n, cost)
	}
	return greedyMatching(n, cost)
}

func exhaustiveMatching(n int, cost func(i, j int) int) [][2]int {
	best := math.MaxInt
	var bestPairs [][2]int
	used := make([]bool, n)
	current := make([][2]int, 0, n/2)

	var search func(sum int)
	search = func(sum int) {
		if sum >= best {
			return
		}
		i := 0
		for i < n && used[i] {
			i++
		}
		if i == n {
			best = sum
			bestPairs = append([][2]int(nil), current...)
			return
		}
		used[i] = true
		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			used[j] = true
			current = append(current, [2]int{i, j})
			search(sum + cost(i, j))
			current = current[:len(current)-1]
			used[j] = false
		}
		used[i] = false
	}
	search(0)
	return bestPairs
}

func greedyMatching(n int, cost func(i, j int) int) [][2]int {
	used := make([]bool, n)
	pairs := make([][2]int, 0, n/2)
	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		best := -1
		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if best < 0 || cost(i, j) < cost(i, best) {
				best = j
			}
		}
		if best < 0 {
			break
		}
		used[i], used[best] = true, true
		pairs = append(pairs, [2]int{i, best})
	}
	return pairs
}
