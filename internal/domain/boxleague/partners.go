package boxleague

// partnerClass is one round's set of disjoint partnerships, stored as a
// partner index per player (-1 when the player has none).
type partnerClass struct {
	partner []int
	size    int
}

func newPartnerClass(n int) *partnerClass {
	c := &partnerClass{partner: make([]int, n)}
	for i := range c.partner {
		c.partner[i] = -1
	}
	return c
}

func (c *partnerClass) add(e [2]int) {
	if e[0] < 0 || e[1] < 0 {
		return
	}
	c.partner[e[0]], c.partner[e[1]] = e[1], e[0]
	c.size++
}

func (c *partnerClass) remove(e [2]int) {
	c.partner[e[0]], c.partner[e[1]] = -1, -1
	c.size--
}

// pairs lists the partnerships ordered by their lower player index.
func (c *partnerClass) pairs() [][2]int {
	out := make([][2]int, 0, c.size)
	for v, w := range c.partner {
		if w > v {
			out = append(out, [2]int{v, w})
		}
	}
	return out
}

func (c *partnerClass) load(sitOuts []int) int {
	total := 0
	for v, w := range c.partner {
		if w >= 0 {
			total += sitOuts[v]
		}
	}
	return total
}

// partnerSchedule hands out rounds of perRound disjoint partnerships so that
// after any round every partnership has been used either k or k+1 times.
// Each cycle covers all n(n-1)/2 partnerships exactly once; a cycle whose
// last round comes up short is completed with partnerships of the next one.
type partnerSchedule struct {
	n, perRound int
	queue       []*partnerClass
	lead        *partnerClass
	carry       *partnerClass
}

func newPartnerSchedule(n, perRound int) *partnerSchedule {
	return &partnerSchedule{n: n, perRound: perRound}
}

// next returns the following round's partnerships. Within a cycle the round
// whose players sat out most so far goes first.
func (p *partnerSchedule) next(sitOuts []int) [][2]int {
	if p.lead == nil && len(p.queue) == 0 {
		p.refill(sitOuts)
	}
	if p.lead != nil {
		c := p.lead
		p.lead = nil
		return c.pairs()
	}
	best := 0
	for i, c := range p.queue {
		if c.load(sitOuts) > p.queue[best].load(sitOuts) {
			best = i
		}
	}
	c := p.queue[best]
	p.queue = append(p.queue[:best], p.queue[best+1:]...)
	return c.pairs()
}

func (p *partnerSchedule) refill(sitOuts []int) {
	var seed [][2]int
	if p.carry != nil {
		seed = p.seedAround(p.carry, sitOuts)
	}
	classes := circleClasses(cycleOrder(p.n, seed))
	for _, e := range seed {
		classes[0].remove(e)
	}
	classes = balanceClasses(classes, p.n, p.perRound)

	if p.carry != nil {
		for _, e := range seed {
			p.carry.add(e)
		}
		p.lead = p.carry
	}
	p.carry = nil
	p.queue = p.queue[:0]
	for _, c := range classes {
		switch {
		case c.size == p.perRound:
			p.queue = append(p.queue, c)
		case c.size > 0:
			p.carry = c
		}
	}
}

// seedAround picks the partnerships that complete a short round: pairs of
// players outside it, those with the most sit-outs first.
func (p *partnerSchedule) seedAround(short *partnerClass, sitOuts []int) [][2]int {
	var free []int
	for v, w := range short.partner {
		if w < 0 {
			free = append(free, v)
		}
	}
	for i := 1; i < len(free); i++ {
		for j := i; j > 0 && sitOuts[free[j]] > sitOuts[free[j-1]]; j-- {
			free[j], free[j-1] = free[j-1], free[j]
		}
	}
	seed := make([][2]int, 0, p.perRound-short.size)
	for i := 0; len(seed) < p.perRound-short.size; i += 2 {
		seed = append(seed, [2]int{free[i], free[i+1]})
	}
	return seed
}

// cycleOrder assigns players to circle positions so the seed partnerships
// land in the first round.
func cycleOrder(n int, seed [][2]int) []int {
	size := n + n%2
	fixed := size - 1
	var slots [][2]int
	if n%2 == 0 {
		slots = append(slots, [2]int{fixed, 0})
	}
	for k := 1; k < size/2; k++ {
		slots = append(slots, [2]int{k, fixed - k})
	}

	order := make([]int, n)
	for i := range order {
		order[i] = -1
	}
	placed := make([]bool, n)
	for i, e := range seed {
		order[slots[i][0]], order[slots[i][1]] = e[0], e[1]
		placed[e[0]], placed[e[1]] = true, true
	}
	next := 0
	for pos := range order {
		if order[pos] >= 0 {
			continue
		}
		for placed[next] {
			next++
		}
		order[pos] = next
		placed[next] = true
	}
	return order
}

// circleClasses is the circle-method 1-factorization over order; an odd
// player count gets a phantom slot whose partner sits out.
func circleClasses(order []int) []*partnerClass {
	n := len(order)
	size := n + n%2
	fixed := size - 1
	at := func(pos int) int {
		if pos >= n {
			return -1
		}
		return order[pos]
	}
	classes := make([]*partnerClass, 0, fixed)
	for r := 0; r < fixed; r++ {
		c := newPartnerClass(n)
		c.add([2]int{at(fixed), at(r)})
		for k := 1; k < size/2; k++ {
			c.add([2]int{at((r + k) % fixed), at((r - k + fixed) % fixed)})
		}
		classes = append(classes, c)
	}
	return classes
}

// balanceClasses reshapes classes into rounds of exactly m partnerships plus
// at most one shorter round. Oversized classes give partnerships to the
// largest class still short of m, which keeps a single partial class.
func balanceClasses(classes []*partnerClass, n, m int) []*partnerClass {
	for {
		donor := -1
		for i, c := range classes {
			if c.size > m {
				donor = i
				break
			}
		}
		if donor < 0 {
			break
		}
		recv := -1
		for i, c := range classes {
			if c.size < m && (recv < 0 || c.size > classes[recv].size) {
				recv = i
			}
		}
		if recv < 0 {
			classes = append(classes, newPartnerClass(n))
			recv = len(classes) - 1
		}
		shiftPartnership(classes[donor], classes[recv])
	}
	out := classes[:0]
	for _, c := range classes {
		if c.size > 0 {
			out = append(out, c)
		}
	}
	return out
}

// shiftPartnership moves one partnership from d to r, d being the larger.
// The union of two matchings is paths and even cycles; flipping a path that
// starts and ends in d keeps both matchings valid.
func shiftPartnership(d, r *partnerClass) {
	for v := range d.partner {
		if d.partner[v] < 0 || r.partner[v] >= 0 {
			continue
		}
		var path [][2]int
		x, inD := v, true
		for {
			cls := r
			if inD {
				cls = d
			}
			y := cls.partner[x]
			if y < 0 {
				break
			}
			path = append(path, [2]int{x, y})
			x, inD = y, !inD
		}
		if len(path)%2 == 0 {
			continue
		}
		for i, e := range path {
			if i%2 == 0 {
				d.remove(e)
			} else {
				r.remove(e)
			}
		}
		for i, e := range path {
			if i%2 == 0 {
				r.add(e)
			} else {
				d.add(e)
			}
		}
		return
	}
}
