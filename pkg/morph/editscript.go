package morph

// Operation is one step of an edit script.
type Operation uint8

const (
	OpKeep   Operation = iota // Match, no content change
	OpUpdate                  // Match, content replaced in place
	OpDelete                  // Remove the current source item
	OpInsert                  // Insert the current target item
)

// String returns the string representation of the Operation.
func (op Operation) String() string {
	switch op {
	case OpKeep:
		return "Keep"
	case OpUpdate:
		return "Update"
	case OpDelete:
		return "Delete"
	case OpInsert:
		return "Insert"
	default:
		return "Unknown"
	}
}

// EditScript transforms a source sequence into a target sequence.
// The first SkipCount items of both sequences match with CostNone and are not
// listed in Operations.
type EditScript struct {
	SkipCount  int
	Operations []Operation
}

// ComputeEditScript returns the cheapest edit script turning source into
// target. Delete and insert cost 1; a diagonal step costs cost(s, t) and is
// forbidden when that is CostInfinite. Among equally cheap scripts the one
// that keeps or updates earliest wins, then the one that deletes before it
// inserts.
func ComputeEditScript[T any](source, target []T, cost func(a, b T) UpdateCost) EditScript {
	skip := 0
	for skip < len(source) && skip < len(target) && cost(source[skip], target[skip]) == CostNone {
		skip++
	}

	src, tgt := source[skip:], target[skip:]
	n, m := len(src), len(tgt)
	script := EditScript{SkipCount: skip}
	if n == 0 && m == 0 {
		return script
	}

	// dist[i][j] is the cheapest way to turn src[i:] into tgt[j:].
	width := m + 1
	dist := make([]int, (n+1)*width)
	pair := make([]UpdateCost, n*m)

	for i := n; i >= 0; i-- {
		for j := m; j >= 0; j-- {
			switch {
			case i == n:
				dist[i*width+j] = m - j
			case j == m:
				dist[i*width+j] = n - i
			default:
				best := 1 + min(dist[(i+1)*width+j], dist[i*width+j+1])
				c := cost(src[i], tgt[j])
				pair[i*m+j] = c
				if w, ok := c.weight(); ok {
					best = min(best, w+dist[(i+1)*width+j+1])
				}
				dist[i*width+j] = best
			}
		}
	}

	ops := make([]Operation, 0, max(n, m))
	i, j := 0, 0
	for i < n || j < m {
		here := dist[i*width+j]

		if i < n && j < m {
			c := pair[i*m+j]
			if w, ok := c.weight(); ok && w+dist[(i+1)*width+j+1] == here {
				if c == CostNone {
					ops = append(ops, OpKeep)
				} else {
					ops = append(ops, OpUpdate)
				}
				i++
				j++
				continue
			}
		}

		if i < n && 1+dist[(i+1)*width+j] == here {
			ops = append(ops, OpDelete)
			i++
			continue
		}

		ops = append(ops, OpInsert)
		j++
	}

	script.Operations = ops
	return script
}
