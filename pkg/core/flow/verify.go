package flow

import "fmt"

// InvariantError signals a broken flow invariant (capacity exceeded or flow
// not conserved). It indicates a defect and must abort the run.
type InvariantError struct {
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("flow: internal invariant %q violated: %s", e.Invariant, e.Detail)
}

// Verify checks capacity bounds on every edge, pairing of residual twins and
// flow conservation at every node other than source and sink.
func (g *Graph) Verify(source, sink int) error {
	if err := g.checkTerminals(source, sink); err != nil {
		return err
	}

	balance := make([]int, len(g.adj))
	for id := 0; id < len(g.edges); id += 2 {
		e := g.edges[id]
		if e.Flow < 0 || e.Flow > e.Capacity {
			return &InvariantError{
				Invariant: "capacity",
				Detail:    fmt.Sprintf("edge %d→%d carries %d with capacity %d", e.From, e.To, e.Flow, e.Capacity),
			}
		}
		if twin := g.edges[id+1]; twin.Flow != -e.Flow {
			return &InvariantError{
				Invariant: "residual",
				Detail:    fmt.Sprintf("edge %d→%d flow %d does not mirror reverse flow %d", e.From, e.To, e.Flow, twin.Flow),
			}
		}
		balance[e.From] -= e.Flow
		balance[e.To] += e.Flow
	}

	for node, b := range balance {
		if node == source || node == sink {
			continue
		}
		if b != 0 {
			return &InvariantError{
				Invariant: "conservation",
				Detail:    fmt.Sprintf("node %d has net inflow %d", node, b),
			}
		}
	}

	if balance[source] != -balance[sink] {
		return &InvariantError{
			Invariant: "conservation",
			Detail:    fmt.Sprintf("source emits %d but sink absorbs %d", -balance[source], balance[sink]),
		}
	}

	return nil
}
