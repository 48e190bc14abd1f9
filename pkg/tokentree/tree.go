// Package tokentree walks parent/child compositions of tokens and
// blessings. The links live in mutable documents and may have been
// edited into cycles, so every traversal runs an explicit worklist with
// a visited set; nothing here recurses on the raw child links.
package tokentree

import (
	"reciprodb/pkg/blessing"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
)

// Node is a resolved tree member: a token or a blessing.
type Node struct {
	ID       string
	Token    *models.Token
	Blessing *models.Blessing
}

func (n *Node) children() []string {
	if n.Token != nil {
		return n.Token.Children
	}
	if n.Blessing != nil {
		return n.Blessing.Children
	}
	return nil
}

// resolve looks an id up first as a token, then as a blessing. Unknown
// ids resolve to nil; the tree degrades gracefully instead of erroring.
func resolve(id string) (*Node, error) {
	t, err := store.GetToken(id)
	if err == nil {
		return &Node{ID: id, Token: t}, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	b, err := store.GetBlessing(id)
	if err == nil {
		return &Node{ID: id, Blessing: b}, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	return nil, nil
}

// walk visits the tree rooted at rootID in pre-order, at most once per
// id, and calls visit for each resolvable node. Missing root or missing
// children are skipped silently.
func walk(rootID string, visit func(n *Node) error) error {
	if rootID == "" {
		return nil
	}
	visited := map[string]bool{}
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, err := resolve(id)
		if err != nil {
			return err
		}
		if n == nil {
			continue
		}
		if err := visit(n); err != nil {
			return err
		}
		kids := n.children()
		// push in reverse so pre-order matches child order
		for i := len(kids) - 1; i >= 0; i-- {
			if !visited[kids[i]] {
				stack = append(stack, kids[i])
			}
		}
	}
	return nil
}

// Flatten returns the pre-order id sequence reachable from rootID via
// children, each id at most once, root first. A missing root yields an
// empty sequence.
func Flatten(rootID string) ([]string, error) {
	var out []string
	err := walk(rootID, func(n *Node) error {
		out = append(out, n.ID)
		return nil
	})
	return out, err
}

// TreeDuration sums each visited node's own duration (ms), computed
// once per node: a token contributes its forge-time TotalDuration, a
// blessing its live span duration at now (<= 0 means wall clock).
func TreeDuration(rootID string, now int64) (int64, error) {
	var total int64
	err := walk(rootID, func(n *Node) error {
		if n.Token != nil {
			total += n.Token.TotalDuration
			return nil
		}
		d, err := blessing.Duration(n.Blessing, now)
		if err != nil {
			return err
		}
		total += d
		return nil
	})
	return total, err
}
