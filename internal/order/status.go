package order

import "fmt"

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPendingPaymentLink Status = "pending_payment_link"
	StatusAwaitingProof      Status = "awaiting_proof"
	StatusUnderReview        Status = "under_review"
	StatusRejected           Status = "rejected"
	StatusPaid               Status = "paid"
	StatusCanceled           Status = "canceled"
)

// transitions lists the only legal edges of the order lifecycle.
var transitions = map[Status][]Status{
	StatusPendingPaymentLink: {StatusAwaitingProof, StatusCanceled},
	StatusAwaitingProof:      {StatusUnderReview, StatusCanceled},
	StatusUnderReview:        {StatusPaid, StatusRejected, StatusCanceled},
}

// Sweepable are the statuses an overdue order can be cancelled from.
var Sweepable = []Status{StatusPendingPaymentLink, StatusAwaitingProof, StatusUnderReview}

func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPendingPaymentLink, StatusAwaitingProof, StatusUnderReview,
		StatusRejected, StatusPaid, StatusCanceled:
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusRejected || s == StatusCanceled
}

// CanTransition reports whether to directly follows from.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Path returns the shortest chain of legal steps leading from one status to
// another, excluding from itself. A moderator approving a payment whose
// order still waits for proof walks awaiting_proof -> under_review -> paid.
func Path(from, to Status) ([]Status, error) {
	if from == to {
		return nil, nil
	}
	prev := map[Status]Status{from: ""}
	queue := []Status{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range transitions[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			if next == to {
				path := []Status{to}
				for p := cur; p != from; p = prev[p] {
					path = append([]Status{p}, path...)
				}
				return path, nil
			}
			queue = append(queue, next)
		}
	}
	return nil, fmt.Errorf("no transition from %s to %s", from, to)
}
