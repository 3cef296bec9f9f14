package admission

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/x1-labs/tachyon/pkg/budget"
	"github.com/x1-labs/tachyon/pkg/metrics"
	"github.com/x1-labs/tachyon/pkg/types"
)

// Intake feeds raw packets into a priority queue, counting outcomes. The
// queue is not synchronized; run one Intake per queue or serialize callers.
type Intake struct {
	queue   *PriorityQueue
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewIntake creates an Intake over the given queue. metrics may be nil.
func NewIntake(queue *PriorityQueue, m *metrics.Metrics, log zerolog.Logger) *Intake {
	return &Intake{queue: queue, metrics: m, log: log}
}

// Submit decodes and enqueues one packet. The returned error is terminal for
// the packet; there is no retry.
func (in *Intake) Submit(packet Packet) (*ImmutablePacket, error) {
	p, err := NewImmutablePacket(packet)
	if err != nil {
		in.reject(err)
		return nil, err
	}

	if err := p.CheckInsufficientComputeUnitLimit(); err != nil {
		in.reject(err)
		return nil, err
	}

	in.queue.Push(p)
	if in.metrics != nil {
		in.metrics.RecordAdmitted(p.ComputeUnitPrice())
		in.metrics.SetQueueDepth(in.queue.Len())
	}
	return p, nil
}

// Queue returns the underlying priority queue.
func (in *Intake) Queue() *PriorityQueue {
	return in.queue
}

func (in *Intake) reject(err error) {
	in.log.Debug().Err(err).Msg("packet rejected")
	if in.metrics == nil {
		return
	}
	in.metrics.RecordRejected(rejectReason(err))
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, types.ErrSignatureCountOverflow):
		return metrics.ReasonSigOverflow
	case errors.Is(err, types.ErrMalformedEncoding):
		return metrics.ReasonMalformed
	case errors.Is(err, types.ErrStructuralViolation):
		return metrics.ReasonStructural
	case errors.Is(err, ErrVoteTransaction):
		return metrics.ReasonVote
	case errors.Is(err, ErrInsufficientComputeLimit):
		return metrics.ReasonComputeLimit
	case errors.Is(err, ErrPrioritizationFailure),
		errors.Is(err, budget.ErrInvalidDirective),
		errors.Is(err, budget.ErrDuplicateDirective):
		return metrics.ReasonPrioritization
	default:
		return metrics.ReasonMalformed
	}
}
