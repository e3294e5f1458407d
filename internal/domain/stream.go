package domain

import "context"

// Stream is a bounded or unbounded lazy sequence of port values. A node in
// streaming mode yields one Stream per output port instead of a single
// value; the engine drains each stream before the node's terminal state is
// recorded, so downstream consumers never observe a partial sequence.
//
// The iteration contract follows bufio.Scanner:
//
//	for stream.Next(ctx) {
//	    use(stream.Value())
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream interface {
	Next(ctx context.Context) bool
	Value() interface{}
	Err() error
}

// SliceStream adapts a finite, already materialized sequence to Stream.
type SliceStream struct {
	values []interface{}
	idx    int
	cur    interface{}
	err    error
}

func NewSliceStream(values ...interface{}) *SliceStream {
	return &SliceStream{values: values}
}

func (s *SliceStream) Next(ctx context.Context) bool {
	if s.err != nil || s.idx >= len(s.values) {
		return false
	}
	if err := ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.cur = s.values[s.idx]
	s.idx++
	return true
}

func (s *SliceStream) Value() interface{} { return s.cur }
func (s *SliceStream) Err() error         { return s.err }

// ChanStream adapts a producer goroutine writing to a channel. The producer
// closes values when done and may report a terminal error through fail.
type ChanStream struct {
	values <-chan interface{}
	cur    interface{}
	err    error
	fail   <-chan error
}

func NewChanStream(values <-chan interface{}, fail <-chan error) *ChanStream {
	return &ChanStream{values: values, fail: fail}
}

func (s *ChanStream) Next(ctx context.Context) bool {
	if s.err != nil {
		return false
	}
	select {
	case <-ctx.Done():
		s.err = ctx.Err()
		return false
	case v, ok := <-s.values:
		if !ok {
			if s.fail != nil {
				select {
				case err := <-s.fail:
					s.err = err
				default:
				}
			}
			return false
		}
		s.cur = v
		return true
	}
}

func (s *ChanStream) Value() interface{} { return s.cur }
func (s *ChanStream) Err() error         { return s.err }

// CollectStream drains a stream into a slice, honoring cancellation.
func CollectStream(ctx context.Context, s Stream) ([]interface{}, error) {
	var out []interface{}
	for s.Next(ctx) {
		out = append(out, s.Value())
	}
	return out, s.Err()
}
