package mutation

import (
	"sync/atomic"
	"time"

	"github.com/bassista/go_quill/internal/model"
)

// tempSeq is shared by every Allocator in the process.
var tempSeq atomic.Uint64

// Allocator hands out temporary ids for optimistic inserts. The sequence is
// process-wide and monotonic, so ids are pairwise distinct across allocators
// and even when the clock does not advance between calls.
type Allocator struct {
	now func() time.Time
}

func NewAllocator() *Allocator {
	return &Allocator{now: time.Now}
}

func (a *Allocator) Next() model.TempID {
	return model.TempID{Nanos: a.now().UnixNano(), Seq: tempSeq.Add(1)}
}
