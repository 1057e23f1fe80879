// Copyright (c) nano Authors. All Rights Reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

type runnableFunc func()

type deadlineFunc struct {
	execute func()
	ts      time.Time
}

// deadlineHeap orders pending deadlineFuncs by when they're due.
type deadlineHeap []deadlineFunc

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].ts.Before(h[j].ts) }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x interface{}) { *h = append(*h, x.(deadlineFunc)) }
func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1].execute = nil // avoid memory leak
	*h = old[0 : n-1]
	return x
}

// DeadlineScheduler runs deadline-ordered callbacks on a small pool of
// goroutines, backed by a min-heap rather than one time.Timer per deadline.
// The bridge only ever drives it with a single long-lived periodic callback
// (the watchdog tick, re-armed on every firing via Put), so one worker
// goroutine is always enough; the heap and parallel workers exist because
// this scheduler is shared process-wide rather than built fresh per tick.
type DeadlineScheduler struct {
	// prependTasks buffers Put calls from arbitrary goroutines before a
	// worker folds them into its heap in prepend.
	prependTasks    []deadlineFunc
	prependLock     sync.Mutex
	chPrependNotify chan struct{}

	chTask     chan deadlineFunc
	chRunnable chan runnableFunc

	dieOnce sync.Once
	die     chan struct{}
	exit    chan struct{}
}

// NewDeadlineScheduler starts a DeadlineScheduler backed by the given number
// of worker goroutines.
func NewDeadlineScheduler(parallel int) *DeadlineScheduler {
	ds := new(DeadlineScheduler)
	ds.chTask = make(chan deadlineFunc)
	ds.chRunnable = make(chan runnableFunc, 1<<8)
	ds.die = make(chan struct{})
	ds.exit = make(chan struct{}, parallel+1) // parallel+1 pending goroutines
	ds.chPrependNotify = make(chan struct{}, 1)

	for i := 0; i < parallel; i++ {
		go ds.worker()
	}
	go ds.prepend()
	return ds
}

func (ds *DeadlineScheduler) worker() {
	var tasks deadlineHeap
	timer := time.NewTimer(0)
	drained := false
	defer func() {
		timer.Stop()
		ds.exit <- struct{}{}
	}()
	for {
		select {
		case runnable := <-ds.chRunnable:
			runnable()
		case task := <-ds.chTask:
			now := time.Now()
			if now.After(task.ts) {
				// already past its deadline: run it right away
				task.execute()
			} else {
				heap.Push(&tasks, task)
				// re-arm the timer for the new earliest deadline
				stopped := timer.Stop()
				if !stopped && !drained {
					<-timer.C
				}
				timer.Reset(tasks[0].ts.Sub(now))
				drained = false
			}
		case now := <-timer.C:
			drained = true
			for tasks.Len() > 0 {
				if now.After(tasks[0].ts) {
					heap.Pop(&tasks).(deadlineFunc).execute()
				} else {
					timer.Reset(tasks[0].ts.Sub(now))
					drained = false
					break
				}
			}
		case <-ds.die:
			return
		}
	}
}

func (ds *DeadlineScheduler) prepend() {
	var tasks []deadlineFunc
	defer func() {
		ds.exit <- struct{}{}
	}()
	for {
		select {
		case <-ds.chPrependNotify:
			ds.prependLock.Lock()
			// keep cap to reuse slice
			if cap(tasks) < cap(ds.prependTasks) {
				tasks = make([]deadlineFunc, 0, cap(ds.prependTasks))
			}
			tasks = tasks[:len(ds.prependTasks)]
			copy(tasks, ds.prependTasks)
			for k := range ds.prependTasks {
				ds.prependTasks[k].execute = nil // avoid memory leak
			}
			ds.prependTasks = ds.prependTasks[:0]
			ds.prependLock.Unlock()

			for k := range tasks {
				select {
				case ds.chTask <- tasks[k]:
					tasks[k].execute = nil // avoid memory leak
				case <-ds.die:
					return
				}
			}
			tasks = tasks[:0]
		case <-ds.die:
			return
		}
	}
}

// Put schedules f to run at deadline.
func (ds *DeadlineScheduler) Put(f func(), deadline time.Time) {
	ds.prependLock.Lock()
	ds.prependTasks = append(ds.prependTasks, deadlineFunc{f, deadline})
	ds.prependLock.Unlock()

	select {
	case ds.chPrependNotify <- struct{}{}:
	default:
	}
}

// Run executes f on the next free worker, ignoring deadlines entirely.
func (ds *DeadlineScheduler) Run(f func()) {
	ds.chRunnable <- f
}

// Close stops every worker goroutine. Safe to call more than once.
func (ds *DeadlineScheduler) Close() {
	ds.dieOnce.Do(func() {
		close(ds.die)
		for i := 0; i < cap(ds.exit); i++ {
			<-ds.exit
		}
	})
}
