package redate

import (
	"iter"
	"sync"

	"k8s.io/klog/v2"
)

// Run rewrites every path in paths and returns a count of the outcomes.
//
// Each Rewriter serves one worker. With a single Rewriter the files are
// processed sequentially in the order given; with more, the order in which emit
// sees results is unspecified. emit is never called concurrently and may be nil.
// A walk error for a path is reported as a failed Result for that path.
func Run(paths iter.Seq2[string, error], rewriters []*Rewriter, emit func(Result)) Summary {
	sum := Summary{}
	var mu sync.Mutex
	record := func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		sum.Add(r)
		if r.Status == StatusFailed {
			klog.V(1).Infof("%s: %v", r.Path, r.Err)
		}
		if emit != nil {
			emit(r)
		}
	}

	if len(rewriters) == 0 {
		klog.Errorf("no rewriters: nothing will be processed")
		return sum
	}

	if len(rewriters) == 1 {
		rw := rewriters[0]
		for p, err := range paths {
			if err != nil {
				record(Result{Path: p, Status: StatusFailed, Err: err})
				continue
			}
			record(rw.Rewrite(p))
		}
		return sum
	}

	work := make(chan string)
	var wg sync.WaitGroup
	for _, rw := range rewriters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				record(rw.Rewrite(p))
			}
		}()
	}

	for p, err := range paths {
		if err != nil {
			record(Result{Path: p, Status: StatusFailed, Err: err})
			continue
		}
		work <- p
	}
	close(work)
	wg.Wait()

	return sum
}
