package downloader

import (
	"context"
	"io"
	"sync"
)

const chunkSize = 16 * 1024

// runWorkers calls fn for 0..n-1 on at most workers goroutines. Indexes are
// handed out in order; none are started once ctx is done.
func runWorkers(ctx context.Context, n, workers int, fn func(i int)) {
	if workers > n {
		workers = n
	}
	if workers < 1 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case jobs <- i:
		}
	}
}

// copyChunked streams src to dst in fixed-size chunks.
func copyChunked(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var total int64
	for {
		nr, er := src.Read(buf)

		if nr > 0 {
			nw, ew := dst.Write(buf[0:nr])
			if nw > 0 {
				total += int64(nw)
			}

			if ew != nil {
				return total, ew
			}

			if nr != nw {
				return total, io.ErrShortWrite
			}
		}

		if er != nil {
			if er == io.EOF {
				break
			}
			return total, er
		}
	}

	return total, nil
}
