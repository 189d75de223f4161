package workerpool

import "sync"

// CopyJob names one file to bring into the staging area.
type CopyJob struct {
	Src string
	Dst string
}

// Start fans the jobs out over numWorkers goroutines and blocks until all of
// them drained the channel.
func Start(numWorkers int, jobs []CopyJob, run func(wg *sync.WaitGroup, jobs <-chan CopyJob)) {
	var wg sync.WaitGroup
	ch := make(chan CopyJob, len(jobs))

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go run(&wg, ch)
	}

	for _, job := range jobs {
		ch <- job
	}
	close(ch)

	wg.Wait()
}
