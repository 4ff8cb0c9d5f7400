package akatsuki

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bodgit/akatsuki/raster"
)

// ScanResult is the outcome of looking for a header in one image. Err is
// set if the image could not be decoded or holds no usable header, in
// which case Report may still carry the image dimensions.
type ScanResult struct {
	Path   string
	Report *Report
	Err    error
}

func (a *Akatsuki) findImages(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if file != base && strings.HasPrefix(info.Name(), ".") {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file with an image extension
			if !info.Mode().IsRegular() || !raster.IsImage(file) {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (a *Akatsuki) scanWorker(ctx context.Context, in <-chan string, out chan<- ScanResult) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			r, err := a.InfoFile(file)
			if err != nil {
				a.logger.Printf("No header in \"%s\": %s\n", file, err)
			} else {
				a.logger.Printf("Found \"%s\" (%d bytes) in \"%s\"\n", r.Name, r.Size, file)
			}

			select {
			case out <- ScanResult{Path: file, Report: r, Err: err}:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline waits for every stage to finish, cancelling the rest of
// the pipeline on the first error, which is returned
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan looks for hidden files in every image under path. Images without a
// usable header are included in the results with Err set; only failing to
// walk path is an error. Results are sorted by path.
func (a *Akatsuki) Scan(ctx context.Context, path string) ([]ScanResult, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := a.findImages(ctx, dir)
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	results := make(chan ScanResult)
	for i := 0; i < a.workers; i++ {
		errc, err := a.scanWorker(ctx, files, results)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	done := make(chan []ScanResult)
	go func() {
		var r []ScanResult
		for result := range results {
			r = append(r, result)
		}
		done <- r
	}()

	err = waitForPipeline(cancelFunc, errcList...)
	close(results)
	r := <-done

	if err != nil {
		return nil, err
	}

	sort.Slice(r, func(i, j int) bool { return r[i].Path < r[j].Path })

	return r, nil
}
