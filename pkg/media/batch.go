package media

import (
	"context"
	"fmt"
	"iter"
)

// Uploader is satisfied by Gateway and by remote clients of it.
type Uploader interface {
	Upload(ctx context.Context, req Request) (Result, error)
}

// Progress is called after each finished upload with the number done so far.
type Progress func(done, total int)

// Sequence uploads reqs one at a time, yielding each outcome in input order.
// Iteration stops early when the consumer stops or ctx is done.
func Sequence(ctx context.Context, up Uploader, reqs []Request, progress Progress) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		for i, req := range reqs {
			if err := ctx.Err(); err != nil {
				yield(Result{}, err)
				return
			}
			res, err := up.Upload(ctx, req)
			if err != nil {
				err = fmt.Errorf("%s: %w", req.Filename, err)
			}
			if progress != nil {
				progress(i+1, len(reqs))
			}
			if !yield(res, err) {
				return
			}
		}
	}
}

// UploadAll uploads every request in order and stops at the first failure.
// The returned URLs are in input order.
func UploadAll(ctx context.Context, up Uploader, reqs []Request, progress Progress) ([]Result, error) {
	out := make([]Result, 0, len(reqs))
	for res, err := range Sequence(ctx, up, reqs, progress) {
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}
