package media_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fabianshop/storefront/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstreamFunc adapts a function to media.Upstream.
type upstreamFunc func(ctx context.Context, req media.Request) (media.Result, error)

func (f upstreamFunc) Upload(ctx context.Context, req media.Request) (media.Result, error) {
	return f(ctx, req)
}

func echo(calls *[]string) upstreamFunc {
	return func(_ context.Context, req media.Request) (media.Result, error) {
		*calls = append(*calls, req.Filename)
		return media.Result{
			URL:      "https://res.example/" + req.Filename + ".webp",
			PublicID: "fabian-products/" + req.Filename,
		}, nil
	}
}

const png = "data:image/png;base64,iVBORw0KGgo="

func TestGateway_Preconditions(t *testing.T) {
	var calls []string
	gw := media.NewGateway(echo(&calls), media.WithMaxBytes(30))

	tests := []struct {
		name  string
		image string
		want  error
	}{
		{"empty", "", media.ErrUnsupportedFormat},
		{"plain base64", "iVBORw0KGgo=", media.ErrUnsupportedFormat},
		{"not an image", "data:text/plain;base64,aGk=", media.ErrUnsupportedFormat},
		{"uppercase marker", "DATA:IMAGE/png;base64,aGk=", media.ErrUnsupportedFormat},
		{"too large", png + strings.Repeat("A", 20), media.ErrPayloadTooLarge},
		{"fraction over limit", "data:image/png;base64," + strings.Repeat("A", 19), media.ErrPayloadTooLarge}, // 41 chars -> 30.75 bytes
		{"at limit", "data:image/png;base64," + strings.Repeat("A", 18), nil}, // 40 chars -> 30 bytes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gw.Upload(context.Background(), media.Request{Image: tt.image, Filename: tt.name})
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, []string{"at limit"}, calls)
}

func TestGateway_DefaultLimit(t *testing.T) {
	gw := media.NewGateway(nil)
	big := "data:image/jpeg;base64," + strings.Repeat("A", media.DefaultMaxBytes*4/3+8)
	assert.ErrorIs(t, gw.Check(media.Request{Image: big}), media.ErrPayloadTooLarge)
	assert.NoError(t, gw.Check(media.Request{Image: png}))

	// 13981014 chars estimate to 10485760.5 bytes, just past 10 MiB.
	over := strings.Repeat("A", 13981014)
	assert.ErrorIs(t, gw.Check(media.Request{Image: "data:image/jpeg;base64," + over[23:]}), media.ErrPayloadTooLarge)
	assert.NoError(t, gw.Check(media.Request{Image: "data:image/jpeg;base64," + over[24:]}))
}

func TestGateway_NotConfigured(t *testing.T) {
	gw := media.NewGateway(nil)
	assert.False(t, gw.Configured())

	_, err := gw.Upload(context.Background(), media.Request{Image: png})
	assert.ErrorIs(t, err, media.ErrNotConfigured)

	// Local checks still run first.
	_, err = gw.Upload(context.Background(), media.Request{Image: "nope"})
	assert.ErrorIs(t, err, media.ErrUnsupportedFormat)
}

func TestGateway_PassesUpstreamErrors(t *testing.T) {
	for _, want := range []error{media.ErrUpstreamAuth, media.ErrUpstreamRejected, media.ErrTransientIO} {
		calls := 0
		gw := media.NewGateway(upstreamFunc(func(context.Context, media.Request) (media.Result, error) {
			calls++
			return media.Result{}, fmt.Errorf("%w: boom", want)
		}))
		_, err := gw.Upload(context.Background(), media.Request{Image: png})
		assert.ErrorIs(t, err, want)
		assert.Equal(t, 1, calls, "gateway must not retry")
	}
}

func TestUploadAll_PreservesOrder(t *testing.T) {
	var calls []string
	gw := media.NewGateway(echo(&calls))

	reqs := []media.Request{
		{Image: png, Filename: "c"},
		{Image: png, Filename: "a"},
		{Image: png, Filename: "b"},
	}
	var progress [][2]int
	results, err := media.UploadAll(context.Background(), gw, reqs, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, "https://res.example/"+reqs[i].Filename+".webp", r.URL)
	}
	assert.Equal(t, []string{"c", "a", "b"}, calls)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestUploadAll_StopsAtFirstFailure(t *testing.T) {
	var calls []string
	gw := media.NewGateway(echo(&calls))

	reqs := []media.Request{
		{Image: png, Filename: "ok"},
		{Image: "bad", Filename: "broken.txt"},
		{Image: png, Filename: "never"},
	}
	results, err := media.UploadAll(context.Background(), gw, reqs, nil)
	require.ErrorIs(t, err, media.ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), "broken.txt")
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"ok"}, calls)
}

func TestSequence_ConsumerStops(t *testing.T) {
	var calls []string
	gw := media.NewGateway(echo(&calls))
	reqs := []media.Request{{Image: png, Filename: "1"}, {Image: png, Filename: "2"}}

	for _, err := range media.Sequence(context.Background(), gw, reqs, nil) {
		require.NoError(t, err)
		break
	}
	assert.Equal(t, []string{"1"}, calls)
}

func TestSequence_Cancelled(t *testing.T) {
	var calls []string
	gw := media.NewGateway(echo(&calls))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range media.Sequence(ctx, gw, []media.Request{{Image: png}}, nil) {
		assert.True(t, errors.Is(err, context.Canceled))
	}
	assert.Empty(t, calls)
}
