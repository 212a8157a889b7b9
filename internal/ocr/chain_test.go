package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

func TestChain(t *testing.T) {
	img := sampleRGBA(4, 4)

	t.Run("primary text skips fallback", func(t *testing.T) {
		local := &stubEngine{method: constants.MethodLocalOCR, text: " Invoice 42 "}
		remote := &stubEngine{method: constants.MethodRemoteOCR, text: "remote"}

		out := NewChain(local, remote, discardLogger()).Recognize(context.Background(), img)

		assert.Equal(t, "Invoice 42", out.Text)
		assert.Equal(t, constants.MethodLocalOCR, out.Method)
		assert.Empty(t, out.Failures)
		assert.EqualValues(t, 0, remote.calls.Load())
	})

	t.Run("empty primary calls fallback exactly once", func(t *testing.T) {
		local := &stubEngine{method: constants.MethodLocalOCR, text: "   "}
		remote := &stubEngine{method: constants.MethodRemoteOCR, text: "Total 10.00"}

		out := NewChain(local, remote, discardLogger()).Recognize(context.Background(), img)

		assert.Equal(t, "Total 10.00", out.Text)
		assert.Equal(t, constants.MethodRemoteOCR, out.Method)
		assert.EqualValues(t, 1, local.calls.Load())
		assert.EqualValues(t, 1, remote.calls.Load())
		require.Len(t, out.Failures, 1)
		assert.ErrorIs(t, out.Failures[0], ErrEmptyResult)
	})

	t.Run("primary panic is absorbed", func(t *testing.T) {
		local := &stubEngine{method: constants.MethodLocalOCR, panics: true}
		remote := &stubEngine{method: constants.MethodRemoteOCR, text: "ok"}

		out := NewChain(local, remote, discardLogger()).Recognize(context.Background(), img)

		assert.Equal(t, "ok", out.Text)
		var f *Failure
		require.ErrorAs(t, out.Failures[0], &f)
		assert.Equal(t, "panic", f.Stage)
	})

	t.Run("both fail yields empty outcome", func(t *testing.T) {
		local := &stubEngine{method: constants.MethodLocalOCR, err: NewFailure("local-ocr", "init", errors.New("no tessdata"))}
		remote := &stubEngine{method: constants.MethodRemoteOCR, err: NewFailure("remote-ocr", "config", ErrMissingAPIKey)}

		out := NewChain(local, remote, discardLogger()).Recognize(context.Background(), img)

		assert.Empty(t, out.Text)
		assert.Equal(t, constants.MethodNone, out.Method)
		assert.Len(t, out.Failures, 2)
		assert.EqualValues(t, 1, remote.calls.Load())
	})

	t.Run("nil fallback", func(t *testing.T) {
		local := &stubEngine{method: constants.MethodLocalOCR}
		out := NewChain(local, nil, discardLogger()).Recognize(context.Background(), img)
		assert.Empty(t, out.Text)
		assert.Len(t, out.Failures, 1)
	})
}
