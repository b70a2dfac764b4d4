package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartFailsWhenAlreadyRunning(t *testing.T) {
	r := NewRegistry()
	_, err := r.Start(KindDownload)
	require.NoError(t, err)

	_, err = r.Start(KindDownload)
	require.Error(t, err)
	var already *ErrAlreadyRunning
	require.ErrorAs(t, err, &already)
}

func TestDifferentKindsRunIndependently(t *testing.T) {
	r := NewRegistry()
	_, err := r.Start(KindDownload)
	require.NoError(t, err)

	_, err = r.Start(KindUninstall)
	require.NoError(t, err)
}

func TestFinishFreesSlotForReuse(t *testing.T) {
	r := NewRegistry()
	_, err := r.Start(KindDownload)
	require.NoError(t, err)

	r.Finish(KindDownload)
	assert.False(t, r.Active(KindDownload))

	_, err = r.Start(KindDownload)
	require.NoError(t, err)
}

func TestCancelSetsFlagOnHandle(t *testing.T) {
	r := NewRegistry()
	h, err := r.Start(KindDownload)
	require.NoError(t, err)

	assert.False(t, h.Cancelled())
	ok := r.Cancel(KindDownload)
	assert.True(t, ok)
	assert.True(t, h.Cancelled())
}

func TestCancelOfUnknownKindReturnsFalse(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Cancel(KindVerify))
}
