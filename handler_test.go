package fiberize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerBlock_DispatchesMostRecentFirst(t *testing.T) {
	var order []int

	b := &handlerBlock{}
	b.append(newHandler(GlobalPath(Named("e")), func(any) { order = append(order, 1) }))
	b.append(newHandler(GlobalPath(Named("e")), func(any) { order = append(order, 2) }))
	b.append(newHandler(GlobalPath(Named("e")), func(any) { order = append(order, 3) }))

	b.dispatch(nil)

	require.Equal(t, []int{3, 2, 1}, order)
}

func TestHandlerBlock_CompactSkipsDestroyed(t *testing.T) {
	var order []int

	b := &handlerBlock{}
	h1 := newHandler(GlobalPath(Named("e")), func(any) { order = append(order, 1) })
	h2 := newHandler(GlobalPath(Named("e")), func(any) { order = append(order, 2) })
	b.append(h1)
	b.append(h2)

	h2.release() // h2 is now destroyed.
	b.compact()
	require.Len(t, b.handlers, 1)

	b.dispatch(nil)
	require.Equal(t, []int{1}, order)
}

func TestHandlerRef_ReleaseThenRebindReactivates(t *testing.T) {
	fired := 0
	h := newHandler(GlobalPath(Named("e")), func(any) { fired++ })
	ref := HandlerRef{h: h}

	b := &handlerBlock{}
	b.append(h)

	ref.Release()
	require.True(t, h.destroyed())

	ref.Rebind()
	require.False(t, h.destroyed())

	b.dispatch(nil)
	require.Equal(t, 1, fired)
}
