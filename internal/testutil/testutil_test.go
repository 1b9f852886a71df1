package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jcrq/internal/typeconf"
)

func TestStaticExpander(t *testing.T) {
	e := NewStaticExpander(Folders())
	ctx := context.Background()

	ids, err := e.ExpandPath(ctx, "/sites/x/%")
	require.NoError(t, err)
	assert.Equal(t, []int64{302, 301}, ids)

	ids, err = e.ExpandPath(ctx, "/nowhere/%")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.Equal(t, []string{"/sites/x/%", "/nowhere/%"}, e.Calls())
	e.Reset()
	assert.Empty(t, e.Calls())

	boom := errors.New("index unavailable")
	e.FailWith(boom)
	_, err = e.ExpandPath(ctx, "/sites/x/%")
	assert.ErrorIs(t, err, boom)
}

func TestFixtureCatalogIsValid(t *testing.T) {
	assert.Empty(t, typeconf.Validate(Catalog()))
	assert.Empty(t, typeconf.Validate(DerbyCatalog()))
	assert.Equal(t, typeconf.DialectGeneric, Catalog().Dialect, "fixtures must not share state")
}
