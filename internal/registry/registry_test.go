package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat_llm/internal/dataset"
)

func frame(t *testing.T, name string) *dataset.Frame {
	t.Helper()
	f, err := dataset.ParseCSV([]byte("a,b\n1,x\n2,y\n"), name)
	require.NoError(t, err)
	return f
}

func TestRegistryActiveTracking(t *testing.T) {
	r := New()

	_, err := r.Get("")
	assert.Error(t, err)

	r.Put(frame(t, "first"))
	r.Put(frame(t, "second"))

	assert.Equal(t, "second", r.Active())

	f, err := r.Get("")
	require.NoError(t, err)
	assert.Equal(t, "second", f.Name)

	f, err = r.Get("first")
	require.NoError(t, err)
	assert.Equal(t, "first", f.Name)

	_, err = r.Get("missing")
	assert.Error(t, err)

	require.NoError(t, r.SetActive("first"))
	assert.Equal(t, "first", r.Active())
	assert.Error(t, r.SetActive("missing"))

	assert.Equal(t, []string{"first", "second"}, r.Names())
}
