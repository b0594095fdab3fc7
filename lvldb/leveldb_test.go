// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k1"), []byte("v1")))

	v, err := db.Get([]byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	_, err = db.Get([]byte("missing"))
	assert.True(t, db.IsNotFound(err))

	require.NoError(t, db.Delete([]byte("k1")))
	_, err = db.Get([]byte("k1"))
	assert.True(t, db.IsNotFound(err))
}

func TestLevelDBBatch(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a1"), []byte("1")))
	require.NoError(t, batch.Put([]byte("a2"), []byte("2")))
	require.NoError(t, batch.Put([]byte("b1"), []byte("3")))
	assert.Equal(t, 3, batch.Len())
	require.NoError(t, batch.Write())

	for k, want := range map[string]string{"a1": "1", "a2": "2", "b1": "3"} {
		v, err := db.Get([]byte(k))
		require.NoError(t, err)
		assert.Equal(t, want, string(v))
	}

	// an unwritten batch changes nothing
	batch = db.NewBatch()
	require.NoError(t, batch.Delete([]byte("a1")))
	_, err = db.Get([]byte("a1"))
	assert.NoError(t, err)
}

func TestLevelDBPersistent(t *testing.T) {
	dir := t.TempDir()
	db, err := New(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(dir, Options{CacheSize: 32, OpenFilesCacheCapacity: 32})
	require.NoError(t, err)
	defer db.Close()
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}
