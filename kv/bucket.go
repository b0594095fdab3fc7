// Copyright (c) 2021 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

// Bucket provides logical bucket for kv store.
type Bucket string

// Key returns the key prefixed by the bucket name.
func (b Bucket) Key(key []byte) []byte {
	return append([]byte(b), key...)
}

// Get reads the key inside the bucket.
func (b Bucket) Get(src Getter, key []byte) ([]byte, error) {
	return src.Get(b.Key(key))
}

// Put writes the key inside the bucket.
func (b Bucket) Put(dst Putter, key, val []byte) error {
	return dst.Put(b.Key(key), val)
}
