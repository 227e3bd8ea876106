// Copyright 2026 hipacc-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditBufferReplaceAndInsert(t *testing.T) {
	src := []byte("alpha beta gamma")
	b := NewEditBuffer(src)
	b.Replace(6, 10, "BETA")
	b.Insert(0, ">> ")
	b.Insert(0, "## ")

	out, err := b.Apply()
	require.NoError(t, err)
	assert.Equal(t, ">> ## alpha BETA gamma", string(out))
}

func TestEditBufferRemoveEatsBlankLine(t *testing.T) {
	src := []byte("keep\n\tremove me\nkeep too\n")
	b := NewEditBuffer(src)
	off := strings.Index(string(src), "remove me")
	b.Remove(off, off+len("remove me"))

	out, err := b.Apply()
	require.NoError(t, err)
	assert.Equal(t, "keep\nkeep too\n", string(out))
}

func TestEditBufferRemoveKeepsPopulatedLine(t *testing.T) {
	src := []byte("before remove after\n")
	b := NewEditBuffer(src)
	off := strings.Index(string(src), "remove ")
	b.Remove(off, off+len("remove "))

	out, err := b.Apply()
	require.NoError(t, err)
	assert.Equal(t, "before after\n", string(out))
}

func TestEditBufferOverlapFails(t *testing.T) {
	b := NewEditBuffer([]byte("0123456789"))
	b.Replace(2, 6, "x")
	b.Replace(4, 8, "y")
	_, err := b.Apply()
	assert.Error(t, err)
}

func TestEditBufferInsertBeforeReplacementAtSameOffset(t *testing.T) {
	b := NewEditBuffer([]byte("stmt()"))
	b.Replace(0, 6, "replaced()")
	b.Insert(0, "inserted()\n")

	out, err := b.Apply()
	require.NoError(t, err)
	assert.Equal(t, "inserted()\nreplaced()", string(out))
}

func TestEditBufferChanged(t *testing.T) {
	b := NewEditBuffer([]byte("x"))
	assert.False(t, b.Changed())
	b.Insert(0, "y")
	assert.True(t, b.Changed())
}
