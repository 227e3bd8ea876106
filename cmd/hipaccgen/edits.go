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
	"bytes"
	"fmt"
	"sort"
)

// EditBuffer accumulates byte-offset edits against an immutable source
// buffer and applies them in one pass, so edits never invalidate each
// other's positions.
type EditBuffer struct {
	src   []byte
	edits []edit
}

type edit struct {
	start, end int
	text       string
	eatLine    bool // widen a removal to the whole line when it turns blank
	seq        int
}

// NewEditBuffer wraps src for editing.
func NewEditBuffer(src []byte) *EditBuffer {
	return &EditBuffer{src: src}
}

// Insert places text before the byte at off. Inserts at the same
// offset keep their call order.
func (b *EditBuffer) Insert(off int, text string) {
	b.edits = append(b.edits, edit{start: off, end: off, text: text, seq: len(b.edits)})
}

// Replace substitutes text for src[start:end].
func (b *EditBuffer) Replace(start, end int, text string) {
	b.edits = append(b.edits, edit{start: start, end: end, text: text, seq: len(b.edits)})
}

// Remove deletes src[start:end]. If the deletion leaves its line
// blank, the whole line goes with it.
func (b *EditBuffer) Remove(start, end int) {
	b.edits = append(b.edits, edit{start: start, end: end, eatLine: true, seq: len(b.edits)})
}

// Changed reports whether any edit was recorded.
func (b *EditBuffer) Changed() bool { return len(b.edits) > 0 }

// Apply renders the edited buffer. Overlapping non-insert edits are an
// error: they mean two passes fought over the same construct.
func (b *EditBuffer) Apply() ([]byte, error) {
	edits := make([]edit, len(b.edits))
	copy(edits, b.edits)
	for i := range edits {
		if edits[i].eatLine {
			edits[i].start, edits[i].end = b.widenToLine(edits[i].start, edits[i].end)
		}
	}
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		// Inserts at a boundary land before a replacement starting there.
		ii, jj := edits[i].start == edits[i].end, edits[j].start == edits[j].end
		if ii != jj {
			return ii
		}
		return edits[i].seq < edits[j].seq
	})

	var out bytes.Buffer
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			return nil, fmt.Errorf("overlapping edits at offset %d", e.start)
		}
		if e.end > len(b.src) {
			return nil, fmt.Errorf("edit past end of source at offset %d", e.end)
		}
		out.Write(b.src[pos:e.start])
		out.WriteString(e.text)
		pos = e.end
	}
	out.Write(b.src[pos:])
	return out.Bytes(), nil
}

// widenToLine extends a removal to cover its whole line, trailing
// newline included, when everything else on the line is blank.
func (b *EditBuffer) widenToLine(start, end int) (int, int) {
	ls := start
	for ls > 0 && b.src[ls-1] != '\n' {
		ls--
	}
	le := end
	for le < len(b.src) && b.src[le] != '\n' {
		le++
	}
	for i := ls; i < start; i++ {
		if b.src[i] != ' ' && b.src[i] != '\t' {
			return start, end
		}
	}
	for i := end; i < le; i++ {
		if b.src[i] != ' ' && b.src[i] != '\t' && b.src[i] != ';' {
			return start, end
		}
	}
	if le < len(b.src) {
		le++ // the newline
	}
	return ls, le
}
