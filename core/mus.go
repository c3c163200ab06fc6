// Copyright 2025 Poiesic Systems
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


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// ChunkMUS serializes Chunk values in the MUS format. The serializer is
// written by hand against the mus-go primitive packages; field order is part
// of the storage format and must not change. Timestamps are stored as Unix
// microseconds.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, buf []byte) (n int) {
	n = ord.String.Marshal(c.DocumentID, buf)
	n += varint.Int.Marshal(c.ChunkIndex, buf[n:])
	n += varint.Int.Marshal(c.TotalChunks, buf[n:])
	n += ord.String.Marshal(c.Text, buf[n:])
	n += varint.Int.Marshal(len(c.Vector), buf[n:])
	for _, v := range c.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	n += ord.String.Marshal(c.Filename, buf[n:])
	n += ord.String.Marshal(string(c.Type), buf[n:])
	n += ord.String.Marshal(c.Source, buf[n:])
	n += varint.Int64.Marshal(c.UploadedAt.UnixMicro(), buf[n:])
	n += varint.Int.Marshal(len(c.Tags), buf[n:])
	for _, tag := range c.Tags {
		n += ord.String.Marshal(tag, buf[n:])
	}
	n += ord.Bool.Marshal(c.HasStructuredData, buf[n:])
	return n
}

func (chunkMUS) Unmarshal(buf []byte) (c Chunk, n int, err error) {
	var n1 int
	c.DocumentID, n, err = ord.String.Unmarshal(buf)
	if err != nil {
		return
	}
	c.ChunkIndex, n1, err = varint.Int.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	c.TotalChunks, n1, err = varint.Int.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	c.Text, n1, err = ord.String.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	var vectorLen int
	vectorLen, n1, err = varint.Int.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	if vectorLen < 0 {
		err = fmt.Errorf("negative vector length %d", vectorLen)
		return
	}
	if vectorLen > 0 {
		c.Vector = make([]float32, vectorLen)
		for i := 0; i < vectorLen; i++ {
			c.Vector[i], n1, err = raw.Float32.Unmarshal(buf[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	c.Filename, n1, err = ord.String.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	var docType string
	docType, n1, err = ord.String.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	c.Type = DocumentType(docType)
	c.Source, n1, err = ord.String.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	var uploadedMicro int64
	uploadedMicro, n1, err = varint.Int64.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	c.UploadedAt = time.UnixMicro(uploadedMicro).UTC()
	var tagsLen int
	tagsLen, n1, err = varint.Int.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	if tagsLen < 0 {
		err = fmt.Errorf("negative tags length %d", tagsLen)
		return
	}
	if tagsLen > 0 {
		c.Tags = make([]string, tagsLen)
		for i := 0; i < tagsLen; i++ {
			c.Tags[i], n1, err = ord.String.Unmarshal(buf[n:])
			n += n1
			if err != nil {
				return
			}
		}
	}
	c.HasStructuredData, n1, err = ord.Bool.Unmarshal(buf[n:])
	n += n1
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = ord.String.Size(c.DocumentID)
	size += varint.Int.Size(c.ChunkIndex)
	size += varint.Int.Size(c.TotalChunks)
	size += ord.String.Size(c.Text)
	size += varint.Int.Size(len(c.Vector))
	for _, v := range c.Vector {
		size += raw.Float32.Size(v)
	}
	size += ord.String.Size(c.Filename)
	size += ord.String.Size(string(c.Type))
	size += ord.String.Size(c.Source)
	size += varint.Int64.Size(c.UploadedAt.UnixMicro())
	size += varint.Int.Size(len(c.Tags))
	for _, tag := range c.Tags {
		size += ord.String.Size(tag)
	}
	size += ord.Bool.Size(c.HasStructuredData)
	return size
}
