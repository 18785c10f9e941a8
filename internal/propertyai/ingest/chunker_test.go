package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/model"
)

func wordDoc(n int) model.Document {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return model.Document{
		Content: strings.Join(words, " "),
		Metadata: map[string]string{
			model.MetaSource:  "test.csv",
			model.MetaDocType: model.DocTypeProperty,
		},
	}
}

func TestChunker_ShortDocumentSingleChunk(t *testing.T) {
	c := NewChunker(1000, 200)

	chunks := c.Split(wordDoc(999))
	require.Len(t, chunks, 1)
	assert.Equal(t, "0", chunks[0].Metadata[model.MetaChunkID])

	chunks = c.Split(wordDoc(1000))
	require.Len(t, chunks, 1)
}

func TestChunker_EmptyDocument(t *testing.T) {
	c := NewChunker(1000, 200)
	assert.Nil(t, c.Split(model.Document{Content: "   "}))
}

func TestChunker_WindowCount(t *testing.T) {
	c := NewChunker(1000, 200)

	// 2500 words, stride 800: windows start at 0, 800, 1600, 2400.
	chunks := c.Split(wordDoc(2500))
	require.Len(t, chunks, 4)

	for i, chunk := range chunks {
		assert.Equal(t, fmt.Sprintf("%d", i), chunk.Metadata[model.MetaChunkID])
	}

	// First three windows are full size, the last is the remainder.
	assert.Len(t, strings.Fields(chunks[0].Content), 1000)
	assert.Len(t, strings.Fields(chunks[2].Content), 900)
	assert.Len(t, strings.Fields(chunks[3].Content), 100)
}

func TestChunker_OverlapSharedWords(t *testing.T) {
	c := NewChunker(10, 2)

	chunks := c.Split(wordDoc(20))
	require.True(t, len(chunks) >= 2)

	first := strings.Fields(chunks[0].Content)
	second := strings.Fields(chunks[1].Content)
	assert.Equal(t, first[len(first)-2:], second[:2])
}

func TestChunker_MetadataCopiedNotShared(t *testing.T) {
	c := NewChunker(10, 2)
	doc := wordDoc(30)

	chunks := c.Split(doc)
	require.True(t, len(chunks) >= 2)

	chunks[0].Metadata["mutated"] = "yes"
	_, ok := chunks[1].Metadata["mutated"]
	assert.False(t, ok)
	_, ok = doc.Metadata[model.MetaChunkID]
	assert.False(t, ok)
}

func TestChunker_SplitAllTagsDocIndex(t *testing.T) {
	c := NewChunker(1000, 200)

	chunks := c.SplitAll([]model.Document{wordDoc(10), wordDoc(20)})
	require.Len(t, chunks, 2)
	assert.Equal(t, "0", chunks[0].Metadata[model.MetaDocIndex])
	assert.Equal(t, "1", chunks[1].Metadata[model.MetaDocIndex])
}
