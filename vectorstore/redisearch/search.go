package redisearch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/corpus/core"
	"github.com/poiesic/corpus/vectorstore"
)

// scoreAlias names the KNN distance field in search replies.
const scoreAlias = "score"

// chunkFields lists the hash fields needed to rebuild a core.Chunk, minus
// the vector blob which queries never return.
var chunkFields = []string{
	fieldDocumentID,
	fieldChunkIndex,
	fieldTotalChunks,
	fieldContent,
	fieldFilename,
	fieldDocType,
	fieldSource,
	fieldUploadedAt,
	fieldTags,
	fieldHasStructured,
}

// Query embeds text and returns up to k chunks ranked by cosine similarity,
// restricted by the filter. Blank text skips the KNN clause and returns
// matching chunks in chunk index order with zero scores, which callers use
// as a metadata probe.
func (s *ChunkStore) Query(ctx context.Context, text string, k int, filter vectorstore.Filter) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", vectorstore.ErrInvalidQuery)
	}
	if s.closed.Load() {
		return nil, vectorstore.ErrStoreClosed
	}

	if strings.TrimSpace(text) == "" {
		return s.probe(ctx, k, filter)
	}

	queryVector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(queryVector) != s.cfg.VectorDim {
		return nil, fmt.Errorf("%w: query has dim %d, index expects %d",
			vectorstore.ErrDimensionMismatch, len(queryVector), s.cfg.VectorDim)
	}

	query := fmt.Sprintf("%s=>[KNN %d @%s $query_vector AS %s]",
		knnPrefilter(filter), k, fieldVector, scoreAlias)

	args := []interface{}{"FT.SEARCH", s.cfg.IndexName, query,
		"PARAMS", "2", "query_vector", encodeVector(queryVector),
		"RETURN", strconv.Itoa(len(chunkFields) + 1), scoreAlias,
	}
	for _, field := range chunkFields {
		args = append(args, field)
	}
	args = append(args,
		"SORTBY", scoreAlias, "ASC",
		"LIMIT", "0", strconv.Itoa(k),
		"DIALECT", "2",
	)

	reply, err := s.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs, err := parseReply(reply)
	if err != nil {
		return nil, err
	}

	results := make([]core.ScoredChunk, 0, len(docs))
	for _, doc := range docs {
		chunk, err := chunkFromFields(doc.fields)
		if err != nil {
			s.logger.Debug("skipping malformed search hit", "key", doc.key, "error", err)
			continue
		}

		// RediSearch reports cosine distance, zero meaning identical.
		distance, _ := strconv.ParseFloat(doc.fields[scoreAlias], 32)
		results = append(results, core.ScoredChunk{
			Chunk: chunk,
			Score: 1 - float32(distance),
		})
	}
	return results, nil
}

// probe runs a pure metadata query without the KNN clause.
func (s *ChunkStore) probe(ctx context.Context, k int, filter vectorstore.Filter) ([]core.ScoredChunk, error) {
	args := []interface{}{"FT.SEARCH", s.cfg.IndexName, queryForFilter(filter),
		"RETURN", strconv.Itoa(len(chunkFields)),
	}
	for _, field := range chunkFields {
		args = append(args, field)
	}
	args = append(args,
		"SORTBY", fieldChunkIndex, "ASC",
		"LIMIT", "0", strconv.Itoa(k),
	)

	reply, err := s.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("metadata probe: %w", err)
	}

	docs, err := parseReply(reply)
	if err != nil {
		return nil, err
	}

	results := make([]core.ScoredChunk, 0, len(docs))
	for _, doc := range docs {
		chunk, err := chunkFromFields(doc.fields)
		if err != nil {
			s.logger.Debug("skipping malformed search hit", "key", doc.key, "error", err)
			continue
		}
		results = append(results, core.ScoredChunk{Chunk: chunk})
	}
	return results, nil
}

// queryForFilter translates a Filter into a RediSearch query expression.
func queryForFilter(filter vectorstore.Filter) string {
	var parts []string
	if filter.DocumentID != "" {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldDocumentID, escapeTag(filter.DocumentID)))
	}
	if filter.Type != "" {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldDocType, escapeTag(string(filter.Type))))
	}
	if filter.HasStructuredData != nil {
		parts = append(parts, fmt.Sprintf("@%s:{%t}", fieldHasStructured, *filter.HasStructuredData))
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// knnPrefilter wraps the filter expression for use before a KNN clause.
func knnPrefilter(filter vectorstore.Filter) string {
	query := queryForFilter(filter)
	if query == "*" {
		return query
	}
	return "(" + query + ")"
}

// searchDoc is one entry of an FT.SEARCH reply.
type searchDoc struct {
	key    string
	fields map[string]string
}

// parseReply flattens an FT.SEARCH array reply. The layout is the total
// count followed by alternating key and field-value-list entries.
func parseReply(reply interface{}) ([]searchDoc, error) {
	values, ok := reply.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected search reply format")
	}
	if len(values) < 2 {
		return nil, nil
	}

	var docs []searchDoc
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		rawFields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		fields := make(map[string]string, len(rawFields)/2)
		for j := 0; j+1 < len(rawFields); j += 2 {
			name, ok := rawFields[j].(string)
			if !ok {
				continue
			}
			if value, ok := rawFields[j+1].(string); ok {
				fields[name] = value
			}
		}
		docs = append(docs, searchDoc{key: key, fields: fields})
	}
	return docs, nil
}

// parseKeys extracts hash keys from a NOCONTENT reply, where entries are
// bare keys without field lists.
func parseKeys(reply interface{}) []string {
	values, ok := reply.([]interface{})
	if !ok || len(values) < 2 {
		return nil
	}

	keys := make([]string, 0, len(values)-1)
	for _, value := range values[1:] {
		if key, ok := value.(string); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// chunkFromFields rebuilds a chunk from hash field values.
func chunkFromFields(fields map[string]string) (core.Chunk, error) {
	docID := fields[fieldDocumentID]
	if docID == "" {
		return core.Chunk{}, fmt.Errorf("%w: missing document id", vectorstore.ErrSerializationFailed)
	}

	chunkIndex, err := strconv.Atoi(fields[fieldChunkIndex])
	if err != nil {
		return core.Chunk{}, fmt.Errorf("%w: chunk index: %w", vectorstore.ErrSerializationFailed, err)
	}
	totalChunks, err := strconv.Atoi(fields[fieldTotalChunks])
	if err != nil {
		return core.Chunk{}, fmt.Errorf("%w: total chunks: %w", vectorstore.ErrSerializationFailed, err)
	}
	uploadedMicros, err := strconv.ParseInt(fields[fieldUploadedAt], 10, 64)
	if err != nil {
		return core.Chunk{}, fmt.Errorf("%w: uploaded at: %w", vectorstore.ErrSerializationFailed, err)
	}

	return core.Chunk{
		DocumentID:        docID,
		ChunkIndex:        chunkIndex,
		TotalChunks:       totalChunks,
		Text:              fields[fieldContent],
		Filename:          fields[fieldFilename],
		Type:              core.DocumentType(fields[fieldDocType]),
		Source:            fields[fieldSource],
		UploadedAt:        time.UnixMicro(uploadedMicros).UTC(),
		Tags:              splitTags(fields[fieldTags]),
		HasStructuredData: fields[fieldHasStructured] == "true",
	}, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
