package elasticsearch

// DefaultIndexName is the default Elasticsearch index used for review documents.
const DefaultIndexName = "reviews_v1"

// buildIndexMapping returns the full JSON mapping for the reviews index.
// Full-text fields use a folding analyzer (standard tokenization, lowercase,
// diacritic folding); product_name is additionally indexed as a keyword for
// exact matching.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "folding": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "review_id":       { "type": "keyword" },
      "product_id":      { "type": "keyword" },
      "product_name":    { "type": "text", "analyzer": "folding", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "rating":          { "type": "integer" },
      "review_title":    { "type": "text", "analyzer": "folding" },
      "review_text":     { "type": "text", "analyzer": "folding" },
      "created_at":      { "type": "date" },
      "sentiment":       { "type": "keyword" },
      "sentiment_score": { "type": "float" }
    }
  }
}`
}
