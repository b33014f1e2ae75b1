// internal/store/history_test.go

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWindowQuery_AllJobs(t *testing.T) {
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	query := BuildWindowQuery("", from, 500)

	assert.Equal(t, 500, query["size"])

	boolQuery := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]map[string]interface{})
	require.Len(t, filters, 1, "no term filter without a job id")

	rangeFilter := filters[0]["range"].(map[string]interface{})["rankedAt"].(map[string]interface{})
	assert.Equal(t, "2026-01-15T00:00:00Z", rangeFilter["gte"])

	sorts := query["sort"].([]map[string]interface{})
	require.Len(t, sorts, 1)
	assert.Equal(t, "desc", sorts[0]["rankedAt"].(map[string]interface{})["order"])
}

func TestBuildWindowQuery_SingleJob(t *testing.T) {
	query := BuildWindowQuery("job-9", time.Now(), 100)

	boolQuery := query["query"].(map[string]interface{})["bool"].(map[string]interface{})
	filters := boolQuery["filter"].([]map[string]interface{})
	require.Len(t, filters, 2)

	term := filters[1]["term"].(map[string]interface{})
	assert.Equal(t, "job-9", term["jobId"])
}
