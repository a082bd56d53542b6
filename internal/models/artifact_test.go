// internal/models/artifact_test.go
package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactTagsRoundTrip(t *testing.T) {
	artifact := Artifact{
		CID:  "4a44dc15364204a80fe80e9039455cc1608281820fe2b24f1e5233ade6af1dd5",
		Tags: pq.StringArray{"nlp", "fine-tuned", "v2"},
	}

	value, err := artifact.Tags.Value()
	require.NoError(t, err)

	var scanned pq.StringArray
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, artifact.Tags, scanned)
}

func TestArtifactTagsScanEmptyArray(t *testing.T) {
	var tags pq.StringArray
	require.NoError(t, tags.Scan([]byte("{}")))
	assert.Empty(t, tags)
}
