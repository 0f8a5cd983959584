package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDecision(t *testing.T) {
	before := testutil.ToFloat64(AuthDecisionsTotal.WithLabelValues("forbidden"))
	RecordDecision("forbidden")
	RecordDecision("forbidden")
	assert.Equal(t, before+2, testutil.ToFloat64(AuthDecisionsTotal.WithLabelValues("forbidden")))
}

func TestRecordAdminOperation(t *testing.T) {
	before := testutil.ToFloat64(AdminOperationsTotal.WithLabelValues("update_role", "ok"))
	RecordAdminOperation("update_role", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(AdminOperationsTotal.WithLabelValues("update_role", "ok")))
}

func TestSetDrift(t *testing.T) {
	SetDrift(3, 1, 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(DirectoryDrift.WithLabelValues("provider_only")))
	assert.Equal(t, 1.0, testutil.ToFloat64(DirectoryDrift.WithLabelValues("directory_only")))
	assert.Equal(t, 0.0, testutil.ToFloat64(DirectoryDrift.WithLabelValues("role_mismatch")))
}
