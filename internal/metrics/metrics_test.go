package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			matched := 0
			for _, pair := range m.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCounters_Increment(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	labels := map[string]string{"result": "success"}
	before := counterValue(t, reg, "taskboard_account_logins_total", labels)
	LoginsTotal.WithLabelValues("success").Inc()
	assert.Equal(t, before+1, counterValue(t, reg, "taskboard_account_logins_total", labels))

	mailLabels := map[string]string{"kind": "welcome", "result": "error"}
	before = counterValue(t, reg, "taskboard_mail_deliveries_total", mailLabels)
	MailDeliveriesTotal.WithLabelValues("welcome", "error").Inc()
	assert.Equal(t, before+1, counterValue(t, reg, "taskboard_mail_deliveries_total", mailLabels))
}
