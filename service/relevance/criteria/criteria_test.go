package criteria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/viant/actiongate/model/contact"
	"github.com/viant/actiongate/policy"
)

func TestTable_Lookup(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)
	threeDaysAgo := now.Add(-3*24*time.Hour - 5*time.Hour)

	type testCase struct {
		name      string
		criterion string
		expected  interface{}
		subject   *contact.Context
		policy    *policy.Uncertainty
		pass      bool
		expectErr bool
	}

	tests := []testCase{
		{name: "deal status match ignores case", criterion: "dealStatus", expected: "active", subject: &contact.Context{DealStatus: "Active"}, pass: true},
		{name: "deal status mismatch", criterion: "dealStatus", expected: "Active", subject: &contact.Context{DealStatus: "Closed"}, pass: false},
		{name: "engagement match", criterion: "contactEngagement", expected: "High", subject: &contact.Context{EngagementLevel: "HIGH"}, pass: true},
		{name: "engagement mismatch", criterion: "contactEngagement", expected: "High", subject: &contact.Context{EngagementLevel: "Low"}, pass: false},
		{name: "case insensitive name", criterion: "DEALSTATUS", expected: "Active", subject: &contact.Context{DealStatus: "Active"}, pass: true},
		{name: "interaction too old", criterion: "lastInteractionAge", expected: 7, subject: &contact.Context{LastInteractionDate: &tenDaysAgo}, pass: false},
		{name: "interaction recent", criterion: "lastInteractionAge", expected: 7, subject: &contact.Context{LastInteractionDate: &threeDaysAgo}, pass: true},
		{name: "threshold as string", criterion: "lastInteractionAge", expected: "10", subject: &contact.Context{LastInteractionDate: &tenDaysAgo}, pass: true},
		{name: "invalid threshold", criterion: "lastInteractionAge", expected: "soon", subject: &contact.Context{LastInteractionDate: &tenDaysAgo}, pass: false, expectErr: true},
		{name: "missing history fails by default", criterion: "lastInteractionAge", expected: 7, subject: &contact.Context{}, policy: policy.DefaultUncertainty(), pass: false},
		{name: "missing history pass when configured", criterion: "lastInteractionAge", expected: 7, subject: &contact.Context{}, policy: &policy.Uncertainty{OnMissingHistory: policy.VerdictPass}, pass: true},
	}

	table := Default()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fn, ok := table.Lookup(tc.criterion)
			assert.True(t, ok)
			pass, err := fn(tc.expected, tc.subject, &Env{Now: now, Policy: tc.policy})
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.EqualValues(t, tc.pass, pass)
		})
	}
}

func TestTable_With(t *testing.T) {
	base := Default()
	extended := base.With("budget", func(expected interface{}, subject *contact.Context, env *Env) (bool, error) {
		return true, nil
	})
	_, ok := extended.Lookup("Budget")
	assert.True(t, ok)
	_, ok = base.Lookup("budget")
	assert.False(t, ok, "With must not mutate the receiver")
}
