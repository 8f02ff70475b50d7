package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Resolve(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		name     string
		action   string
		wantCode string
		wantKey  string
		wantErr  error
	}{
		{"one time", "complete_profile", ActionCompleteProfile, "complete_profile", nil},
		{"unlimited", "refer_friend", ActionReferFriend, "refer_friend", nil},
		{"per key", "complete_video:video-3", ActionCompleteVideo, "complete_video:video-3", nil},
		{"per key trims", " complete_video: video-3 ", ActionCompleteVideo, "complete_video:video-3", nil},
		{"per key missing key", "complete_video", "", "", ErrInvalidAction},
		{"per key empty key", "complete_video:", "", "", ErrInvalidAction},
		{"key on one time", "complete_profile:x", "", "", ErrInvalidAction},
		{"unknown", "buy_yacht", "", "", ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, key, err := c.Resolve(tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, def.Code)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestDefaultCatalog_Values(t *testing.T) {
	c := DefaultCatalog()

	want := map[string]struct {
		points int64
		policy ClaimPolicy
	}{
		ActionWelcome:              {150, PolicyOneTime},
		ActionCompleteProfile:      {50, PolicyOneTime},
		ActionScheduleConsultation: {150, PolicyOneTime},
		ActionReferFriend:          {300, PolicyUnlimited},
		ActionCompleteVideo:        {50, PolicyOneTimePerKey},
		ActionCompleteConsultation: {200, PolicyUnlimited},
	}
	for code, w := range want {
		def, ok := c.Lookup(code)
		require.True(t, ok, code)
		assert.Equal(t, w.points, def.Points, code)
		assert.Equal(t, w.policy, def.Policy, code)
	}

	consult, _ := c.Lookup(ActionCompleteConsultation)
	assert.True(t, consult.ProfessionalGranted)

	purchase, _ := c.Lookup(ActionOrderPurchase)
	assert.True(t, purchase.Variable)

	assert.Equal(t, int64(150), c.WelcomePoints())
	assert.Len(t, c.All(), 7)
}
