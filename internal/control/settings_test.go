package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsSetValidatesKindAndValidator(t *testing.T) {
	s := New("", false, false)
	s.AddPropWithValidator("next_session_band", Value{Kind: KindNumber, Number: 0}, NextSessionBandValidator)

	require.NoError(t, s.Set("next_session_band", Value{Kind: KindNumber, Number: 6529}))

	err := s.Set("next_session_band", Value{Kind: KindNumber, Number: 99999})
	assert.Error(t, err)

	err = s.Set("next_session_band", Value{Kind: KindString, String: "nope"})
	assert.Error(t, err)

	err = s.Set("unknown_prop", Value{Kind: KindNumber, Number: 1})
	assert.Error(t, err)
}

func TestListeningBandValidatorAlwaysFails(t *testing.T) {
	s := New("", false, false)
	s.AddPropWithValidator("listening_band", Value{Kind: KindArray}, ListeningBandValidator)
	assert.Error(t, s.Set("listening_band", Value{Kind: KindArray}))
}

func TestSessionMethodValidator(t *testing.T) {
	assert.NoError(t, SessionMethodValidator(Value{Kind: KindString, String: "track:4"}))
	assert.NoError(t, SessionMethodValidator(Value{Kind: KindString, String: "random"}))
	assert.Error(t, SessionMethodValidator(Value{Kind: KindString, String: "bogus"}))
}

func TestSignalReloadAndEndSession(t *testing.T) {
	s := New("", false, false)
	assert.True(t, s.SignalReload())
	select {
	case <-s.Reload():
	default:
		t.Fatal("expected reload signal")
	}

	assert.True(t, s.SignalEndSession(ReasonUserAPIControl))
	select {
	case r := <-s.EndSession():
		assert.Equal(t, ReasonUserAPIControl, r)
	default:
		t.Fatal("expected end-session signal")
	}
}
