package control

// Prop key names shared between the Settings store, its HTTP surface, and
// the Orchestrator that reads them every Running-state reload (spec.md
// §4.3, §4.6).
const (
	PropNextSessionBand   = "next_session_band"
	PropSessionSchedule   = "session_schedule"
	PropSessionMethod     = "session_method"
	PropListeningBand     = "listening_band"
	PropSessionTimeout    = "session_timeout"
	PropSessionIntermission = "session_intermission"
	PropOnlyUseActive     = "only_use_active"
	PropUseAirframesGS    = "use_airframes_gs"
	PropQuiet             = "quiet"
)
