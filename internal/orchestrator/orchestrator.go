// Package orchestrator drives the Session Orchestrator state machine: it
// spawns one decoder child process at a time, normalizes its stdout into
// CFFs, fans them out, and reacts to timeouts, schedules, and control-plane
// signals to decide the next session's band (spec.md §4.3).
package orchestrator

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/airframesio/xng/internal/band"
	"github.com/airframesio/xng/internal/control"
	"github.com/airframesio/xng/internal/decoder"
	"github.com/airframesio/xng/internal/frame"
	"github.com/airframesio/xng/internal/groundstation"
	"github.com/airframesio/xng/internal/normalize"
	"github.com/airframesio/xng/internal/schedule"
)

// State is one node of the Orchestrator's state machine.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateIntermission
	StateBackoffWait
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateIntermission:
		return "Intermission"
	case StateBackoffWait:
		return "BackoffWait"
	case StateShutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// backoffWait is the fixed retry delay after a spawn failure (spec.md §4.3).
const backoffWait = 60 * time.Second

const (
	defaultSessionTimeout    = 5 * time.Minute
	defaultSessionIntermission = 10 * time.Second
)

// DecoderKind selects which Normalizer path parses a session's stdout.
type DecoderKind int

const (
	DecoderHFDL DecoderKind = iota
	DecoderVDL2
)

// ArgsBuilder renders the dumphfdl/dumpvdl2 argv for one session, given the
// band (kHz, ascending) it should listen on.
type ArgsBuilder func(bandKHz []int) []string

// Config carries an Orchestrator's static, process-lifetime wiring.
type Config struct {
	Kind         DecoderKind
	Bin          string
	Dir          string
	BuildArgs    ArgsBuilder
	GraceAfter   time.Duration
	SampleRateHz int
	MaxDistKHz   int
	StaleTimeout time.Duration
	Candidates   []int // full candidate frequency set in kHz, pre-band-planning
	RawLineLog   io.Writer // optional: every raw decoder stdout line, before normalization
}

// onTimeoutDefault mirrors each decoder family's original on_timeout policy
// (original_source modules/{hfdl,aoa}/session.rs): HFDL ends the session on
// a quiet deadline, VDL2 never does (its decoder fans out keepalive-style
// gs status updates far less often, and the module always extends instead).
func (c Config) onTimeoutDefault() bool {
	return c.Kind == DecoderHFDL
}

// Orchestrator owns one running session at a time.
type Orchestrator struct {
	cfg      Config
	settings *control.Settings
	registry *groundstation.Registry
	norm     *normalize.Normalizer
	selector *band.Selector
	frames   chan<- frame.CommonFrame
	changes  chan<- groundstation.ChangeEvent
	logger   *log.Logger

	state             State
	lastRequestedBand []int
	sessionID         string
}

// SessionID returns the identifier of the currently running (or most
// recently run) session, for the control plane's status surface and log
// correlation (spec.md §3 Session entity).
func (o *Orchestrator) SessionID() string { return o.sessionID }

// New builds an Orchestrator. frames and changes are the bounded MPSC
// channels the Sink Fan-out and State DB Writer consume from (spec.md §5);
// sends to both are non-blocking try-sends, per spec.md §4.3 item 1.
func New(cfg Config, settings *control.Settings, registry *groundstation.Registry, norm *normalize.Normalizer, selector *band.Selector, frames chan<- frame.CommonFrame, changes chan<- groundstation.ChangeEvent, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		settings: settings,
		registry: registry,
		norm:     norm,
		selector: selector,
		frames:   frames,
		changes:  changes,
		logger:   logger,
		state:    StateIdle,
	}
}

// State returns the Orchestrator's current state, for the control plane's
// status surface.
func (o *Orchestrator) State() State { return o.state }

// Run drives the state machine until ctx is cancelled or interrupt fires,
// at which point it settles into StateShutdown and returns.
func (o *Orchestrator) Run(ctx context.Context, interrupt <-chan struct{}) {
	reason := control.ReasonNone
	first := true

	for {
		select {
		case <-ctx.Done():
			o.state = StateShutdown
			return
		default:
		}

		o.state = StateStarting
		targetBand, scheduledEnd := o.pickTargetBand(reason, first)
		first = false

		dec, err := o.spawn(ctx, targetBand)
		if err != nil {
			o.logger.Error("decoder spawn failed", "err", err, "band", targetBand)
			o.settings.SignalEndSession(control.ReasonProcessStartError)
			o.state = StateBackoffWait
			if !o.sleepInterruptible(ctx, backoffWait, interrupt) {
				o.state = StateShutdown
				return
			}
			reason = control.ReasonProcessStartError
			continue
		}

		o.sessionID = uuid.NewString()
		o.state = StateRunning
		o.logger.Info("session started", "session_id", o.sessionID, "band_khz", targetBand, "pid", dec.Pid())

		reason = o.runSession(ctx, dec, targetBand, scheduledEnd, interrupt)
		if err := dec.End(); err != nil {
			o.logger.Warn("decoder shutdown error", "err", err)
		}
		o.logger.Info("session ended", "reason", reason)

		if reason == control.ReasonUserInterrupt {
			o.state = StateShutdown
			return
		}

		o.state = StateIntermission
		if !o.sleepInterruptible(ctx, o.sessionIntermission(), interrupt) {
			o.state = StateShutdown
			return
		}
	}
}

func (o *Orchestrator) spawn(ctx context.Context, targetBand []int) (*decoder.Decoder, error) {
	spec := decoder.Spec{
		Bin:        o.cfg.Bin,
		Args:       o.cfg.BuildArgs(targetBand),
		Dir:        o.cfg.Dir,
		GraceAfter: o.cfg.GraceAfter,
	}
	return decoder.Spawn(ctx, spec, o.logger)
}

// sleepInterruptible sleeps d, returning false if ctx is cancelled or
// interrupt fires first (meaning the caller should proceed to Shutdown).
func (o *Orchestrator) sleepInterruptible(ctx context.Context, d time.Duration, interrupt <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-interrupt:
		return false
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) sessionTimeout() time.Duration {
	if v, ok := o.settings.Get(control.PropSessionTimeout); ok && v.Kind == control.KindNumber && v.Number > 0 {
		return time.Duration(v.Number) * time.Second
	}
	return defaultSessionTimeout
}

func (o *Orchestrator) sessionIntermission() time.Duration {
	if v, ok := o.settings.Get(control.PropSessionIntermission); ok && v.Kind == control.KindNumber && v.Number > 0 {
		return time.Duration(v.Number) * time.Second
	}
	return defaultSessionIntermission
}

// runSession implements the Running-state select loop (spec.md §4.3 items
// 1-5), returning the EndSessionReason that ended it.
func (o *Orchestrator) runSession(ctx context.Context, dec *decoder.Decoder, targetBand []int, scheduledEnd *time.Time, interrupt <-chan struct{}) control.EndSessionReason {
	type lineResult struct {
		line string
		err  error
	}
	lines := make(chan lineResult, 1)
	go func() {
		for {
			line, err := dec.ReadLine()
			lines <- lineResult{line, err}
			if err != nil {
				return
			}
		}
	}()

	var scheduledTimer *time.Timer
	if scheduledEnd != nil {
		d := time.Until(*scheduledEnd)
		if d < 0 {
			d = 0
		}
		scheduledTimer = time.NewTimer(d)
		defer scheduledTimer.Stop()
	}

	deadline := time.NewTimer(o.sessionTimeout())
	defer deadline.Stop()

	for {
		var scheduledCh <-chan time.Time
		if scheduledTimer != nil {
			scheduledCh = scheduledTimer.C
		}

		select {
		case res := <-lines:
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					return control.ReasonReadEOF
				}
				return control.ReasonReadError
			}

			if !deadline.Stop() {
				select {
				case <-deadline.C:
				default:
				}
			}
			deadline.Reset(o.sessionTimeout())

			o.handleLine(res.line, targetBand)

		case <-deadline.C:
			if o.sessionMethodPolicy().Kind == band.PolicyStatic {
				// static: keep current band, session never times out.
				deadline.Reset(o.sessionTimeout())
				continue
			}
			if o.cfg.onTimeoutDefault() {
				return control.ReasonSessionTimeout
			}
			deadline.Reset(o.sessionTimeout())

		case <-scheduledCh:
			return control.ReasonSessionEnd

		case reason := <-o.settings.EndSession():
			if reason == control.ReasonNone {
				reason = control.ReasonUserAPIControl
			}
			return reason

		case <-interrupt:
			return control.ReasonUserInterrupt

		case <-o.settings.Reload():
			// rehydrate only; the current deadline keeps running with its
			// already-armed duration until the next line or timeout.

		case <-ctx.Done():
			return control.ReasonUserInterrupt
		}
	}
}

func (o *Orchestrator) handleLine(line string, targetBand []int) {
	now := time.Now().UTC()

	if o.cfg.RawLineLog != nil {
		if _, err := o.cfg.RawLineLog.Write([]byte(line)); err != nil {
			o.logger.Warn("raw line audit log write failed", "err", err)
		}
	}

	cf, events, err := o.normalizeLine([]byte(line), now)
	for _, ev := range events {
		o.trySendChangeEvent(ev)
		if o.feedbackEnabled() && groundstation.TriggersSessionUpdate(diffOldNew(ev.Old, ev.New), targetBand, o.cfg.MaxDistKHz) {
			o.settings.SignalEndSession(control.ReasonSessionUpdate)
		}
	}
	if err != nil {
		o.logger.Debug("normalize failed", "err", err)
		return
	}
	if cf == nil {
		return
	}

	if !o.quiet() {
		o.logger.Info("frame", "src", cf.Src.Kind, "freq_mhz", cf.Freq)
	}
	o.trySendFrame(*cf)
}

func (o *Orchestrator) normalizeLine(line []byte, now time.Time) (*frame.CommonFrame, []groundstation.ChangeEvent, error) {
	if o.cfg.Kind == DecoderHFDL {
		return o.norm.NormalizeHFDL(line, now)
	}
	cf, err := o.norm.NormalizeVDL2(line, now)
	return cf, nil, err
}

func (o *Orchestrator) feedbackEnabled() bool {
	if v, ok := o.settings.Get(control.PropOnlyUseActive); ok && v.Kind == control.KindBool && v.Bool {
		return true
	}
	if v, ok := o.settings.Get(control.PropUseAirframesGS); ok && v.Kind == control.KindBool && v.Bool {
		return true
	}
	return false
}

func (o *Orchestrator) quiet() bool {
	v, ok := o.settings.Get(control.PropQuiet)
	return ok && v.Kind == control.KindBool && v.Bool
}

func (o *Orchestrator) trySendFrame(cf frame.CommonFrame) {
	select {
	case o.frames <- cf:
	default:
		o.logger.Warn("frame queue full, dropping CFF")
	}
}

func (o *Orchestrator) trySendChangeEvent(ev groundstation.ChangeEvent) {
	select {
	case o.changes <- ev:
	default:
		o.logger.Warn("change-event queue full, dropping event")
	}
}

// diffOldNew computes the symmetric difference between two frequency
// lists, mirroring the set comparison the Registry uses internally
// (spec.md §4.4); it is recomputed here because NormalizeHFDL passes on only
// the ChangeEvent, not the diff that Update returned to it.
func diffOldNew(old, new_ []int) []int {
	oldSet := make(map[int]bool, len(old))
	for _, f := range old {
		oldSet[f] = true
	}
	newSet := make(map[int]bool, len(new_))
	for _, f := range new_ {
		newSet[f] = true
	}

	var diff []int
	for f := range oldSet {
		if !newSet[f] {
			diff = append(diff, f)
		}
	}
	for f := range newSet {
		if !oldSet[f] {
			diff = append(diff, f)
		}
	}
	return diff
}

// pickTargetBand resolves spec.md §4.3's tie-break rules and returns the
// full band (kHz) the next session should listen on, plus its scheduled-end
// instant if a schedule entry applies.
func (o *Orchestrator) pickTargetBand(reason control.EndSessionReason, isFirst bool) ([]int, *time.Time) {
	now := time.Now().UTC()

	var scheduledEnd *time.Time
	var scheduleTargetKHz int
	haveScheduleTarget := false

	if v, ok := o.settings.Get(control.PropSessionSchedule); ok && v.Kind == control.KindString && v.String != "" {
		if entries, err := schedule.Parse(v.String, now); err == nil {
			if next, ok := schedule.Next(entries, now); ok {
				t := next.At
				scheduledEnd = &t
				scheduleTargetKHz = next.FreqKHz
				haveScheduleTarget = true
			}
		} else {
			o.logger.Warn("invalid session_schedule, ignoring", "err", err)
		}
	}

	if nb, ok := o.settings.Get(control.PropNextSessionBand); ok && !control.NextSessionBandIsZero(nb) {
		freqs := control.FreqKHzList(nb)
		if err := o.settings.Set(control.PropNextSessionBand, zeroOverride(nb)); err != nil {
			o.logger.Warn("failed to clear next_session_band override", "err", err)
		}
		if len(freqs) > 0 {
			targetBand := o.bandAround(freqs[0])
			o.lastRequestedBand = targetBand
			return targetBand, scheduledEnd
		}
	}

	if reason == control.ReasonSessionUpdate && len(o.lastRequestedBand) > 0 {
		return o.lastRequestedBand, scheduledEnd
	}

	if haveScheduleTarget && (reason == control.ReasonSessionEnd || isFirst) {
		targetBand := o.bandAround(scheduleTargetKHz)
		o.lastRequestedBand = targetBand
		return targetBand, scheduledEnd
	}

	targetBand := o.policyPick()
	o.lastRequestedBand = targetBand
	return targetBand, scheduledEnd
}

// zeroOverride returns the "no override" sentinel matching v's shape: a
// bare 0 for the single-frequency HFDL form, an empty list for AoA's.
func zeroOverride(v control.Value) control.Value {
	if v.Kind == control.KindArray {
		return control.Value{Kind: control.KindArray}
	}
	return control.Value{Kind: control.KindNumber}
}

func (o *Orchestrator) bandAround(freqKHz int) []int {
	bands := band.FreqBands(band.SortedUnique(o.cfg.Candidates), o.cfg.SampleRateHz)
	return band.BandContaining(bands, freqKHz)
}

// sessionMethodPolicy resolves the current session_method prop into a
// band.Policy, defaulting to random when unset or invalid.
func (o *Orchestrator) sessionMethodPolicy() band.Policy {
	policy := band.Policy{Kind: band.PolicyRandom}
	if v, ok := o.settings.Get(control.PropSessionMethod); ok && v.Kind == control.KindString {
		if p, err := band.ParsePolicy(v.String); err == nil {
			policy = p
		} else {
			o.logger.Warn("invalid session_method, defaulting to random", "err", err)
		}
	}
	return policy
}

func (o *Orchestrator) policyPick() []int {
	bands := band.FreqBands(band.SortedUnique(o.cfg.Candidates), o.cfg.SampleRateHz)
	heads := band.BandHeads(bands)

	policy := o.sessionMethodPolicy()

	currentHead := 0
	if len(o.lastRequestedBand) > 0 {
		currentHead = o.lastRequestedBand[0]
	}

	var stationFreqs []int
	if policy.Kind == band.PolicyTrack {
		if id, err := strconv.Atoi(policy.TrackStationID); err == nil {
			stationFreqs = o.registry.ActiveFrequencies(groundstation.NumericID(int64(id)))
		}
	}

	freq, keepCurrent, err := o.selector.Select(policy, heads, currentHead, o.lastRequestedBand, stationFreqs)
	if err != nil {
		o.logger.Warn("band selection found no candidates", "err", err, "policy", policy)
		if len(o.lastRequestedBand) > 0 {
			return o.lastRequestedBand
		}
		if len(heads) > 0 {
			return o.bandAround(heads[0])
		}
		return nil
	}
	if keepCurrent {
		if len(o.lastRequestedBand) > 0 {
			return o.lastRequestedBand
		}
		if len(heads) > 0 {
			return o.bandAround(heads[0])
		}
		return nil
	}
	return o.bandAround(freq)
}
