package journey

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"storymap/internal/models"
)

type EventKind string

const (
	EventStep     EventKind = "step"     // active step changed
	EventCamera   EventKind = "camera"   // ease the camera
	EventRoute    EventKind = "route"    // redraw the animated segment
	EventProgress EventKind = "progress" // progress layer changed
	EventArrive   EventKind = "arrive"   // open popup / detail panel
	EventPlayback EventKind = "playback" // auto-play started or stopped
)

// RouteFrame is one tick of the draw-in animation.
type RouteFrame struct {
	RouteID  string   `json:"routeId"`
	Progress float64  `json:"progress"`
	Coords   []LngLat `json:"coords"`
	Done     bool     `json:"done"`
}

// Event is a command for the map client.
type Event struct {
	Kind      EventKind     `json:"kind"`
	Step      int           `json:"step"`
	PlaceID   string        `json:"placeId,omitempty"`
	Place     *models.Place `json:"place,omitempty"`
	Camera    *CameraMove   `json:"camera,omitempty"`
	Route     *RouteFrame   `json:"route,omitempty"`
	Completed []string      `json:"completed,omitempty"`
	Hops      []int         `json:"hops,omitempty"`
	Playing   bool          `json:"playing"`
}

// Snapshot is the observable player state.
type Snapshot struct {
	Step      int    `json:"step"`
	Count     int    `json:"count"`
	PlaceID   string `json:"placeId,omitempty"`
	Completed []int  `json:"completed"`
	Playing   bool   `json:"playing"`
	Busy      bool   `json:"busy"`
}

// Player drives transitions between steps of a Journey.
//
// A new request always supersedes the transition in flight: its timers,
// frame ticks and pending arrival are cancelled before the new one
// starts, and no event of the old transition is emitted afterwards.
//
// emit is called with the player's lock held. It must not block or call
// back into the Player.
type Player struct {
	mu        sync.Mutex
	journey   *Journey
	timing    Timing
	emit      func(Event)
	step      int
	completed map[int]bool
	playing   bool
	busy      bool
	waiting   bool // an auto-play advance is scheduled
	closed    bool

	root   context.Context
	stop   context.CancelFunc
	cancel context.CancelFunc // current transition or scheduled advance
	wg     sync.WaitGroup
}

func NewPlayer(ctx context.Context, j *Journey, t Timing, emit func(Event)) *Player {
	root, stop := context.WithCancel(ctx)
	return &Player{
		journey:   j,
		timing:    t,
		emit:      emit,
		completed: make(map[int]bool),
		root:      root,
		stop:      stop,
	}
}

// SetStep moves to target, clamped to the valid range. A user-issued
// step stops auto-play.
func (p *Player) SetStep(target int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setPlaying(false)
	p.goTo(target)
}

func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setPlaying(false)
	p.goTo(p.step + 1)
}

func (p *Player) Prev() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setPlaying(false)
	p.goTo(p.step - 1)
}

// Play starts auto-play. Each finished transition schedules the next step
// after Timing.AutoPlayDelay until the last step is reached or Stop is
// called. Playing from the last step does nothing.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.playing || p.step >= p.journey.Len()-1 {
		return
	}
	p.setPlaying(true)
	if !p.busy {
		p.scheduleAdvance()
	}
}

// Stop ends auto-play. A transition already running completes.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setPlaying(false)
}

// Reload swaps in new journey data, keeping the step where possible.
func (p *Player) Reload(j *Journey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.cancelCurrent()
	p.busy = false
	p.journey = j
	p.step = j.Clamp(p.step)
	for hop := range p.completed {
		if hop >= len(j.Segments) || hop >= p.step {
			delete(p.completed, hop)
		}
	}
	p.setPlaying(false)
	if j.Len() > 0 {
		p.emitStep()
		p.emitProgress()
	}
}

func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Snapshot{
		Step:      p.step,
		Count:     p.journey.Len(),
		Completed: p.completedHops(),
		Playing:   p.playing,
		Busy:      p.busy,
	}
	if p.journey.Len() > 0 {
		s.PlaceID = p.journey.PlaceID(p.step)
	}
	return s
}

// Close cancels everything in flight and waits for it to unwind.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	p.cancelCurrent()
	p.mu.Unlock()
	p.stop()
	p.wg.Wait()
}

func (p *Player) cancelCurrent() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.waiting = false
}

func (p *Player) setPlaying(on bool) {
	if p.playing == on {
		return
	}
	p.playing = on
	if !on && p.waiting {
		p.cancelCurrent()
	}
	p.emit(Event{Kind: EventPlayback, Step: p.step, Playing: on})
}

// goTo starts the transition to target. Caller holds p.mu.
func (p *Player) goTo(target int) {
	if p.closed || p.journey.Len() == 0 {
		return
	}
	p.cancelCurrent()

	plan := p.journey.Plan(p.step, target, p.timing)
	for _, hop := range plan.CatchUp {
		p.completed[hop] = true
	}
	for _, hop := range plan.Uncomplete {
		delete(p.completed, hop)
	}
	if len(plan.CatchUp) > 0 {
		if missing := p.missingSegments(plan.CatchUp); len(missing) > 0 {
			logrus.WithField("hops", missing).Warn("journey: caught-up hops have no route feature")
		}
	}
	if len(plan.CatchUp) > 0 || len(plan.Uncomplete) > 0 {
		p.emitProgress()
	}

	p.step = plan.To
	p.busy = true
	p.emitStep()

	ctx, cancel := context.WithCancel(p.root)
	p.cancel = cancel
	p.wg.Add(1)
	go p.run(ctx, plan)
}

func (p *Player) run(ctx context.Context, plan Plan) {
	defer p.wg.Done()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.runCamera(gctx, plan) })
	if plan.Route != nil {
		g.Go(func() error { return p.runRoute(gctx, plan.Route) })
	}
	if err := g.Wait(); err != nil {
		return
	}

	if p.finish(ctx, plan) {
		p.advance(ctx)
	}
}

func (p *Player) runCamera(ctx context.Context, plan Plan) error {
	start := time.Now()
	for i := range plan.Camera {
		move := plan.Camera[i]
		if !sleep(ctx, move.Start.D()-time.Since(start)) {
			return ctx.Err()
		}
		if !p.emitIf(ctx, Event{Kind: EventCamera, Step: plan.To, Camera: &move}) {
			return context.Canceled
		}
	}
	if !sleep(ctx, plan.Total.D()-time.Since(start)) {
		return ctx.Err()
	}
	return nil
}

func (p *Player) runRoute(ctx context.Context, rp *RoutePlan) error {
	line := NewPolyline(rp.Path)
	frame := p.timing.Frame
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	start := time.Now()
	for {
		progress := 1.0
		if d := rp.Duration.D(); d > 0 {
			progress = min(float64(time.Since(start))/float64(d), 1)
		}
		done := progress >= 1
		ev := Event{Kind: EventRoute, Step: -1, Route: &RouteFrame{
			RouteID:  rp.RouteID,
			Progress: progress,
			Coords:   line.Prefix(progress),
			Done:     done,
		}}
		if !p.emitIf(ctx, ev) {
			return context.Canceled
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// finish records the arrival. It reports whether auto-play should advance.
func (p *Player) finish(ctx context.Context, plan Plan) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	p.busy = false
	if plan.CompletesHop >= 0 {
		p.completed[plan.CompletesHop] = true
		p.emitProgress()
	}
	place := p.journey.Places[p.step]
	p.emit(Event{Kind: EventArrive, Step: p.step, PlaceID: p.journey.PlaceID(p.step), Place: &place, Playing: p.playing})

	if !p.playing {
		return false
	}
	if p.step >= p.journey.Len()-1 {
		p.setPlaying(false)
		return false
	}
	p.waiting = true
	return true
}

// scheduleAdvance starts a fresh auto-play wait. Caller holds p.mu.
func (p *Player) scheduleAdvance() {
	ctx, cancel := context.WithCancel(p.root)
	p.cancel = cancel
	p.waiting = true
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.advance(ctx)
	}()
}

func (p *Player) advance(ctx context.Context) {
	if !sleep(ctx, p.timing.AutoPlayDelay) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil || !p.playing {
		return
	}
	p.waiting = false
	p.goTo(p.step + 1)
}

func (p *Player) emitIf(ctx context.Context, ev Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	if ev.Step < 0 {
		ev.Step = p.step
	}
	ev.Playing = p.playing
	p.emit(ev)
	return true
}

func (p *Player) emitStep() {
	place := p.journey.Places[p.step]
	p.emit(Event{
		Kind:    EventStep,
		Step:    p.step,
		PlaceID: p.journey.PlaceID(p.step),
		Place:   &place,
		Playing: p.playing,
	})
}

func (p *Player) emitProgress() {
	hops := p.completedHops()
	p.emit(Event{
		Kind:      EventProgress,
		Step:      p.step,
		Hops:      hops,
		Completed: p.journey.CompletedRouteIDs(hops),
		Playing:   p.playing,
	})
}

func (p *Player) completedHops() []int {
	hops := make([]int, 0, len(p.completed))
	for h := range p.completed {
		hops = append(hops, h)
	}
	sort.Ints(hops)
	return hops
}

func (p *Player) missingSegments(hops []int) []int {
	var missing []int
	for _, h := range hops {
		if h >= len(p.journey.Segments) || p.journey.Segments[h] == nil {
			missing = append(missing, h)
		}
	}
	return missing
}

// sleep waits for d or until ctx is done. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
