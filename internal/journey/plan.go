package journey

import (
	"strconv"
	"time"
)

// Millis is a duration that encodes to JSON as integer milliseconds.
type Millis time.Duration

func (m Millis) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, time.Duration(m).Milliseconds(), 10), nil
}

func (m Millis) D() time.Duration { return time.Duration(m) }

// RouteMode selects how long the route draw-in animation runs.
type RouteMode string

const (
	// RouteFixed runs the draw-in for the length of the camera sequence.
	RouteFixed RouteMode = "fixed"
	// RouteDistance derives the duration from segment length and Timing.SpeedKmPerSec.
	RouteDistance RouteMode = "distance"
)

// Timing holds the animation parameters of a transition.
type Timing struct {
	ZoomOut   time.Duration // phase 1: zoom out at the origin
	Pan       time.Duration // phase 2: pan to the midpoint
	ZoomIn    time.Duration // phase 3: zoom in at the destination
	CloseZoom float64

	Frame            time.Duration
	RouteMode        RouteMode
	SpeedKmPerSec    float64
	MinRouteDuration time.Duration
	SplineSamples    int

	AutoPlayDelay time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		ZoomOut:          1200 * time.Millisecond,
		Pan:              1400 * time.Millisecond,
		ZoomIn:           950 * time.Millisecond,
		CloseZoom:        9,
		Frame:            16 * time.Millisecond,
		RouteMode:        RouteFixed,
		SpeedKmPerSec:    1500,
		MinRouteDuration: 1500 * time.Millisecond,
		SplineSamples:    8,
		AutoPlayDelay:    2500 * time.Millisecond,
	}
}

// CameraMove is one easeTo call: move to Center at Zoom over Duration,
// issued Start after the transition begins.
type CameraMove struct {
	Phase    int     `json:"phase"`
	Center   LngLat  `json:"center"`
	Zoom     float64 `json:"zoom"`
	Start    Millis  `json:"startMs"`
	Duration Millis  `json:"durationMs"`
}

// RoutePlan describes the draw-in animation of a segment.
type RoutePlan struct {
	RouteID  string   `json:"routeId"`
	Duration Millis   `json:"durationMs"`
	Points   int      `json:"points"`
	Path     []LngLat `json:"-"`
}

// Plan is the deterministic description of a transition between two steps.
type Plan struct {
	From       int          `json:"from"`
	To         int          `json:"to"`
	Origin     int          `json:"origin"` // step the camera leaves from
	CatchUp    []int        `json:"catchUp,omitempty"`
	Uncomplete []int        `json:"uncomplete,omitempty"`
	DistanceKm float64      `json:"distanceKm"`
	ZoomOut    float64      `json:"zoomOut"`
	Camera     []CameraMove `json:"camera"`
	Route      *RoutePlan   `json:"route,omitempty"`
	// CompletesHop is the hop marked travelled when the transition
	// finishes, or -1.
	CompletesHop int    `json:"completesHop"`
	Total        Millis `json:"totalMs"`
}

// Plan computes the transition from step current to step target. Both
// are clamped. Jumping more than one step ahead marks the skipped hops
// in CatchUp and animates only the final hop; moving back lists the
// hops to clear in Uncomplete.
func (j *Journey) Plan(current, target int, t Timing) Plan {
	current, target = j.Clamp(current), j.Clamp(target)
	p := Plan{From: current, To: target, Origin: current, CompletesHop: -1}
	if j.Len() == 0 {
		return p
	}

	dest := j.Coord(target)
	if target == current {
		p.ZoomOut = t.CloseZoom
		p.Camera = []CameraMove{{Phase: 3, Center: dest, Zoom: t.CloseZoom, Duration: Millis(t.ZoomIn)}}
		p.Total = Millis(t.ZoomIn)
		return p
	}

	switch {
	case target > current+1:
		for hop := current; hop < target-1; hop++ {
			p.CatchUp = append(p.CatchUp, hop)
		}
		p.Origin = target - 1
		p.CompletesHop = target - 1
	case target == current+1:
		p.CompletesHop = current
	default:
		for hop := target; hop < j.Len()-1; hop++ {
			p.Uncomplete = append(p.Uncomplete, hop)
		}
	}

	origin := j.Coord(p.Origin)
	p.DistanceKm = Distance(origin, dest)
	p.ZoomOut = ZoomOutLevel(p.DistanceKm)
	p.Camera = []CameraMove{
		{Phase: 1, Center: origin, Zoom: p.ZoomOut, Duration: Millis(t.ZoomOut)},
		{Phase: 2, Center: Midpoint(origin, dest), Zoom: p.ZoomOut, Start: Millis(t.ZoomOut), Duration: Millis(t.Pan)},
		{Phase: 3, Center: dest, Zoom: t.CloseZoom, Start: Millis(t.ZoomOut + t.Pan), Duration: Millis(t.ZoomIn)},
	}
	p.Total = Millis(t.ZoomOut + t.Pan + t.ZoomIn)

	if seg := j.segmentBetween(p.Origin, target); seg != nil {
		path := Smooth(seg.Coords, t.SplineSamples)
		p.Route = &RoutePlan{
			RouteID:  seg.RouteID,
			Duration: Millis(routeDuration(seg.LengthKm, t)),
			Points:   len(path),
			Path:     path,
		}
		if p.Route.Duration > p.Total {
			p.Total = p.Route.Duration
		}
	}
	return p
}

func routeDuration(lengthKm float64, t Timing) time.Duration {
	if t.RouteMode != RouteDistance || t.SpeedKmPerSec <= 0 {
		return t.ZoomOut + t.Pan + t.ZoomIn
	}
	d := time.Duration(lengthKm / t.SpeedKmPerSec * float64(time.Second))
	return max(d, t.MinRouteDuration)
}
