package journey

// Smooth runs a uniform Catmull-Rom pass over pts, inserting samples
// points per input segment. The curve passes through every input point,
// so the first and last coordinates are unchanged.
func Smooth(pts []LngLat, samples int) []LngLat {
	if len(pts) < 3 || samples < 2 {
		out := make([]LngLat, len(pts))
		copy(out, pts)
		return out
	}
	n := len(pts)
	out := make([]LngLat, 0, (n-1)*samples+1)
	for i := 0; i < n-1; i++ {
		p0 := pts[max(i-1, 0)]
		p1 := pts[i]
		p2 := pts[i+1]
		p3 := pts[min(i+2, n-1)]
		for s := 0; s < samples; s++ {
			t := float64(s) / float64(samples)
			out = append(out, LngLat{
				catmullRom(p0[0], p1[0], p2[0], p3[0], t),
				catmullRom(p0[1], p1[1], p2[1], p3[1], t),
			})
		}
	}
	return append(out, pts[n-1])
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// Polyline supports drawing a growing prefix of a path.
type Polyline struct {
	pts []LngLat
	cum []float64 // cumulative length at each vertex, km
}

func NewPolyline(pts []LngLat) *Polyline {
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + Distance(pts[i-1], pts[i])
	}
	return &Polyline{pts: pts, cum: cum}
}

func (p *Polyline) Length() float64 {
	if len(p.cum) == 0 {
		return 0
	}
	return p.cum[len(p.cum)-1]
}

// Prefix returns the part of the path covering frac of its length,
// ending on an interpolated point. frac is clamped to [0, 1].
func (p *Polyline) Prefix(frac float64) []LngLat {
	if len(p.pts) == 0 {
		return nil
	}
	frac = min(max(frac, 0), 1)
	total := p.Length()
	if frac >= 1 {
		out := make([]LngLat, len(p.pts))
		copy(out, p.pts)
		return out
	}
	if frac <= 0 || total == 0 {
		return []LngLat{p.pts[0]}
	}

	target := frac * total
	out := []LngLat{p.pts[0]}
	for i := 1; i < len(p.pts); i++ {
		if p.cum[i] < target {
			out = append(out, p.pts[i])
			continue
		}
		seg := p.cum[i] - p.cum[i-1]
		if seg > 0 {
			t := (target - p.cum[i-1]) / seg
			a, b := p.pts[i-1], p.pts[i]
			out = append(out, LngLat{a[0] + (b[0]-a[0])*t, a[1] + (b[1]-a[1])*t})
		}
		break
	}
	return out
}
